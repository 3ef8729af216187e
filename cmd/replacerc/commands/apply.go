// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/walteh/replacerc/cmd/replacerc/opts"
	"github.com/walteh/replacerc/pkg/operation"
	"github.com/walteh/replacerc/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// NewApplyCmd creates the apply command
func NewApplyCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		dryRun      bool
		backup      bool
		strategy    string
		include     []string
		ignore      []string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "apply <dir>",
		Short: "Apply replacement rules to an unpacked book",
		Long: `Apply rewrites the section files of an unpacked EPUB in place.
Library rules always apply; book and single rules come from the book key,
which defaults to the directory name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ro.Config

			dir, err := filepath.Abs(args[0])
			if err != nil {
				return errors.Errorf("resolving book directory: %w", err)
			}

			bookKey := ro.Book
			if bookKey == "" {
				bookKey = filepath.Base(dir)
			}
			if err := ro.Store.RegisterBook(ctx, bookKey); err != nil {
				return errors.Errorf("registering book %q: %w", bookKey, err)
			}

			timeout, err := cfg.Timeout()
			if err != nil {
				return err
			}

			applyOpts := operation.ApplyOptions{
				Dir:          dir,
				BookKey:      bookKey,
				Include:      cfg.Apply.Include,
				Ignore:       cfg.Apply.Ignore,
				Strategy:     text.Strategy(cfg.Apply.Strategy),
				Concurrency:  cfg.Apply.Concurrency,
				MatchTimeout: timeout,
				DryRun:       dryRun,
				Backup:       backup,
			}
			if cmd.Flags().Changed("strategy") {
				applyOpts.Strategy = text.Strategy(strategy)
			}
			if cmd.Flags().Changed("include") {
				applyOpts.Include = include
			}
			if cmd.Flags().Changed("ignore") {
				applyOpts.Ignore = append(applyOpts.Ignore, ignore...)
			}
			if cmd.Flags().Changed("concurrency") {
				applyOpts.Concurrency = concurrency
			}

			report, err := ro.Operator.Apply(ctx, applyOpts)
			if report != nil {
				s := report.Summary
				switch {
				case dryRun:
					ro.Reporter.Infof("%d of %d sections would change, %d replacements", s.Pending, s.Sections, s.Replacements)
				case s.Failed > 0:
					ro.Reporter.Warningf("%d of %d sections rewritten, %d failed, %d replacements", s.Modified, s.Sections, s.Failed, s.Replacements)
				default:
					ro.Reporter.Successf("%d of %d sections rewritten, %d replacements", s.Modified, s.Sections, s.Replacements)
				}
			}
			if err != nil {
				return errors.Errorf("applying rules to %s: %w", dir, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing files")
	cmd.Flags().BoolVar(&backup, "backup", false, "keep a .bak copy of every rewritten section")
	cmd.Flags().StringVar(&strategy, "strategy", "", "replacement strategy: tree or markup (default from config)")
	cmd.Flags().StringSliceVar(&include, "include", nil, "section globs, replaces the configured ones")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "globs to skip, added to the configured ones")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "sections processed at once")

	return cmd
}
