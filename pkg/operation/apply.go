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

package operation

import (
	"context"
	"os"
	"path"
	"runtime"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/replacerc/pkg/log"
	"github.com/walteh/replacerc/pkg/status"
	"github.com/walteh/replacerc/pkg/text"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultInclude matches the content documents of an unpacked EPUB.
var DefaultInclude = []string{"**/*.xhtml", "**/*.html", "**/*.htm"}

// ✏️ ApplyOptions controls a rewrite of an unpacked book
type ApplyOptions struct {
	Dir          string        // Unpacked book directory
	BookKey      string        // Book whose rules apply, library rules apply regardless
	Include      []string      // Section globs relative to Dir, DefaultInclude when empty
	Ignore       []string      // Globs excluded after Include
	Strategy     text.Strategy // Replacement strategy, tree when empty
	Concurrency  int           // Sections processed at once, GOMAXPROCS when zero
	MatchTimeout time.Duration // Per-rule regular expression timeout
	DryRun       bool          // Report changes without writing
	Backup       bool          // Keep <section>.bak next to every rewritten section
}

// 📊 ApplyReport is the outcome of an apply run
type ApplyReport struct {
	Summary  status.Summary
	Sections []status.SectionInfo // Ordered by path
}

// 🔍 shouldIgnore checks if a section should be ignored
func shouldIgnore(ctx context.Context, ignore []string, file string) bool {
	for _, pattern := range ignore {
		matched, err := doublestar.Match(pattern, file)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Str("pattern", pattern).Str("path", file).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			zerolog.Ctx(ctx).Debug().Str("section", file).Str("pattern", pattern).Msg("section ignored by pattern")
			return true
		}
	}
	return false
}

// 📋 listSections returns slash-separated section paths relative to dir, sorted and unique
func listSections(ctx context.Context, dir string, include, ignore []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}

	fsys := os.DirFS(dir)
	var sections []string
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid include pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("listing %s: %w", pattern, err)
		}
		for _, m := range matches {
			if path.Ext(m) == ".bak" || shouldIgnore(ctx, ignore, m) {
				continue
			}
			sections = append(sections, m)
		}
	}

	slices.Sort(sections)
	return slices.Compact(sections), nil
}

func (o *operator) Apply(ctx context.Context, opts ApplyOptions) (*ApplyReport, error) {
	logger := zerolog.Ctx(ctx)
	reporter := log.FromContext(ctx)

	if opts.Dir == "" {
		return nil, errors.Errorf("book directory is required")
	}
	if info, err := os.Stat(opts.Dir); err != nil {
		return nil, errors.Errorf("reading book directory: %w", err)
	} else if !info.IsDir() {
		return nil, errors.Errorf("not a directory: %s", opts.Dir)
	}

	replacer, err := text.NewReplacer(opts.Strategy, text.Options{MatchTimeout: opts.MatchTimeout})
	if err != nil {
		return nil, err
	}
	stage := text.NewStage(o.store, opts.BookKey, replacer)

	sections, err := listSections(ctx, opts.Dir, opts.Include, opts.Ignore)
	if err != nil {
		return nil, err
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = text.StrategyTree
	}
	reporter.StartBookOperation(ctx, log.BookOperation{
		Key:      opts.BookKey,
		Dir:      opts.Dir,
		Strategy: string(strategy),
		DryRun:   opts.DryRun,
	})
	defer reporter.EndBookOperation(ctx)

	files := status.New(opts.Dir, logger)
	files.StartOperation(ctx, len(sections))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, section := range sections {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			info := o.applySection(gctx, files, stage, section, opts)
			files.TrackSection(gctx, info)
			files.Advance(gctx)

			reporter.LogSectionOperation(gctx, log.SectionOperation{
				Path:         info.Path,
				Status:       info.Status.String(),
				Replacements: info.Replacements,
				Skipped:      len(info.SkippedRules),
				IsModified:   info.Status == status.StatusModified || info.Status == status.StatusPending,
				IsFailed:     info.Status == status.StatusFailed,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("applying rules: %w", err)
	}
	files.FinishOperation(ctx)

	report := &ApplyReport{
		Summary:  files.Summary(ctx),
		Sections: files.ListSections(ctx),
	}

	if report.Summary.Failed > 0 {
		var errs []error
		for _, info := range report.Sections {
			if info.Error != nil {
				errs = append(errs, errors.Errorf("%s: %w", info.Path, info.Error))
			}
		}
		return report, errors.Errorf("%d of %d sections failed: %w", report.Summary.Failed, report.Summary.Sections, errors.Join(errs...))
	}

	return report, nil
}

// applySection transforms one section and writes it back when it changed.
func (o *operator) applySection(ctx context.Context, files *status.Manager, stage *text.Stage, section string, opts ApplyOptions) status.SectionInfo {
	info := status.SectionInfo{Path: section}
	fail := func(err error) status.SectionInfo {
		info.Status = status.StatusFailed
		info.Error = err
		return info
	}

	content, err := files.ReadFile(ctx, section)
	if err != nil {
		return fail(err)
	}

	res, err := stage.Transform(ctx, string(content), section)
	if err != nil {
		return fail(err)
	}

	info.Replacements = res.ReplacementCount
	for _, skipped := range res.SkippedRules {
		info.SkippedRules = append(info.SkippedRules, skipped.RuleID)
	}

	if !res.WasModified {
		info.Status = status.StatusUnchanged
		info.Checksum = status.Checksum(content)
		return info
	}

	out := []byte(res.ModifiedContent)
	if opts.DryRun {
		info.Status = status.StatusPending
		info.Checksum = status.Checksum(content)
		return info
	}

	if opts.Backup {
		if err := files.BackupFile(ctx, section); err != nil {
			return fail(err)
		}
	}
	if err := files.WriteFileAtomic(ctx, section, out); err != nil {
		return fail(err)
	}

	info.Status = status.StatusModified
	info.Checksum = status.Checksum(out)
	return info
}
