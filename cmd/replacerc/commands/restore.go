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
	"gitlab.com/tozd/go/errors"
)

// NewRestoreCmd creates the restore command
func NewRestoreCmd(ro *opts.RootOpts) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "restore <dir>",
		Short: "Undo an apply run made with --backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return errors.Errorf("resolving book directory: %w", err)
			}

			report, err := ro.Operator.Restore(cmd.Context(), operation.ApplyOptions{
				Dir:     dir,
				Include: ro.Config.Apply.Include,
				Ignore:  ro.Config.Apply.Ignore,
				DryRun:  dryRun,
			})
			if err != nil {
				return errors.Errorf("restoring %s: %w", dir, err)
			}

			if dryRun {
				ro.Reporter.Infof("%d sections would be restored", report.Summary.Pending)
			} else {
				ro.Reporter.Successf("%d sections restored", report.Summary.Modified)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list sections with a backup without restoring them")

	return cmd
}
