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
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/replacerc/pkg/log"
	"github.com/walteh/replacerc/pkg/status"
	"gitlab.com/tozd/go/errors"
)

func (o *operator) Restore(ctx context.Context, opts ApplyOptions) (*ApplyReport, error) {
	logger := zerolog.Ctx(ctx)
	reporter := log.FromContext(ctx)

	if opts.Dir == "" {
		return nil, errors.Errorf("book directory is required")
	}

	sections, err := listSections(ctx, opts.Dir, opts.Include, opts.Ignore)
	if err != nil {
		return nil, err
	}

	files := status.New(opts.Dir, logger)
	files.StartOperation(ctx, len(sections))
	for _, section := range sections {
		info := status.SectionInfo{Path: section, Status: status.StatusUnchanged}

		backup := filepath.Join(opts.Dir, filepath.FromSlash(section)) + ".bak"
		if _, err := os.Stat(backup); err == nil {
			if opts.DryRun {
				info.Status = status.StatusPending
			} else if err := files.RestoreFile(ctx, filepath.FromSlash(section)); err != nil {
				info.Status = status.StatusFailed
				info.Error = err
			} else {
				info.Status = status.StatusModified
			}
		}

		files.TrackSection(ctx, info)
		files.Advance(ctx)
		if info.Status != status.StatusUnchanged {
			reporter.LogSectionOperation(ctx, log.SectionOperation{
				Path:       info.Path,
				Status:     "restored",
				IsModified: info.Status != status.StatusFailed,
				IsFailed:   info.Status == status.StatusFailed,
			})
		}
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
				errs = append(errs, info.Error)
			}
		}
		return report, errors.Errorf("%d sections could not be restored: %w", report.Summary.Failed, errors.Join(errs...))
	}
	return report, nil
}
