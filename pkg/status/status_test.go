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

package status

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string)
		path    string
		content string
		check   func(t *testing.T, dir string)
	}{
		{
			name:    "new_file_in_new_dir",
			path:    "OEBPS/text/ch1.xhtml",
			content: "<p>the</p>",
		},
		{
			name: "replaces_and_keeps_permissions",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "ch1.xhtml"), []byte("<p>teh</p>"), 0600))
			},
			path:    "ch1.xhtml",
			content: "<p>the</p>",
			check: func(t *testing.T, dir string) {
				info, err := os.Stat(filepath.Join(dir, "ch1.xhtml"))
				require.NoError(t, err)
				assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "permissions should be kept")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.setup != nil {
				tt.setup(t, dir)
			}

			mgr := New(dir, nil)
			require.NoError(t, mgr.WriteFileAtomic(context.Background(), tt.path, []byte(tt.content)))

			got, err := mgr.ReadFile(context.Background(), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(got))

			entries, err := os.ReadDir(filepath.Dir(filepath.Join(dir, tt.path)))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no temp files should be left behind")

			if tt.check != nil {
				tt.check(t, dir)
			}
		})
	}
}

func TestBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mgr := New(dir, nil)

	require.NoError(t, mgr.BackupFile(ctx, "missing.xhtml"), "backing up a missing file is a no-op")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ch1.xhtml"), []byte("teh"), 0644))
	require.NoError(t, mgr.BackupFile(ctx, "ch1.xhtml"))
	require.NoError(t, mgr.WriteFileAtomic(ctx, "ch1.xhtml", []byte("the")))

	backup, err := os.ReadFile(filepath.Join(dir, "ch1.xhtml.bak"))
	require.NoError(t, err)
	assert.Equal(t, "teh", string(backup))

	require.NoError(t, mgr.RestoreFile(ctx, "ch1.xhtml"))
	got, err := mgr.ReadFile(ctx, "ch1.xhtml")
	require.NoError(t, err)
	assert.Equal(t, "teh", string(got))
	assert.NoFileExists(t, filepath.Join(dir, "ch1.xhtml.bak"))

	assert.Error(t, mgr.RestoreFile(ctx, "ch1.xhtml"), "backup is gone")
}

func TestSectionTracking(t *testing.T) {
	ctx := context.Background()
	mgr := New(t.TempDir(), nil)

	var wg sync.WaitGroup
	for _, info := range []SectionInfo{
		{Path: "c.xhtml", Status: StatusFailed, Error: errors.New("boom")},
		{Path: "a.xhtml", Status: StatusModified, Replacements: 3},
		{Path: "b.xhtml", Status: StatusUnchanged},
		{Path: "d.xhtml", Status: StatusPending, Replacements: 2},
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mgr.TrackSection(ctx, info)
		}()
	}
	wg.Wait()

	var paths []string
	for _, info := range mgr.ListSections(ctx) {
		paths = append(paths, info.Path)
	}
	assert.Equal(t, []string{"a.xhtml", "b.xhtml", "c.xhtml", "d.xhtml"}, paths)

	assert.Equal(t, Summary{Sections: 4, Modified: 1, Pending: 1, Failed: 1, Replacements: 5}, mgr.Summary(ctx))

	info, err := mgr.GetSectionInfo(ctx, "a.xhtml")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Replacements)

	_, err = mgr.GetSectionInfo(ctx, "z.xhtml")
	assert.Error(t, err)
}

func TestSectionStatusString(t *testing.T) {
	for status, want := range map[SectionStatus]string{
		StatusModified:  "modified",
		StatusUnchanged: "unchanged",
		StatusPending:   "would modify",
		StatusFailed:    "failed",
		StatusUnknown:   "unknown",
	} {
		assert.Equal(t, want, status.String())
	}
}

func TestFormatter(t *testing.T) {
	f := NewDefaultFileFormatter()

	assert.Equal(t, "📝 Modified ch1.xhtml (2 replacements)", f.FormatSectionOperation(SectionInfo{Path: "ch1.xhtml", Status: StatusModified, Replacements: 2}))
	assert.Equal(t, "👍 Unchanged ch1.xhtml", f.FormatSectionOperation(SectionInfo{Path: "ch1.xhtml", Status: StatusUnchanged}))
	assert.Equal(t, "⏳ Progress: 1/4 (25%)", f.FormatProgress(1, 4))
	assert.Equal(t, "✅ Progress: 0/0 (0%)", f.FormatProgress(0, 0))
	assert.Empty(t, f.FormatError(nil))
}
