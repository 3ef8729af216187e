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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	pterm.DisableStyling()
	os.Exit(m.Run())
}

// workspace writes a config using a file store next to it and an unpacked book
func workspace(t *testing.T) (configPath, bookDir string) {
	t.Helper()
	dir := t.TempDir()

	configPath = filepath.Join(dir, ".replacerc.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("store:\n  backend: file\n  path: rules\n  format: yaml\napply:\n  ignore:\n    - \"**/nav.xhtml\"\n"), 0644))

	bookDir = filepath.Join(dir, "my-book")
	require.NoError(t, os.MkdirAll(filepath.Join(bookDir, "OEBPS"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bookDir, "OEBPS", "ch1.xhtml"), []byte("<p>Teh colour of teh sky</p>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(bookDir, "OEBPS", "nav.xhtml"), []byte("<p>teh</p>"), 0644))
	return configPath, bookDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out, &out)
	return out.String(), err
}

func TestRulesLifecycleAndApply(t *testing.T) {
	cfg, book := workspace(t)

	out, err := execute(t, "-c", cfg, "rules", "add", "teh", "the", "--ignore-case", "--order", "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "global rule")

	out, err = execute(t, "-c", cfg, "--book", "my-book", "rules", "add", "colour", "color", "--order", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "book rule")
	assert.FileExists(t, filepath.Join(filepath.Dir(cfg), "rules", "library.yaml"))
	assert.FileExists(t, filepath.Join(filepath.Dir(cfg), "rules", "books", "my-book.yaml"))

	out, err = execute(t, "-c", cfg, "--book", "my-book", "rules", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"teh"`)
	assert.Contains(t, out, `"colour"`)

	out, err = execute(t, "-c", cfg, "rules", "list", "--scope", "global")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"teh"`)
	assert.NotContains(t, out, `"colour"`)

	out, err = execute(t, "-c", cfg, "apply", book, "--dry-run")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 of 1 sections would change, 3 replacements")

	data, err := os.ReadFile(filepath.Join(book, "OEBPS", "ch1.xhtml"))
	require.NoError(t, err)
	assert.Equal(t, "<p>Teh colour of teh sky</p>", string(data))

	out, err = execute(t, "-c", cfg, "apply", book, "--backup")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 of 1 sections rewritten, 3 replacements")

	data, err = os.ReadFile(filepath.Join(book, "OEBPS", "ch1.xhtml"))
	require.NoError(t, err)
	assert.Equal(t, "<p>the color of the sky</p>", string(data))
	assert.FileExists(t, filepath.Join(book, "OEBPS", "ch1.xhtml.bak"))

	data, err = os.ReadFile(filepath.Join(book, "OEBPS", "nav.xhtml"))
	require.NoError(t, err)
	assert.Equal(t, "<p>teh</p>", string(data), "ignored by config")

	out, err = execute(t, "-c", cfg, "restore", book)
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 sections restored")

	data, err = os.ReadFile(filepath.Join(book, "OEBPS", "ch1.xhtml"))
	require.NoError(t, err)
	assert.Equal(t, "<p>Teh colour of teh sky</p>", string(data))
}

func TestRuleEditing(t *testing.T) {
	cfg, _ := workspace(t)

	_, err := execute(t, "-c", cfg, "-b", "my-book", "rules", "add", "grey", "gray")
	require.NoError(t, err)

	// the id is only printed, so read it back from the table
	root, ro := newRootCmd()
	root.SetArgs([]string{"-c", cfg, "-b", "my-book", "rules", "list"})
	root.SetOut(&bytes.Buffer{})
	require.NoError(t, root.ExecuteContext(context.Background()))
	rules, err := ro.Operator.Rules(context.Background(), "book", "my-book")
	require.NoError(t, err)
	require.NoError(t, ro.Store.Close())
	require.Len(t, rules, 1)
	id := rules[0].ID

	out, err := execute(t, "-c", cfg, "-b", "my-book", "rules", "toggle", id)
	require.NoError(t, err, out)
	assert.Contains(t, out, "disabled")

	out, err = execute(t, "-c", cfg, "-b", "my-book", "rules", "update", id, "--replacement", "GRAY", "--enabled")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"grey" → "GRAY"`)

	out, err = execute(t, "-c", cfg, "-b", "my-book", "rules", "update", id, "--pattern", "(", "--regex")
	assert.Error(t, err, out)

	out, err = execute(t, "-c", cfg, "-b", "my-book", "rules", "remove", id)
	require.NoError(t, err, out)

	out, err = execute(t, "-c", cfg, "-b", "my-book", "rules", "list", "--scope", "book")
	require.NoError(t, err, out)
	assert.Contains(t, out, "no rules")

	_, err = execute(t, "-c", cfg, "-b", "my-book", "rules", "remove", id)
	assert.Error(t, err)
}

func TestCommandErrors(t *testing.T) {
	cfg, _ := workspace(t)

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{
			name:        "book_scope_without_book",
			args:        []string{"-c", cfg, "rules", "add", "a", "b", "--scope", "book"},
			errContains: "--book is required",
		},
		{
			name:        "single_without_section",
			args:        []string{"-c", cfg, "-b", "my-book", "rules", "add", "a", "b", "--scope", "single"},
			errContains: "--section is required",
		},
		{
			name:        "unknown_scope",
			args:        []string{"-c", cfg, "rules", "list", "--scope", "shelf"},
			errContains: "unknown scope",
		},
		{
			name:        "invalid_regex",
			args:        []string{"-c", cfg, "rules", "add", "(", "x", "--regex"},
			errContains: "invalid",
		},
		{
			name:        "missing_config",
			args:        []string{"-c", filepath.Join(t.TempDir(), "nope.yaml"), "rules", "list"},
			errContains: "loading config",
		},
		{
			name:        "missing_book_dir",
			args:        []string{"-c", cfg, "apply", filepath.Join(t.TempDir(), "missing")},
			errContains: "book directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidateAndVersion(t *testing.T) {
	out, err := execute(t, "validate", "colou?r", "--regex")
	require.NoError(t, err)
	assert.Contains(t, out, "pattern is valid")

	out, err = execute(t, "validate", "(", "-r")
	require.Error(t, err)
	assert.Contains(t, out, "❌")

	_, err = execute(t, "validate", "")
	assert.Error(t, err)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "replacerc version info")
}
