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

package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/replacerc/pkg/config"
	"github.com/walteh/replacerc/pkg/rule"
	"github.com/walteh/replacerc/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 📁 FileStore keeps one rule document per collection under a directory:
//
//	<dir>/library.<ext>
//	<dir>/books/<escaped book key>.<ext>
type FileStore struct {
	dir    string
	format config.Format
}

func NewFileStore(dir string, format config.Format) *FileStore {
	return &FileStore{dir: filepath.Clean(dir), format: format}
}

func (s *FileStore) libraryPath() string {
	return filepath.Join(s.dir, "library"+s.format.Ext())
}

func (s *FileStore) bookPath(bookKey string) string {
	return filepath.Join(s.dir, "books", escapeKey(bookKey)+s.format.Ext())
}

func (s *FileStore) read(ctx context.Context, path string) ([]rule.Rule, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Errorf("reading rule file: %w", err)
	}

	rules, err := config.DecodeRules(s.format, data)
	if err != nil {
		return nil, false, errors.Errorf("decoding %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("rules", len(rules)).Msg("read rule file")
	return rules, true, nil
}

func (s *FileStore) write(ctx context.Context, path string, rules []rule.Rule) error {
	data, err := config.EncodeRules(s.format, rules)
	if err != nil {
		return errors.Errorf("encoding rules: %w", err)
	}

	if err := status.WriteFileAtomic(path, data, 0644); err != nil {
		return errors.Errorf("writing rule file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("rules", len(rules)).Msg("wrote rule file")
	return nil
}

func (s *FileStore) GlobalRules(ctx context.Context) ([]rule.Rule, error) {
	rules, _, err := s.read(ctx, s.libraryPath())
	return rules, err
}

func (s *FileStore) BookRules(ctx context.Context, bookKey string) ([]rule.Rule, error) {
	rules, ok, err := s.read(ctx, s.bookPath(bookKey))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, bookNotFound(bookKey)
	}
	return rules, nil
}

func (s *FileStore) SaveGlobalRules(ctx context.Context, rules []rule.Rule) error {
	return s.write(ctx, s.libraryPath(), rules)
}

func (s *FileStore) SaveBookRules(ctx context.Context, bookKey string, rules []rule.Rule) error {
	if err := checkBookKey(bookKey); err != nil {
		return err
	}
	return s.write(ctx, s.bookPath(bookKey), rules)
}

func (s *FileStore) RegisterBook(ctx context.Context, bookKey string) error {
	if err := checkBookKey(bookKey); err != nil {
		return err
	}

	if _, err := os.Stat(s.bookPath(bookKey)); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Errorf("checking book file: %w", err)
	}

	return s.write(ctx, s.bookPath(bookKey), nil)
}

func (s *FileStore) Close() error { return nil }
