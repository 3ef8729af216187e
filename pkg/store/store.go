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
	"net/url"

	"github.com/rs/zerolog"
	"github.com/walteh/replacerc/pkg/config"
	"github.com/walteh/replacerc/pkg/rule"
	"gitlab.com/tozd/go/errors"
)

// 💾 Store persists the library collection and one collection per book
type Store interface {
	// GlobalRules returns the library-wide collection, empty when nothing was saved yet
	GlobalRules(ctx context.Context) ([]rule.Rule, error)

	// BookRules returns a book's collection or an error wrapping rule.ErrBookNotFound
	BookRules(ctx context.Context, bookKey string) ([]rule.Rule, error)

	SaveGlobalRules(ctx context.Context, rules []rule.Rule) error

	// SaveBookRules replaces a book's collection, creating the book when needed
	SaveBookRules(ctx context.Context, bookKey string, rules []rule.Rule) error

	// RegisterBook creates an empty collection for a book that has none
	RegisterBook(ctx context.Context, bookKey string) error

	Close() error
}

func bookNotFound(bookKey string) error {
	return errors.Errorf("book %q: %w", bookKey, rule.ErrBookNotFound)
}

func checkBookKey(bookKey string) error {
	if bookKey == "" {
		return errors.New("book key is required")
	}
	return nil
}

// escapeKey makes a book key safe to use as a file name.
func escapeKey(bookKey string) string {
	return url.PathEscape(bookKey)
}

// 🏭 Open builds the store selected by the config
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	zerolog.Ctx(ctx).Debug().Str("backend", cfg.Backend).Str("path", cfg.Path).Msg("opening rule store")

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile, "":
		format := cfg.Format
		if format == "" {
			format = config.FormatYAML
		}
		return NewFileStore(cfg.Path, format), nil
	case config.BackendBadger:
		db, err := OpenBadgerStore(ctx, BadgerConfig{Path: cfg.Path, SyncWrites: true})
		if err != nil {
			return nil, errors.Errorf("opening badger store: %w", err)
		}
		return db, nil
	}
	return nil, errors.Errorf("unknown store backend %q", cfg.Backend)
}
