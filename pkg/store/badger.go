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
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/replacerc/pkg/config"
	"github.com/walteh/replacerc/pkg/rule"
	"gitlab.com/tozd/go/errors"
)

const (
	globalKey  = "rules/global"
	bookPrefix = "rules/book/"
)

// BadgerConfig configures the embedded database behind BadgerStore.
type BadgerConfig struct {
	Path       string // Database directory, ignored when InMemory
	InMemory   bool
	SyncWrites bool
	Logger     *zerolog.Logger // nil silences badger
}

type badgerLogger struct {
	logger *zerolog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// 🗄️ BadgerStore keeps each collection as a JSON rule document under its own key
type BadgerStore struct {
	db *badger.DB
}

func OpenBadgerStore(ctx context.Context, cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, errors.Errorf("creating database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Errorf("opening badger database: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("opened badger rule store")
	return &BadgerStore{db: db}, nil
}

func bookKeyBytes(bookKey string) []byte {
	return []byte(bookPrefix + escapeKey(bookKey))
}

func (s *BadgerStore) get(key []byte) ([]rule.Rule, bool, error) {
	var rules []rule.Rule
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			rules, err = config.DecodeRules(config.FormatJSON, val)
			return err
		})
	})
	if err != nil {
		return nil, false, errors.Errorf("reading %s: %w", key, err)
	}

	return rules, found, nil
}

func (s *BadgerStore) set(key []byte, rules []rule.Rule) error {
	data, err := config.EncodeRules(config.FormatJSON, rules)
	if err != nil {
		return errors.Errorf("encoding rules: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	}); err != nil {
		return errors.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) GlobalRules(ctx context.Context) ([]rule.Rule, error) {
	rules, _, err := s.get([]byte(globalKey))
	return rules, err
}

func (s *BadgerStore) BookRules(ctx context.Context, bookKey string) ([]rule.Rule, error) {
	rules, ok, err := s.get(bookKeyBytes(bookKey))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, bookNotFound(bookKey)
	}
	return rules, nil
}

func (s *BadgerStore) SaveGlobalRules(ctx context.Context, rules []rule.Rule) error {
	return s.set([]byte(globalKey), rules)
}

func (s *BadgerStore) SaveBookRules(ctx context.Context, bookKey string, rules []rule.Rule) error {
	if err := checkBookKey(bookKey); err != nil {
		return err
	}
	return s.set(bookKeyBytes(bookKey), rules)
}

func (s *BadgerStore) RegisterBook(ctx context.Context, bookKey string) error {
	if err := checkBookKey(bookKey); err != nil {
		return err
	}

	key := bookKeyBytes(bookKey)
	empty, err := config.EncodeRules(config.FormatJSON, nil)
	if err != nil {
		return errors.Errorf("encoding rules: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, empty)
	}); err != nil {
		return errors.Errorf("registering book %q: %w", bookKey, err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Errorf("closing badger database: %w", err)
	}
	return nil
}
