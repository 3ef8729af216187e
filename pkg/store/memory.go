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
	"slices"
	"sync"

	"github.com/walteh/replacerc/pkg/rule"
)

// MemoryStore keeps collections in process memory. Used by tests and the memory backend.
type MemoryStore struct {
	mu     sync.RWMutex
	global []rule.Rule
	books  map[string][]rule.Rule
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[string][]rule.Rule)}
}

func (s *MemoryStore) GlobalRules(ctx context.Context) ([]rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.global), nil
}

func (s *MemoryStore) BookRules(ctx context.Context, bookKey string) ([]rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules, ok := s.books[bookKey]
	if !ok {
		return nil, bookNotFound(bookKey)
	}
	return slices.Clone(rules), nil
}

func (s *MemoryStore) SaveGlobalRules(ctx context.Context, rules []rule.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = slices.Clone(rules)
	return nil
}

func (s *MemoryStore) SaveBookRules(ctx context.Context, bookKey string, rules []rule.Rule) error {
	if err := checkBookKey(bookKey); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[bookKey] = slices.Clone(rules)
	return nil
}

func (s *MemoryStore) RegisterBook(ctx context.Context, bookKey string) error {
	if err := checkBookKey(bookKey); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[bookKey]; !ok {
		s.books[bookKey] = []rule.Rule{}
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
