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

	"github.com/walteh/replacerc/pkg/rule"
	"github.com/walteh/replacerc/pkg/store"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Operator is the rule lifecycle API plus the apply run over a book
type Operator interface {
	// Create validates options and builds a rule without persisting it
	Create(opts rule.Options) (rule.Rule, error)
	// Add stores a rule in the scope's collection, merging book and library rules by pattern
	Add(ctx context.Context, scope rule.Scope, bookKey string, r rule.Rule) (rule.Rule, error)
	// Remove deletes a rule by id from the scope's collection
	Remove(ctx context.Context, scope rule.Scope, bookKey, ruleID string) error
	// Update applies a partial change to a rule by id
	Update(ctx context.Context, scope rule.Scope, bookKey, ruleID string, patch rule.Patch) (rule.Rule, error)
	// Toggle flips the enabled flag of a rule by id
	Toggle(ctx context.Context, scope rule.Scope, bookKey, ruleID string) (rule.Rule, error)
	// ValidatePattern reports whether a pattern can be used
	ValidatePattern(pattern string, isRegex bool) rule.Validation
	// Rules lists the scope's collection as stored
	Rules(ctx context.Context, scope rule.Scope, bookKey string) ([]rule.Rule, error)
	// MergedRules returns library and book rules merged by id and sorted by order
	MergedRules(ctx context.Context, bookKey string) ([]rule.Rule, error)
	// Apply rewrites the section files of an unpacked book
	Apply(ctx context.Context, opts ApplyOptions) (*ApplyReport, error)
	// Restore puts back the sections an earlier Apply saved with Backup
	Restore(ctx context.Context, opts ApplyOptions) (*ApplyReport, error)
}

// 🔧 Options contains configuration for the operator
type Options struct {
	// Store persists the library and book collections
	Store store.Store
}

// 🏭 New creates a new operator with the given options
func New(opts Options) (Operator, error) {
	if opts.Store == nil {
		return nil, errors.Errorf("store is required")
	}
	return &operator{
		store: opts.Store,
	}, nil
}

// 🎮 operator implements the Operator interface
type operator struct {
	store store.Store
}
