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

package rule

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"
)

// 🔄 Rule is a single text replacement applied to rendered book content
type Rule struct {
	ID              string `json:"id" yaml:"id"`                                                 // Immutable unique id
	Pattern         string `json:"pattern" yaml:"pattern"`                                       // Literal text or regular expression source
	Replacement     string `json:"replacement" yaml:"replacement"`                               // Inserted literally for every accepted match
	IsRegex         bool   `json:"is_regex" yaml:"is_regex"`                                     // Pattern is a regular expression
	Enabled         bool   `json:"enabled" yaml:"enabled"`                                       // Disabled rules are kept but never applied
	CaseSensitive   bool   `json:"case_sensitive" yaml:"case_sensitive"`                         // Exact case matching
	Order           int64  `json:"order" yaml:"order"`                                           // Application tie-break within a scope
	SingleInstance  bool   `json:"single_instance,omitempty" yaml:"single_instance,omitempty"`   // Targets exactly one occurrence
	SectionScope    string `json:"section_scope,omitempty" yaml:"section_scope,omitempty"`       // Section the rule is limited to
	OccurrenceIndex *int   `json:"occurrence_index,omitempty" yaml:"occurrence_index,omitempty"` // Zero-based match index for single-instance rules
	Global          bool   `json:"global,omitempty" yaml:"global,omitempty"`                     // Lives in the library-wide collection
}

// 🎯 Occurrence returns the targeted occurrence of a single-instance rule
func (r Rule) Occurrence() int {
	if r.OccurrenceIndex == nil {
		return 0
	}
	return *r.OccurrenceIndex
}

// 🔍 AppliesToSection reports whether the rule may run on the given section
func (r Rule) AppliesToSection(sectionID string) bool {
	if r.SectionScope == "" {
		return true
	}
	return SectionBase(r.SectionScope) == SectionBase(sectionID)
}

// SectionBase strips the sub-fragment suffix from a section identifier.
func SectionBase(sectionID string) string {
	if i := strings.IndexByte(sectionID, '#'); i >= 0 {
		return sectionID[:i]
	}
	return sectionID
}

// 📦 Scope names the collection a rule is written to
type Scope string

const (
	ScopeSingle Scope = "single" // transient, occurrence-targeted; stored with the book
	ScopeBook   Scope = "book"   // book-local collection
	ScopeGlobal Scope = "global" // library-wide collection
)

// ParseScope parses a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeSingle:
		return ScopeSingle, nil
	case ScopeBook:
		return ScopeBook, nil
	case ScopeGlobal, "library":
		return ScopeGlobal, nil
	default:
		return "", errors.Errorf("unknown scope %q", s)
	}
}

// 🔧 Options describes a rule to create
type Options struct {
	Pattern         string `validate:"required"`
	Replacement     string
	IsRegex         bool
	CaseSensitive   *bool // defaults to true
	Disabled        bool
	Order           int64 // defaults to the creation time in milliseconds
	SingleInstance  bool
	SectionScope    string
	OccurrenceIndex *int `validate:"omitempty,gte=0"`
	Global          bool
}

var now = time.Now

// 🏭 New validates the options and creates a rule with a fresh id
func New(opts Options) (Rule, error) {
	if err := validateOptions(opts); err != nil {
		return Rule{}, err
	}

	caseSensitive := true
	if opts.CaseSensitive != nil {
		caseSensitive = *opts.CaseSensitive
	}

	order := opts.Order
	if order == 0 {
		order = now().UnixMilli()
	}

	return Rule{
		ID:              uuid.NewString(),
		Pattern:         opts.Pattern,
		Replacement:     opts.Replacement,
		IsRegex:         opts.IsRegex,
		Enabled:         !opts.Disabled,
		CaseSensitive:   caseSensitive,
		Order:           order,
		SingleInstance:  opts.SingleInstance,
		SectionScope:    opts.SectionScope,
		OccurrenceIndex: opts.OccurrenceIndex,
		Global:          opts.Global,
	}, nil
}

// 🩹 Patch holds the fields an update may change; nil fields are left alone
type Patch struct {
	Pattern       *string
	Replacement   *string
	IsRegex       *bool
	Enabled       *bool
	CaseSensitive *bool
	Order         *int64
}

// Apply returns a copy of r with the patch applied. A changed pattern is validated again.
func (p Patch) Apply(r Rule) (Rule, error) {
	if p.Pattern != nil {
		r.Pattern = *p.Pattern
	}
	if p.IsRegex != nil {
		r.IsRegex = *p.IsRegex
	}
	if p.Pattern != nil || p.IsRegex != nil {
		if v := ValidatePattern(r.Pattern, r.IsRegex); !v.Valid {
			return Rule{}, v.Err
		}
	}
	if p.Replacement != nil {
		r.Replacement = *p.Replacement
	}
	if p.Enabled != nil {
		r.Enabled = *p.Enabled
	}
	if p.CaseSensitive != nil {
		r.CaseSensitive = *p.CaseSensitive
	}
	if p.Order != nil {
		r.Order = *p.Order
	}
	return r, nil
}
