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

package text

import (
	"context"
	"time"

	"github.com/walteh/replacerc/pkg/rule"
	"gitlab.com/tozd/go/errors"
)

// 📄 Fragment is one unit of renderable content, usually one book section
type Fragment struct {
	Content   string
	SectionID string
}

// ⏭️ SkippedRule records a rule that could not run for a fragment
type SkippedRule struct {
	RuleID  string
	Pattern string
	Err     error
}

// ReplacementResult contains the results of a text replacement operation
type ReplacementResult struct {
	// WasModified indicates if any replacements were made
	WasModified bool

	// ReplacementCount is the number of replacements made
	ReplacementCount int

	// OriginalContent is the content before replacements
	OriginalContent string

	// ModifiedContent is the content after replacements
	ModifiedContent string

	// SkippedRules lists rules whose matcher failed to compile or run
	SkippedRules []SkippedRule
}

// Replacer applies ordered rules to a fragment
type Replacer interface {
	// ReplaceText applies rules, already in application order, to the fragment.
	// Only unparseable content is an error; broken rules are skipped and reported.
	ReplaceText(ctx context.Context, fragment Fragment, rules []rule.Rule) (*ReplacementResult, error)
}

// 🔀 Strategy selects a Replacer implementation
type Strategy string

const (
	StrategyTree   Strategy = "tree"   // substitute inside parsed text nodes
	StrategyMarkup Strategy = "markup" // substitute in serialized markup with offset tracking
)

// ⚙️ Options are shared by both strategies
type Options struct {
	// MatchTimeout bounds each regular expression search; zero means no limit.
	MatchTimeout time.Duration
}

// NewReplacer returns the replacer for a strategy.
func NewReplacer(strategy Strategy, opts Options) (Replacer, error) {
	switch strategy {
	case StrategyTree, "":
		return NewTreeReplacer(opts), nil
	case StrategyMarkup:
		return NewMarkupReplacer(opts), nil
	default:
		return nil, errors.Errorf("unknown replacement strategy %q", strategy)
	}
}

// 🎯 Transform is the pipeline entry point: it applies the enabled rules in
// application order and returns the input unchanged when nothing matched or
// the content could not be parsed.
func Transform(content, sectionID string, rules []rule.Rule) string {
	res, err := NewTreeReplacer(Options{}).ReplaceText(context.Background(), Fragment{
		Content:   content,
		SectionID: sectionID,
	}, rule.Prepare(nil, rules))
	if err != nil {
		return content
	}
	return res.ModifiedContent
}

// ValidateRules checks every rule's pattern and joins the failures
func ValidateRules(rules []rule.Rule) error {
	var errs []error
	for i, r := range rules {
		if v := rule.ValidatePattern(r.Pattern, r.IsRegex); !v.Valid {
			errs = append(errs, errors.Errorf("rule %d (%s): %w", i, r.ID, v.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
