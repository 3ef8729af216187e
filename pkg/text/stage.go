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

	"github.com/rs/zerolog"
	"github.com/walteh/replacerc/pkg/rule"
	"gitlab.com/tozd/go/errors"
)

// StageName is the name the replacement stage registers under in a content pipeline.
const StageName = "replacement"

// 📚 RuleSource supplies the current rule collections
type RuleSource interface {
	GlobalRules(ctx context.Context) ([]rule.Rule, error)
	BookRules(ctx context.Context, bookKey string) ([]rule.Rule, error)
}

// 🚰 Stage is the replacement step of a book's content pipeline. Rules are
// read from the source on every call and never cached.
type Stage struct {
	source   RuleSource
	bookKey  string
	replacer Replacer
}

// NewStage creates a stage for one book.
func NewStage(source RuleSource, bookKey string, replacer Replacer) *Stage {
	if replacer == nil {
		replacer = NewTreeReplacer(Options{})
	}
	return &Stage{source: source, bookKey: bookKey, replacer: replacer}
}

// Name returns StageName.
func (s *Stage) Name() string { return StageName }

// Rules returns the enabled rules for the book in application order.
func (s *Stage) Rules(ctx context.Context) ([]rule.Rule, error) {
	global, err := s.source.GlobalRules(ctx)
	if err != nil {
		return nil, errors.Errorf("reading library rules: %w", err)
	}

	book, err := s.source.BookRules(ctx, s.bookKey)
	if err != nil {
		if !errors.Is(err, rule.ErrBookNotFound) {
			return nil, errors.Errorf("reading book rules: %w", err)
		}
		zerolog.Ctx(ctx).Debug().Str("book", s.bookKey).Msg("no book configuration, using library rules only")
		book = nil
	}

	return rule.Prepare(global, book), nil
}

// Transform applies the book's current rules to one section.
func (s *Stage) Transform(ctx context.Context, content, sectionID string) (*ReplacementResult, error) {
	rules, err := s.Rules(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.replacer.ReplaceText(ctx, Fragment{Content: content, SectionID: sectionID}, rules)
	if err != nil {
		return nil, errors.Errorf("replacing text in %s: %w", sectionID, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("book", s.bookKey).
		Str("section", sectionID).
		Int("replacements", res.ReplacementCount).
		Int("skipped_rules", len(res.SkippedRules)).
		Msg("replacement stage complete")
	return res, nil
}
