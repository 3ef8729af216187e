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

package matcher

import (
	"time"
	"unicode"

	"github.com/dlclark/regexp2"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/cases"
)

// ⚙️ Options tune compiled matchers
type Options struct {
	// MatchTimeout bounds a single search; zero means no limit.
	MatchTimeout time.Duration
}

// Compile builds an ECMAScript-flavoured matcher for normalized source.
func Compile(n Normalized, opts Options) (*regexp2.Regexp, error) {
	ro := regexp2.RegexOptions(regexp2.ECMAScript)
	if n.Flags.IgnoreCase {
		ro |= regexp2.IgnoreCase
	}

	re, err := regexp2.Compile(n.Source, ro)
	if err != nil {
		return nil, errors.Errorf("compiling %q: %w", n.Source, err)
	}
	if opts.MatchTimeout > 0 {
		re.MatchTimeout = opts.MatchTimeout
	}
	return re, nil
}

// 📏 Span is a half-open range of rune offsets
type Span struct {
	Start int
	End   int
}

// Len returns the number of runes covered.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether the spans share at least one rune.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// 🎯 Matcher finds accepted matches of one rule. It is not safe for concurrent use.
type Matcher struct {
	pattern       string
	literal       bool
	caseSensitive bool
	unicode       bool
	re            *regexp2.Regexp
	fold          cases.Caser
}

// New normalizes and compiles a rule pattern.
func New(pattern string, isRegex, caseSensitive bool, opts Options) (*Matcher, error) {
	n := Normalize(pattern, isRegex, caseSensitive)
	re, err := Compile(n, opts)
	if err != nil {
		return nil, err
	}
	return &Matcher{
		pattern:       pattern,
		literal:       !isRegex,
		caseSensitive: caseSensitive,
		unicode:       n.Flags.Unicode,
		re:            re,
		fold:          cases.Fold(),
	}, nil
}

// FindAll returns every accepted, non-empty match in text, in order.
func (m *Matcher) FindAll(text []rune) ([]Span, error) {
	var spans []Span

	match, err := m.re.FindRunesMatch(text)
	for ; match != nil && err == nil; match, err = m.re.FindNextMatch(match) {
		span := Span{Start: match.Index, End: match.Index + match.Length}
		if m.accept(text, span) {
			spans = append(spans, span)
		}
	}
	if err != nil {
		return nil, errors.Errorf("matching %q: %w", m.pattern, err)
	}
	return spans, nil
}

func (m *Matcher) accept(text []rune, span Span) bool {
	if span.Len() == 0 {
		return false
	}
	if m.unicode && !AtWordBoundary(text, span) {
		return false
	}
	if m.literal {
		got := string(text[span.Start:span.End])
		if m.caseSensitive {
			return got == m.pattern
		}
		return m.fold.String(got) == m.fold.String(m.pattern)
	}
	return true
}

// 🧱 AtWordBoundary reports whether neither neighbour of span is a word character.
func AtWordBoundary(text []rune, span Span) bool {
	if span.Start > 0 && IsWordRune(text[span.Start-1]) {
		return false
	}
	if span.End < len(text) && IsWordRune(text[span.End]) {
		return false
	}
	return true
}

// IsWordRune classifies letters, numbers and underscore in any script.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
