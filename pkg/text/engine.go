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
	"github.com/walteh/replacerc/pkg/matcher"
	"github.com/walteh/replacerc/pkg/rule"
)

// segment is a run of text that rules are matched against. Matches never
// cross segments. regions holds the spans already written by a rule in this
// pass; they are never matched again.
type segment struct {
	text    []rune
	regions []matcher.Span
	dirty   bool
}

func newSegment(s string) *segment {
	return &segment{text: []rune(s)}
}

func (s *segment) String() string {
	return string(s.text)
}

// substitute replaces span with repl and keeps regions aligned with the new text.
func (s *segment) substitute(span matcher.Span, repl []rune) {
	delta := len(repl) - span.Len()

	out := make([]rune, 0, len(s.text)+delta)
	out = append(out, s.text[:span.Start]...)
	out = append(out, repl...)
	out = append(out, s.text[span.End:]...)
	s.text = out

	for i := range s.regions {
		if s.regions[i].Start >= span.Start {
			s.regions[i].Start += delta
			s.regions[i].End += delta
		}
	}
	s.regions = append(s.regions, matcher.Span{Start: span.Start, End: span.Start + len(repl)})
	s.dirty = true
}

// guardFunc returns spans of a segment that must not be touched.
type guardFunc func(text []rune) []matcher.Span

func (s *segment) candidates(m *matcher.Matcher, guard guardFunc) ([]matcher.Span, error) {
	found, err := m.FindAll(s.text)
	if err != nil {
		return nil, err
	}

	var protected []matcher.Span
	if guard != nil && len(found) > 0 {
		protected = guard(s.text)
	}

	accepted := found[:0]
	for _, span := range found {
		if overlapsAny(span, s.regions) || overlapsAny(span, protected) {
			continue
		}
		accepted = append(accepted, span)
	}
	return accepted, nil
}

func overlapsAny(span matcher.Span, spans []matcher.Span) bool {
	for _, o := range spans {
		if span.Overlaps(o) {
			return true
		}
	}
	return false
}

// pass runs ordered rules over a set of segments.
type pass struct {
	opts      Options
	sectionID string
	guard     guardFunc
	encode    func(string) string // how a replacement is written into a segment
}

type hit struct {
	seg  *segment
	span matcher.Span
}

func (p *pass) run(ctx context.Context, segs []*segment, rules []rule.Rule) (int, []SkippedRule) {
	logger := zerolog.Ctx(ctx)

	var (
		count   int
		skipped []SkippedRule
	)
	for _, r := range rules {
		if !r.Enabled || !r.AppliesToSection(p.sectionID) {
			continue
		}

		m, err := matcher.New(r.Pattern, r.IsRegex, r.CaseSensitive, matcher.Options{MatchTimeout: p.opts.MatchTimeout})
		if err == nil {
			var n int
			n, err = p.apply(segs, r, m)
			count += n
		}
		if err != nil {
			logger.Warn().Err(err).Str("rule_id", r.ID).Str("section", p.sectionID).Msg("skipping replacement rule")
			skipped = append(skipped, SkippedRule{RuleID: r.ID, Pattern: r.Pattern, Err: err})
		}
	}
	return count, skipped
}

func (p *pass) apply(segs []*segment, r rule.Rule, m *matcher.Matcher) (int, error) {
	repl := []rune(r.Replacement)
	if p.encode != nil {
		repl = []rune(p.encode(r.Replacement))
	}

	if r.SingleInstance {
		var hits []hit
		for _, seg := range segs {
			spans, err := seg.candidates(m, p.guard)
			if err != nil {
				return 0, err
			}
			for _, span := range spans {
				hits = append(hits, hit{seg: seg, span: span})
			}
		}

		idx := r.Occurrence()
		if idx < 0 || idx >= len(hits) {
			return 0, nil
		}
		hits[idx].seg.substitute(hits[idx].span, repl)
		return 1, nil
	}

	// Every segment is matched before anything is written, so a failing
	// search leaves the rule with no effect at all.
	found := make([][]matcher.Span, len(segs))
	for i, seg := range segs {
		spans, err := seg.candidates(m, p.guard)
		if err != nil {
			return 0, err
		}
		found[i] = spans
	}

	count := 0
	for i, seg := range segs {
		spans := found[i]
		for j := len(spans) - 1; j >= 0; j-- {
			seg.substitute(spans[j], repl)
			count++
		}
	}
	return count, nil
}
