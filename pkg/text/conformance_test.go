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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/replacerc/pkg/rule"
)

var ruleSeq int

func lit(pattern, replacement string, mods ...func(*rule.Rule)) rule.Rule {
	ruleSeq++
	r := rule.Rule{
		ID:            fmt.Sprintf("r%d", ruleSeq),
		Pattern:       pattern,
		Replacement:   replacement,
		Enabled:       true,
		CaseSensitive: true,
		Order:         int64(ruleSeq),
	}
	for _, m := range mods {
		m(&r)
	}
	return r
}

func regex(r *rule.Rule) { r.IsRegex = true }
func ignoreCase(r *rule.Rule) { r.CaseSensitive = false }
func global(r *rule.Rule) { r.Global = true }
func disabled(r *rule.Rule) { r.Enabled = false }
func single(idx int) func(*rule.Rule) {
	return func(r *rule.Rule) {
		r.SingleInstance = true
		r.OccurrenceIndex = &idx
	}
}
func scoped(section string) func(*rule.Rule) {
	return func(r *rule.Rule) { r.SectionScope = section }
}
func order(o int64) func(*rule.Rule) {
	return func(r *rule.Rule) { r.Order = o }
}

type conformanceCase struct {
	name      string
	content   string
	section   string
	global    []rule.Rule
	book      []rule.Rule
	want      string
	wantCount int
	wantSkip  int
}

func conformanceCases() []conformanceCase {
	return []conformanceCase{
		{
			name:    "clean_input_is_unchanged",
			content: "<p>Nothing to see here.</p>",
			book:    []rule.Rule{lit("teh", "the")},
			want:    "<p>Nothing to see here.</p>",
		},
		{
			name:      "inserted_text_is_not_rematched",
			content:   "<p>foo</p>",
			book:      []rule.Rule{lit("foo", "foofoo")},
			want:      "<p>foofoo</p>",
			wantCount: 1,
		},
		{
			name:      "ascii_whole_word",
			content:   "<p>category cat</p>",
			book:      []rule.Rule{lit("cat", "dog")},
			want:      "<p>category dog</p>",
			wantCount: 1,
		},
		{
			name:      "unicode_whole_word",
			content:   "<p>書籍 書 </p>",
			book:      []rule.Rule{lit("書", "本")},
			want:      "<p>書籍 本 </p>",
			wantCount: 1,
		},
		{
			name:      "case_sensitive",
			content:   "<p>Test test TEST</p>",
			book:      []rule.Rule{lit("Test", "X")},
			want:      "<p>X test TEST</p>",
			wantCount: 1,
		},
		{
			name:      "case_insensitive",
			content:   "<p>Test test TEST</p>",
			book:      []rule.Rule{lit("Test", "X", ignoreCase)},
			want:      "<p>X X X</p>",
			wantCount: 3,
		},
		{
			name:      "trailing_punctuation_literal",
			content:   "<p>the scholar; he left</p>",
			book:      []rule.Rule{lit("scholar;", "scholar,")},
			want:      "<p>the scholar, he left</p>",
			wantCount: 1,
		},
		{
			name:      "single_instance_second_occurrence",
			content:   "<p>a cat and a cat</p>",
			book:      []rule.Rule{lit("cat", "dog", single(1))},
			want:      "<p>a cat and a dog</p>",
			wantCount: 1,
		},
		{
			name:      "single_instance_counts_across_leaves",
			content:   "<p>a cat</p><p>a cat</p>",
			book:      []rule.Rule{lit("cat", "dog", single(1))},
			want:      "<p>a cat</p><p>a dog</p>",
			wantCount: 1,
		},
		{
			name:    "single_instance_out_of_range",
			content: "<p>a cat</p>",
			book:    []rule.Rule{lit("cat", "dog", single(4))},
			want:    "<p>a cat</p>",
		},
		{
			name:    "section_scope_other_section",
			content: "<p>a cat</p>",
			section: "ch2.xhtml",
			book:    []rule.Rule{lit("cat", "dog", single(0), scoped("ch1.xhtml"))},
			want:    "<p>a cat</p>",
		},
		{
			name:      "section_scope_sub_fragment",
			content:   "<p>a cat</p>",
			section:   "ch1.xhtml#part2",
			book:      []rule.Rule{lit("cat", "dog", single(0), scoped("ch1.xhtml"))},
			want:      "<p>a dog</p>",
			wantCount: 1,
		},
		{
			name:      "book_beats_library",
			content:   "<p>the colour red</p>",
			global:    []rule.Rule{lit("colour", "COLOUR", global, order(1))},
			book:      []rule.Rule{lit("colour", "color", order(2))},
			want:      "<p>the color red</p>",
			wantCount: 1,
		},
		{
			name:      "later_rule_cannot_touch_earlier_output",
			content:   "<p>foo bar</p>",
			global:    []rule.Rule{lit("bar", "baz", global, order(1))},
			book:      []rule.Rule{lit("foo", "bar", order(2))},
			want:      "<p>bar baz</p>",
			wantCount: 2,
		},
		{
			name:      "single_instance_beats_book",
			content:   "<p>a cat and a cat</p>",
			book:      []rule.Rule{lit("cat", "dog", order(1)), lit("cat", "lion", single(0), order(2))},
			want:      "<p>a lion and a dog</p>",
			wantCount: 2,
		},
		{
			name:      "invalid_regex_is_skipped",
			content:   "<p>teh cat</p>",
			book:      []rule.Rule{lit("(", "x", regex), lit("teh", "the")},
			want:      "<p>the cat</p>",
			wantCount: 1,
			wantSkip:  1,
		},
		{
			name:      "end_to_end_library_rule",
			content:   "<p>I saw teh cat.</p>",
			section:   "ch1",
			global:    []rule.Rule{lit("teh", "the", ignoreCase, global)},
			want:      "<p>I saw the cat.</p>",
			wantCount: 1,
		},
		{
			name:      "tags_and_attributes_untouched",
			content:   `<p class="p">p</p>`,
			book:      []rule.Rule{lit("p", "q")},
			want:      `<p class="p">q</p>`,
			wantCount: 1,
		},
		{
			name:      "script_is_untouched",
			content:   "<p>cat</p><script>var cat = 1;</script>",
			book:      []rule.Rule{lit("cat", "dog")},
			want:      "<p>dog</p><script>var cat = 1;</script>",
			wantCount: 1,
		},
		{
			name:    "character_references_untouched",
			content: "<p>Tom &amp; Jerry</p>",
			book:    []rule.Rule{lit("amp", "x")},
			want:    "<p>Tom &amp; Jerry</p>",
		},
		{
			name:      "self_closing_anchor_stays_in_place",
			content:   `<body><p><a id="p1"/>teh cat</p><p>after</p></body>`,
			book:      []rule.Rule{lit("teh", "the")},
			want:      `<body><p><a id="p1"/>the cat</p><p>after</p></body>`,
			wantCount: 1,
		},
		{
			name:      "replacement_is_text_not_markup",
			content:   "<p>cat</p>",
			book:      []rule.Rule{lit("cat", "<b>")},
			want:      "<p>&lt;b&gt;</p>",
			wantCount: 1,
		},
		{
			name:    "no_match_across_leaves",
			content: "<p>ca<em>t</em></p>",
			book:    []rule.Rule{lit("cat", "dog")},
			want:    "<p>ca<em>t</em></p>",
		},
		{
			name:    "disabled_rule",
			content: "<p>cat</p>",
			book:    []rule.Rule{lit("cat", "dog", disabled)},
			want:    "<p>cat</p>",
		},
		{
			name:      "empty_replacement",
			content:   "<p>a very big cat</p>",
			book:      []rule.Rule{lit("very ", "")},
			want:      "<p>a big cat</p>",
			wantCount: 1,
		},
		{
			name:      "regex_rule",
			content:   "<p>color and colour, discolor</p>",
			book:      []rule.Rule{lit("colou?r", "hue", regex)},
			want:      "<p>hue and hue, discolor</p>",
			wantCount: 2,
		},
	}
}

func TestConformance(t *testing.T) {
	strategies := []Strategy{StrategyTree, StrategyMarkup}

	for _, tt := range conformanceCases() {
		for _, strategy := range strategies {
			t.Run(string(strategy)+"/"+tt.name, func(t *testing.T) {
				replacer, err := NewReplacer(strategy, Options{})
				require.NoError(t, err)

				section := tt.section
				if section == "" {
					section = "ch1.xhtml"
				}

				result, err := replacer.ReplaceText(context.Background(), Fragment{
					Content:   tt.content,
					SectionID: section,
				}, rule.Prepare(tt.global, tt.book))
				require.NoError(t, err)

				assert.Equal(t, tt.want, result.ModifiedContent)
				assert.Equal(t, tt.content, result.OriginalContent)
				assert.Equal(t, tt.wantCount, result.ReplacementCount)
				assert.Equal(t, tt.want != tt.content, result.WasModified)
				assert.Len(t, result.SkippedRules, tt.wantSkip)
			})
		}
	}
}

func TestStrategiesAgree(t *testing.T) {
	tree := NewTreeReplacer(Options{})
	markup := NewMarkupReplacer(Options{})

	for _, tt := range conformanceCases() {
		t.Run(tt.name, func(t *testing.T) {
			fragment := Fragment{Content: tt.content, SectionID: tt.section}
			rules := rule.Prepare(tt.global, tt.book)

			a, err := tree.ReplaceText(context.Background(), fragment, rules)
			require.NoError(t, err)
			b, err := markup.ReplaceText(context.Background(), fragment, rules)
			require.NoError(t, err)

			assert.Equal(t, a.ModifiedContent, b.ModifiedContent)
			assert.Equal(t, a.ReplacementCount, b.ReplacementCount)
		})
	}
}
