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
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/replacerc/pkg/matcher"
	"github.com/walteh/replacerc/pkg/rule"
	"golang.org/x/net/html"
)

const xhtmlSection = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>Teh End</title><style>p.teh { color: red; }</style></head><body><p class="teh">teh cat</p></body></html>`

func TestTreeReplacerFullDocument(t *testing.T) {
	replacer := NewTreeReplacer(Options{})

	result, err := replacer.ReplaceText(context.Background(), Fragment{
		Content:   xhtmlSection,
		SectionID: "OEBPS/ch1.xhtml",
	}, []rule.Rule{lit("teh", "the", ignoreCase)})
	require.NoError(t, err)

	out := result.ModifiedContent
	assert.True(t, strings.HasPrefix(out, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n"), "prolog is kept: %s", out)
	assert.NotContains(t, out, "<!--?xml")
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>the End</title>")
	assert.Contains(t, out, `<p class="teh">the cat</p>`)
	assert.Contains(t, out, "p.teh { color: red; }", "style body is not text")
	assert.Equal(t, 2, result.ReplacementCount)
	assert.True(t, result.WasModified)
}

func TestTextLeaves(t *testing.T) {
	doc, isFragment, err := parseHTML("<div>\n  <p>one</p>\n  <script>two</script><style>three</style><p>four <b>five</b></p></div>")
	require.NoError(t, err)
	assert.True(t, isFragment)

	var got []string
	for _, n := range textLeaves(doc) {
		got = append(got, n.Data)
	}
	assert.Equal(t, []string{"one", "four ", "five"}, got)
}

func TestTreeReplacerKeepsSelfClosingElements(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "anchor_in_paragraph",
			content: `<body><p><a id="p1"/>teh cat</p><p>after</p></body>`,
			want:    `<body><p><a id="p1"/>the cat</p><p>after</p></body>`,
		},
		{
			name:    "bare_anchor",
			content: `<a id="x"/>teh <b>end</b>`,
			want:    `<a id="x"/>the <b>end</b>`,
		},
		{
			name:    "namespaced_root",
			content: `<html xmlns="http://www.w3.org/1999/xhtml"><body><p>teh &amp; <span class='a'>x</span></p></body></html>`,
			want:    `<html xmlns="http://www.w3.org/1999/xhtml"><body><p>the &amp; <span class='a'>x</span></p></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewTreeReplacer(Options{}).ReplaceText(context.Background(), Fragment{Content: tt.content, SectionID: "ch1"}, []rule.Rule{lit("teh", "the")})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.ModifiedContent)
			assert.Equal(t, 1, result.ReplacementCount)
		})
	}
}

func TestXMLSerialized(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "prolog", content: "\n<?xml version=\"1.0\"?><p>x</p>", want: true},
		{name: "namespace", content: `<svg xmlns:xlink="http://www.w3.org/1999/xlink"></svg>`, want: true},
		{name: "self_closing_non_void", content: `<p><a id="x"/></p>`, want: true},
		{name: "self_closing_void", content: `<p>a<br/>b<img src="x.png" /></p>`},
		{name: "plain_html", content: `<p>x</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, xmlSerialized(tt.content, scanMarkup(tt.content)))
		})
	}
}

func TestCharacterReferencesByStrategy(t *testing.T) {
	// tree matches decoded text; markup never matches through a reference
	in := "<p>AT&amp;T</p>"
	rules := []rule.Rule{lit("AT&T", "ATT")}

	tree, err := NewTreeReplacer(Options{}).ReplaceText(context.Background(), Fragment{Content: in}, rules)
	require.NoError(t, err)
	assert.Equal(t, "<p>ATT</p>", tree.ModifiedContent)

	markup, err := NewMarkupReplacer(Options{}).ReplaceText(context.Background(), Fragment{Content: in}, rules)
	require.NoError(t, err)
	assert.Equal(t, in, markup.ModifiedContent)
	assert.Zero(t, markup.ReplacementCount)
}

func TestTreeReplacerRendersNonBreakingSpace(t *testing.T) {
	result, err := NewTreeReplacer(Options{}).ReplaceText(context.Background(), Fragment{Content: "<p>teh&nbsp;cat</p>"}, []rule.Rule{lit("teh", "the")})
	require.NoError(t, err)
	assert.Equal(t, "<p>the\u00a0cat</p>", result.ModifiedContent)
}

func TestTreeReplacerNoRulesReturnsInput(t *testing.T) {
	in := "<p>untouched <br>markup"
	result, err := NewTreeReplacer(Options{}).ReplaceText(context.Background(), Fragment{Content: in}, nil)
	require.NoError(t, err)
	assert.Equal(t, in, result.ModifiedContent)
	assert.False(t, result.WasModified)
}

func TestSegmentSubstituteShiftsRegions(t *testing.T) {
	seg := newSegment("aa bb cc")
	seg.substitute(matcher.Span{Start: 6, End: 8}, []rune("CCCC"))
	seg.substitute(matcher.Span{Start: 0, End: 2}, []rune("A"))

	assert.Equal(t, "A bb CCCC", seg.String())
	assert.ElementsMatch(t, []matcher.Span{{Start: 5, End: 9}, {Start: 0, End: 1}}, seg.regions)
	assert.True(t, seg.dirty)
}

func TestTransform(t *testing.T) {
	rules := []rule.Rule{
		lit("teh", "the", ignoreCase, global),
		lit("Teh", "THE", order(0)),
	}

	assert.Equal(t, "<p>THE cat and the dog</p>", Transform("<p>Teh cat and teh dog</p>", "ch1", rules))
	assert.Equal(t, "<p>clean</p>", Transform("<p>clean</p>", "ch1", rules))
}

func TestTransformSortsByOrderAndSkipsDisabled(t *testing.T) {
	rules := []rule.Rule{
		lit("cat", "dog", order(5)),
		lit("cat", "cow", order(1)),
		lit("cow", "yak", order(0), disabled),
	}

	assert.Equal(t, "<p>cow</p>", Transform("<p>cat</p>", "ch1", rules))
}

func TestTransformIsSafeForConcurrentFragments(t *testing.T) {
	rules := []rule.Rule{lit("cat", "dog"), lit("dog", "wolf", global)}
	snapshot := append([]rule.Rule(nil), rules...)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "<p>dog wolf</p>", Transform("<p>cat dog</p>", "ch1", rules))
		}()
	}
	wg.Wait()

	assert.Equal(t, snapshot, rules, "rules are never mutated")
}

func TestRenderEscapesLikeMarkupEncoder(t *testing.T) {
	doc, isFragment, err := parseHTML("<p>x</p>")
	require.NoError(t, err)
	textLeaves(doc)[0].Data = `<a href="x">&'`

	out, err := renderHTML(doc, isFragment)
	require.NoError(t, err)
	assert.Equal(t, "<p>"+html.EscapeString(`<a href="x">&'`)+"</p>", out)
}

func TestValidateRules(t *testing.T) {
	assert.NoError(t, ValidateRules([]rule.Rule{lit("cat", "dog"), lit("a+", "b", regex)}))

	err := ValidateRules([]rule.Rule{lit("cat", "dog"), lit("(", "b", regex), {ID: "empty"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, rule.ErrInvalidPattern)
	assert.ErrorIs(t, err, rule.ErrEmptyPattern)
	assert.Contains(t, err.Error(), "rule 1")
	assert.Contains(t, err.Error(), "rule 2 (empty)")
}

func TestNewReplacerUnknownStrategy(t *testing.T) {
	_, err := NewReplacer("regex-soup", Options{})
	assert.Error(t, err)
}
