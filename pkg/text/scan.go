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
	"strings"
	"unicode/utf8"

	"github.com/walteh/replacerc/pkg/matcher"
	"golang.org/x/net/html"
)

// 🔖 piece is one token of serialized markup, located by rune offsets
type piece struct {
	kind    html.TokenType
	raw     string
	name    string // lower-cased tag name of tag tokens
	span    matcher.Span
	rawText bool // text token inside script or style
	xmlns   bool // tag declares an XML namespace
}

// voidElements never have content, so a self-closing form is plain HTML too.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

func isRawTextElement(name string) bool {
	return name == "script" || name == "style"
}

// scanMarkup splits content into tokens whose raw bytes cover it exactly.
// Trailing bytes the tokenizer gives up on (an unterminated tag) become a
// final piece of kind html.ErrorToken.
func scanMarkup(content string) []piece {
	z := html.NewTokenizer(strings.NewReader(content))

	var (
		pieces   []piece
		runes    int
		consumed int
		inRaw    bool
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		raw := string(z.Raw())
		p := piece{
			kind: tt,
			raw:  raw,
			span: matcher.Span{Start: runes, End: runes + utf8.RuneCountInString(raw)},
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, hasAttr := z.TagName()
			p.name = string(name)
			for hasAttr {
				var key []byte
				key, _, hasAttr = z.TagAttr()
				if k := string(key); k == "xmlns" || strings.HasPrefix(k, "xmlns:") {
					p.xmlns = true
				}
			}
		case html.TextToken:
			p.rawText = inRaw
		}

		// a self-closing <script/> has no body for the tokenizer to read raw
		if tt == html.SelfClosingTagToken {
			z.NextIsNotRawText()
		}
		inRaw = tt == html.StartTagToken && isRawTextElement(p.name)

		pieces = append(pieces, p)
		runes = p.span.End
		consumed += len(raw)
	}

	if consumed < len(content) {
		rest := content[consumed:]
		pieces = append(pieces, piece{
			kind: html.ErrorToken,
			raw:  rest,
			span: matcher.Span{Start: runes, End: runes + utf8.RuneCountInString(rest)},
		})
	}
	return pieces
}

// xmlSerialized reports whether content is XHTML that an HTML5 parser would
// restructure: it has an XML declaration, a namespace declaration, or a
// self-closing element that is not void.
func xmlSerialized(content string, pieces []piece) bool {
	if strings.HasPrefix(strings.TrimLeft(content, " \t\r\n\ufeff"), "<?xml") {
		return true
	}
	for _, p := range pieces {
		if p.xmlns || (p.kind == html.SelfClosingTagToken && !voidElements[p.name]) {
			return true
		}
	}
	return false
}

// markupSpans finds everything in serialized markup that is not text content:
// tags (so matches touching '<' or '>' are rejected), comments, declarations,
// script and style bodies, and character references.
func markupSpans(text []rune) []matcher.Span {
	var spans []matcher.Span
	for _, p := range scanMarkup(string(text)) {
		if p.kind != html.TextToken || p.rawText {
			spans = append(spans, p.span)
			continue
		}
		spans = append(spans, charRefs(p)...)
	}
	return spans
}

// charRefs returns the character references inside a text piece.
func charRefs(p piece) []matcher.Span {
	if !strings.ContainsRune(p.raw, '&') {
		return nil
	}

	var spans []matcher.Span
	text := []rune(p.raw)
	for i := 0; i < len(text); i++ {
		if text[i] != '&' {
			continue
		}
		if end, ok := charRefEnd(text, i); ok {
			spans = append(spans, matcher.Span{Start: p.span.Start + i, End: p.span.Start + end})
			i = end - 1
		}
	}
	return spans
}

// charRefEnd recognizes &name; &#123; and &#x1F; starting at i.
func charRefEnd(text []rune, i int) (int, bool) {
	const maxRefLen = 32
	for j := i + 1; j < len(text) && j-i <= maxRefLen; j++ {
		c := text[j]
		switch {
		case c == ';':
			return j + 1, j > i+1
		case c == '#' && j == i+1:
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		default:
			return 0, false
		}
	}
	return 0, false
}
