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

	"github.com/walteh/replacerc/pkg/rule"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// 🌳 TreeReplacer substitutes inside the text nodes of the parsed markup tree.
// Tags and attributes are never visible to rules.
type TreeReplacer struct {
	opts Options
}

// NewTreeReplacer creates a new TreeReplacer
func NewTreeReplacer(opts Options) *TreeReplacer {
	return &TreeReplacer{opts: opts}
}

// ReplaceText implements Replacer.ReplaceText
func (r *TreeReplacer) ReplaceText(ctx context.Context, fragment Fragment, rules []rule.Rule) (*ReplacementResult, error) {
	result := &ReplacementResult{
		OriginalContent: fragment.Content,
		ModifiedContent: fragment.Content,
	}
	if len(rules) == 0 {
		return result, nil
	}

	pieces := scanMarkup(fragment.Content)
	if xmlSerialized(fragment.Content, pieces) {
		return r.replacePieces(ctx, fragment.SectionID, pieces, rules, result), nil
	}

	doc, isFragment, err := parseHTML(fragment.Content)
	if err != nil {
		return nil, errors.Errorf("parsing section %s: %w", fragment.SectionID, err)
	}

	nodes := textLeaves(doc)
	segs := make([]*segment, len(nodes))
	for i, n := range nodes {
		segs[i] = newSegment(n.Data)
	}

	p := &pass{opts: r.opts, sectionID: fragment.SectionID}
	result.ReplacementCount, result.SkippedRules = p.run(ctx, segs, rules)
	if result.ReplacementCount == 0 {
		return result, nil
	}

	for i, seg := range segs {
		if seg.dirty {
			nodes[i].Data = seg.String()
		}
	}

	rendered, err := renderHTML(doc, isFragment)
	if err != nil {
		return nil, errors.Errorf("rendering section %s: %w", fragment.SectionID, err)
	}

	result.ModifiedContent = rendered
	result.WasModified = result.ModifiedContent != result.OriginalContent
	return result, nil
}

// replacePieces handles XHTML without an HTML5 parse, which would move
// self-closing elements and drop the XML declaration. Text tokens are
// decoded and matched like tree text nodes; every other token is copied
// through byte for byte.
func (r *TreeReplacer) replacePieces(ctx context.Context, sectionID string, pieces []piece, rules []rule.Rule, result *ReplacementResult) *ReplacementResult {
	var (
		leaves []int
		segs   []*segment
	)
	for i, pc := range pieces {
		if pc.kind != html.TextToken || pc.rawText {
			continue
		}
		text := html.UnescapeString(pc.raw)
		if strings.TrimSpace(text) == "" {
			continue
		}
		leaves = append(leaves, i)
		segs = append(segs, newSegment(text))
	}

	p := &pass{opts: r.opts, sectionID: sectionID}
	result.ReplacementCount, result.SkippedRules = p.run(ctx, segs, rules)
	if result.ReplacementCount == 0 {
		return result
	}

	out := make([]string, len(pieces))
	for i, pc := range pieces {
		out[i] = pc.raw
	}
	for j, seg := range segs {
		if seg.dirty {
			out[leaves[j]] = html.EscapeString(seg.String())
		}
	}

	result.ModifiedContent = strings.Join(out, "")
	result.WasModified = result.ModifiedContent != result.OriginalContent
	return result
}

// textLeaves returns the renderable, non-blank text nodes in document order.
func textLeaves(root *html.Node) []*html.Node {
	var leaves []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if !isRawTextParent(n.Parent) && strings.TrimSpace(n.Data) != "" {
				leaves = append(leaves, n)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return leaves
}

func isRawTextParent(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style:
		return true
	}
	return false
}

// parseHTML parses HTML content, handling both full documents and fragments.
// Returns the parsed node and whether it was a fragment.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the tree back; fragments render only their children.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
