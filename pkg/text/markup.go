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

	"github.com/walteh/replacerc/pkg/rule"
	"golang.org/x/net/html"
)

// 🧵 MarkupReplacer substitutes directly in serialized markup, tracking the
// offsets of substituted text instead of re-parsing a tree.
type MarkupReplacer struct {
	opts Options
}

// NewMarkupReplacer creates a new MarkupReplacer
func NewMarkupReplacer(opts Options) *MarkupReplacer {
	return &MarkupReplacer{opts: opts}
}

// ReplaceText implements Replacer.ReplaceText
func (r *MarkupReplacer) ReplaceText(ctx context.Context, fragment Fragment, rules []rule.Rule) (*ReplacementResult, error) {
	result := &ReplacementResult{
		OriginalContent: fragment.Content,
		ModifiedContent: fragment.Content,
	}
	if len(rules) == 0 {
		return result, nil
	}

	seg := newSegment(fragment.Content)
	p := &pass{
		opts:      r.opts,
		sectionID: fragment.SectionID,
		guard:     markupSpans,
		encode:    html.EscapeString,
	}
	result.ReplacementCount, result.SkippedRules = p.run(ctx, []*segment{seg}, rules)
	if result.ReplacementCount == 0 {
		return result, nil
	}

	result.ModifiedContent = seg.String()
	result.WasModified = result.ModifiedContent != result.OriginalContent
	return result, nil
}
