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
	"cmp"
	"slices"
)

// 🔀 Merge unions library and book rules by id and sorts them by order.
// Book entries replace library entries that share an id.
func Merge(global, book []Rule) []Rule {
	index := make(map[string]int, len(global)+len(book))
	merged := make([]Rule, 0, len(global)+len(book))

	put := func(r Rule) {
		if i, ok := index[r.ID]; ok {
			merged[i] = r
			return
		}
		index[r.ID] = len(merged)
		merged = append(merged, r)
	}
	for _, r := range global {
		put(r)
	}
	for _, r := range book {
		put(r)
	}

	slices.SortStableFunc(merged, func(a, b Rule) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return merged
}

// 📋 ApplicationOrder returns single-instance rules, then book rules, then library rules.
// Relative order inside each bucket is kept.
func ApplicationOrder(rules []Rule) []Rule {
	var single, book, library []Rule
	for _, r := range rules {
		switch {
		case r.SingleInstance:
			single = append(single, r)
		case r.Global:
			library = append(library, r)
		default:
			book = append(book, r)
		}
	}

	ordered := make([]Rule, 0, len(rules))
	ordered = append(ordered, single...)
	ordered = append(ordered, book...)
	return append(ordered, library...)
}

// Enabled drops disabled rules.
func Enabled(rules []Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Prepare is the full read path used before every transform.
func Prepare(global, book []Rule) []Rule {
	return ApplicationOrder(Enabled(Merge(global, book)))
}
