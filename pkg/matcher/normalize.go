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
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
)

const boundary = `\b`

// 🚩 Flags are the execution flags of a normalized pattern
type Flags struct {
	Global     bool // find every match, not only the first
	IgnoreCase bool
	Unicode    bool // pattern has non-ASCII runes; whole words are checked by AtWordBoundary
}

// 📐 Normalized is a pattern turned into matcher source
type Normalized struct {
	Source string
	Flags  Flags
}

// 🔧 Normalize turns a user pattern into anchored matcher source.
//
// ASCII patterns get \b anchors: around the whole expression for regular
// expressions, and around the word-character core for literals so attached
// punctuation ("scholar;", "'tis") can still match. Non-ASCII patterns are
// never anchored since \b only knows ASCII word characters.
func Normalize(pattern string, isRegex, caseSensitive bool) Normalized {
	flags := Flags{
		Global:     true,
		IgnoreCase: !caseSensitive,
		Unicode:    HasNonASCII(pattern),
	}

	if isRegex {
		if strings.Contains(pattern, boundary) || flags.Unicode {
			return Normalized{Source: pattern, Flags: flags}
		}
		return Normalized{Source: boundary + "(?:" + pattern + ")" + boundary, Flags: flags}
	}

	if flags.Unicode {
		return Normalized{Source: regexp2.Escape(pattern), Flags: flags}
	}

	first, last := -1, -1
	for i := 0; i < len(pattern); i++ {
		if isASCIIWordByte(pattern[i]) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return Normalized{Source: regexp2.Escape(pattern), Flags: flags}
	}

	var b strings.Builder
	b.WriteString(regexp2.Escape(pattern[:first]))
	b.WriteString(boundary)
	b.WriteString(regexp2.Escape(pattern[first : last+1]))
	b.WriteString(boundary)
	b.WriteString(regexp2.Escape(pattern[last+1:]))
	return Normalized{Source: b.String(), Flags: flags}
}

// HasNonASCII reports whether s contains any rune outside ASCII.
func HasNonASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return true
		}
	}
	return false
}

func isASCIIWordByte(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}
