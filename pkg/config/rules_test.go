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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/replacerc/pkg/rule"
)

func sampleRules() []rule.Rule {
	second := 1
	return []rule.Rule{
		{ID: "a1", Pattern: "teh", Replacement: "the", Enabled: true, CaseSensitive: false, Order: 10, Global: true},
		{ID: "b2", Pattern: `colou?r`, Replacement: "color", IsRegex: true, Enabled: false, CaseSensitive: true, Order: 20},
		{ID: "c3", Pattern: "cat", Replacement: "", Enabled: true, CaseSensitive: true, Order: 30, SingleInstance: true, SectionScope: "ch1.xhtml", OccurrenceIndex: &second},
	}
}

func TestRuleDocumentsKeepEveryField(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatJSON, FormatHCL} {
		t.Run(string(format), func(t *testing.T) {
			data, err := EncodeRules(format, sampleRules())
			require.NoError(t, err)

			got, err := DecodeRules(format, data)
			require.NoError(t, err)
			assert.Equal(t, sampleRules(), got)
		})
	}
}

func TestEncodeRulesHCLLayout(t *testing.T) {
	data, err := EncodeRules(FormatHCL, sampleRules()[:1])
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `rule "a1" {`)
	assert.Contains(t, out, `pattern`)
	assert.Contains(t, out, `"teh"`)
}

func TestDecodeRulesHCLDefaults(t *testing.T) {
	rules, err := DecodeRules(FormatHCL, []byte(`
rule "r1" {
  pattern     = "teh"
  replacement = "the"
}
`))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "r1", rules[0].ID)
	assert.True(t, rules[0].Enabled, "enabled defaults to true")
	assert.True(t, rules[0].CaseSensitive, "case sensitivity defaults to true")
	assert.Nil(t, rules[0].OccurrenceIndex)
}

func TestDecodeRulesErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{name: "yaml_unknown_field", format: FormatYAML, data: "rules:\n  - id: a\n    patern: x\n"},
		{name: "json_unknown_field", format: FormatJSON, data: `{"rules": [{"id": "a", "regex": true}]}`},
		{name: "hcl_missing_pattern", format: FormatHCL, data: "rule \"a\" {\n  replacement = \"x\"\n}\n"},
		{name: "hcl_syntax", format: FormatHCL, data: "rule {"},
		{name: "unknown_format", format: "toml", data: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRules(tt.format, []byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestDecodeRulesEmpty(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatJSON, FormatHCL} {
		t.Run(string(format), func(t *testing.T) {
			rules, err := DecodeRules(format, nil)
			require.NoError(t, err)
			assert.Empty(t, rules)

			data, err := EncodeRules(format, nil)
			require.NoError(t, err)
			rules, err = DecodeRules(format, data)
			require.NoError(t, err)
			assert.Empty(t, rules)
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"yaml": FormatYAML, ".yml": FormatYAML, "JSON": FormatJSON, ".hcl": FormatHCL} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	got, err := FormatFromPath("books/x.json")
	require.NoError(t, err)
	assert.Equal(t, ".json", got.Ext())

	_, err = ParseFormat("toml")
	assert.Error(t, err)
}
