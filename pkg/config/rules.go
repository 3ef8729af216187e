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
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/walteh/replacerc/pkg/rule"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 📄 Format is the on-disk encoding of a rule document
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "hcl":
		return FormatHCL, nil
	}
	return "", errors.Errorf("unknown rule format %q", s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Ext is the file extension used for documents in this format.
func (f Format) Ext() string {
	return "." + string(f)
}

// RuleDocument is the persisted shape of one rule collection.
type RuleDocument struct {
	Rules []rule.Rule `json:"rules" yaml:"rules"`
}

type hclRuleDocument struct {
	Rules []hclRule `hcl:"rule,block"`
}

type hclRule struct {
	ID              string `hcl:"id,label"`
	Pattern         string `hcl:"pattern"`
	Replacement     string `hcl:"replacement"`
	IsRegex         bool   `hcl:"is_regex,optional"`
	Enabled         *bool  `hcl:"enabled,optional"`
	CaseSensitive   *bool  `hcl:"case_sensitive,optional"`
	Order           int64  `hcl:"order,optional"`
	SingleInstance  bool   `hcl:"single_instance,optional"`
	SectionScope    string `hcl:"section_scope,optional"`
	OccurrenceIndex *int   `hcl:"occurrence_index,optional"`
	Global          bool   `hcl:"global,optional"`
}

// 📝 EncodeRules serializes a rule collection
func EncodeRules(format Format, rules []rule.Rule) ([]byte, error) {
	if rules == nil {
		rules = []rule.Rule{}
	}

	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(RuleDocument{Rules: rules}); err != nil {
			return nil, errors.Errorf("encoding YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Errorf("encoding YAML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(RuleDocument{Rules: rules}, "", "  ")
		if err != nil {
			return nil, errors.Errorf("encoding JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatHCL:
		doc := hclRuleDocument{Rules: make([]hclRule, 0, len(rules))}
		for _, r := range rules {
			enabled, caseSensitive := r.Enabled, r.CaseSensitive
			doc.Rules = append(doc.Rules, hclRule{
				ID:              r.ID,
				Pattern:         r.Pattern,
				Replacement:     r.Replacement,
				IsRegex:         r.IsRegex,
				Enabled:         &enabled,
				CaseSensitive:   &caseSensitive,
				Order:           r.Order,
				SingleInstance:  r.SingleInstance,
				SectionScope:    r.SectionScope,
				OccurrenceIndex: r.OccurrenceIndex,
				Global:          r.Global,
			})
		}
		f := hclwrite.NewEmptyFile()
		gohcl.EncodeIntoBody(&doc, f.Body())
		return f.Bytes(), nil
	}
	return nil, errors.Errorf("unknown rule format %q", format)
}

// 📖 DecodeRules parses a rule collection; unknown fields are rejected
func DecodeRules(format Format, data []byte) ([]rule.Rule, error) {
	switch format {
	case FormatYAML:
		var doc RuleDocument
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
		return doc.Rules, nil
	case FormatJSON:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		var doc RuleDocument
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Errorf("parsing JSON: %w", err)
		}
		return doc.Rules, nil
	case FormatHCL:
		file, diags := hclparse.NewParser().ParseHCL(data, "rules.hcl")
		if diags.HasErrors() {
			return nil, errors.Errorf("parsing HCL: %s", diags.Error())
		}
		var doc hclRuleDocument
		if diags := gohcl.DecodeBody(file.Body, &hcl.EvalContext{}, &doc); diags.HasErrors() {
			return nil, errors.Errorf("decoding HCL: %s", diags.Error())
		}
		var rules []rule.Rule
		for _, h := range doc.Rules {
			r := rule.Rule{
				ID:              h.ID,
				Pattern:         h.Pattern,
				Replacement:     h.Replacement,
				IsRegex:         h.IsRegex,
				Enabled:         true,
				CaseSensitive:   true,
				Order:           h.Order,
				SingleInstance:  h.SingleInstance,
				SectionScope:    h.SectionScope,
				OccurrenceIndex: h.OccurrenceIndex,
				Global:          h.Global,
			}
			if h.Enabled != nil {
				r.Enabled = *h.Enabled
			}
			if h.CaseSensitive != nil {
				r.CaseSensitive = *h.CaseSensitive
			}
			rules = append(rules, r)
		}
		return rules, nil
	}
	return nil, errors.Errorf("unknown rule format %q", format)
}
