// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/engine"
	"github.com/NVIDIA/server-builder/pkg/header"
)

const baseURL = "https://serverbuilder.nvidia.com/schemas/lint/"

// Problem classifies a finding.
type Problem string

const (
	ProblemMissing      Problem = "missing"
	ProblemTypeMismatch Problem = "type_mismatch"
	ProblemCatalogEmpty Problem = "catalog_empty"
)

// Finding is one declared path no record satisfies.
type Finding struct {
	Category catalog.Category  `json:"category" yaml:"category"`
	Path     string            `json:"path,omitempty" yaml:"path,omitempty"`
	Type     catalog.ValueType `json:"type,omitempty" yaml:"type,omitempty"`
	Owners   []string          `json:"owners,omitempty" yaml:"owners,omitempty"`
	Problem  Problem           `json:"problem" yaml:"problem"`
	Message  string            `json:"message" yaml:"message"`
}

// Report is the result of a lint run.
type Report struct {
	header.Header `yaml:",inline"`

	// Checked is the number of distinct declarations checked.
	Checked  int       `json:"checked" yaml:"checked"`
	Findings []Finding `json:"findings" yaml:"findings"`
}

// OK reports whether the lint found nothing.
func (r *Report) OK() bool {
	return len(r.Findings) == 0
}

type declaration struct {
	ref    catalog.PathRef
	owners []string
}

// Lint checks refs against records, keyed by category.
func Lint(refs []catalog.PathRef, records map[catalog.Category][]catalog.Record) (*Report, error) {
	decls := dedupe(refs)
	r := &Report{Checked: len(decls), Findings: []Finding{}}
	r.Init(header.KindLintReport, header.APIVersion, "")

	docs := make(map[catalog.Category][]any)
	empty := make(map[catalog.Category]bool)

	for _, d := range decls {
		c := d.ref.Category
		if _, seen := docs[c]; !seen {
			list, err := instances(records[c])
			if err != nil {
				return nil, err
			}
			docs[c] = list
		}
		if len(docs[c]) == 0 {
			if !empty[c] {
				empty[c] = true
				r.Findings = append(r.Findings, Finding{
					Category: c,
					Problem:  ProblemCatalogEmpty,
					Message:  fmt.Sprintf("no %s records to check", c),
				})
			}
			continue
		}

		present, err := compile(d.ref, false)
		if err != nil {
			return nil, err
		}
		if !anyValid(present, docs[c]) {
			r.Findings = append(r.Findings, finding(d, ProblemMissing,
				fmt.Sprintf("no %s record has %s", c, d.ref.Path)))
			continue
		}

		if d.ref.Type == "" || d.ref.Type == catalog.TypeAny {
			continue
		}
		typed, err := compile(d.ref, true)
		if err != nil {
			return nil, err
		}
		if !anyValid(typed, docs[c]) {
			r.Findings = append(r.Findings, finding(d, ProblemTypeMismatch,
				fmt.Sprintf("no %s record has %s of type %s", c, d.ref.Path, d.ref.Type)))
		}
	}

	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Category != b.Category {
			return catalog.Rank(a.Category) < catalog.Rank(b.Category)
		}
		return a.Path < b.Path
	})
	return r, nil
}

// LintEngine lints every path declared by eng against its current catalogs.
func LintEngine(ctx context.Context, eng *engine.Engine) (*Report, error) {
	refs := eng.Paths()
	records := make(map[catalog.Category][]catalog.Record)
	for _, ref := range refs {
		if _, done := records[ref.Category]; done {
			continue
		}
		recs, err := eng.Records(ctx, ref.Category)
		if err != nil {
			return nil, err
		}
		records[ref.Category] = recs
	}
	return Lint(refs, records)
}

func finding(d declaration, p Problem, msg string) Finding {
	return Finding{
		Category: d.ref.Category,
		Path:     d.ref.Path,
		Type:     d.ref.Type,
		Owners:   d.owners,
		Problem:  p,
		Message:  msg,
	}
}

// dedupe merges declarations of the same path and type, keeping the first
// appearance order.
func dedupe(refs []catalog.PathRef) []declaration {
	var out []declaration
	index := make(map[string]int)
	for _, ref := range refs {
		if ref.Path == "" {
			continue
		}
		key := string(ref.Category) + "|" + ref.Path + "|" + string(ref.Type)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, declaration{ref: ref})
		}
		if ref.Owner != "" && !contains(out[i].owners, ref.Owner) {
			out[i].owners = append(out[i].owners, ref.Owner)
		}
	}
	for i := range out {
		sort.Strings(out[i].owners)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// instances converts records into validator input. Numbers decode as
// json.Number so large integers keep their precision.
func instances(records []catalog.Record) ([]any, error) {
	out := make([]any, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec.Attributes)
		if err != nil {
			return nil, fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", rec.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func anyValid(s *jsonschema.Schema, docs []any) bool {
	for _, d := range docs {
		if s.Validate(d) == nil {
			return true
		}
	}
	return false
}

func compile(ref catalog.PathRef, typed bool) (*jsonschema.Schema, error) {
	doc := PathSchema(ref, typed)
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	kind := "present"
	if typed {
		kind = string(ref.Type)
	}
	u := baseURL + url.PathEscape(string(ref.Category)) + "/" + url.PathEscape(ref.Path) + "." + kind + ".json"

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(u, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("schema load failed for %s: %w", ref.Path, err)
	}
	s, err := c.Compile(u)
	if err != nil {
		return nil, fmt.Errorf("schema compile failed for %s: %w", ref.Path, err)
	}
	return s, nil
}

// PathSchema returns the JSON Schema requiring ref.Path, and its declared
// type when typed is set.
func PathSchema(ref catalog.PathRef, typed bool) map[string]any {
	leaf := map[string]any{}
	if typed && ref.Type != "" && ref.Type != catalog.TypeAny {
		leaf["type"] = string(ref.Type)
	}

	parts := strings.Split(ref.Path, ".")
	node := leaf
	for i := len(parts) - 1; i >= 0; i-- {
		node = map[string]any{
			"type":       "object",
			"required":   []string{parts[i]},
			"properties": map[string]any{parts[i]: node},
		}
	}
	node["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	return node
}
