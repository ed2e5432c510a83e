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

package template

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
	"github.com/NVIDIA/server-builder/pkg/header"
)

// SupportedSchema is the schemaVersion constraint templates must satisfy.
const SupportedSchema = "^1"

// Order is the category processing order of an import. Keys not listed are
// processed after these in name order.
var Order = []string{
	"motherboard", "chassis", "cpu", "ram", "storage",
	"nic", "psu", "hbacard", "caddy", "pciecard", "sfp",
}

var schemaConstraint = mustConstraint(SupportedSchema)

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(fmt.Sprintf("invalid schema constraint %q: %v", s, err))
	}
	return c
}

// Item is one template entry.
type Item struct {
	ProductName  string `json:"product_name,omitempty" yaml:"product_name,omitempty"`
	Model        string `json:"model,omitempty" yaml:"model,omitempty"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	Quantity     int    `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	SlotPosition *int   `json:"slot_position,omitempty" yaml:"slot_position,omitempty"`
}

// Key returns the model key used for matching: product name, then model,
// then name.
func (i Item) Key() string {
	for _, s := range []string{i.ProductName, i.Model, i.Name} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Units returns the number of units the item asks for, at least one.
func (i Item) Units() int {
	if i.Quantity < 1 {
		return 1
	}
	return i.Quantity
}

// Template is a parsed build template.
type Template struct {
	header.Header `yaml:",inline"`

	SchemaVersion string            `json:"schemaVersion" yaml:"schemaVersion"`
	Name          string            `json:"name,omitempty" yaml:"name,omitempty"`
	Components    map[string][]Item `json:"components" yaml:"components"`
}

// Categories returns the component keys of t in processing order.
func (t *Template) Categories() []string {
	rank := make(map[string]int, len(Order))
	for i, k := range Order {
		rank[k] = i
	}

	out := make([]string, 0, len(t.Components))
	for k := range t.Components {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := rank[out[i]]
		rj, jok := rank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// Parse decodes a YAML or JSON template and checks its schema version.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeInvalidRequest, "failed to parse template", err)
	}

	if t.Kind != "" && t.Kind != header.KindTemplate {
		return nil, cberrors.NewWithContext(cberrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unexpected document kind %q", t.Kind), map[string]any{"kind": string(t.Kind)})
	}
	if t.SchemaVersion == "" {
		return nil, cberrors.New(cberrors.ErrCodeInvalidRequest, "template schemaVersion is required")
	}
	v, err := semver.NewVersion(t.SchemaVersion)
	if err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid template schemaVersion %s", t.SchemaVersion), err)
	}
	if !schemaConstraint.Check(v) {
		return nil, cberrors.NewWithContext(cberrors.ErrCodeInvalidRequest,
			fmt.Sprintf("template schemaVersion %s is not supported", t.SchemaVersion),
			map[string]any{"supported": SupportedSchema})
	}

	t.Kind = header.KindTemplate
	if t.APIVersion == "" {
		t.APIVersion = header.APIVersion
	}
	if t.Components == nil {
		t.Components = map[string][]Item{}
	}
	return &t, nil
}

// Load reads and parses the template file at path.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeNotFound, fmt.Sprintf("failed to read template %s", path), err)
	}
	return Parse(data)
}
