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

package compat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/configuration"
)

// Rule is one structural compatibility predicate. Rules are independent and
// must be deterministic.
type Rule interface {
	// Name identifies the rule in issues and lint findings.
	Name() string

	// Paths declares the attribute paths the rule reads.
	Paths() []catalog.PathRef

	// Evaluate returns the issues the rule raises for cfg.
	Evaluate(cfg configuration.Reader) []Issue
}

// Engine evaluates required categories and structural rules.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine running rules in addition to the required
// category check.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: append([]Rule(nil), rules...)}
}

// Rules returns the structural rules of the engine.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Paths returns the attribute paths declared by every rule.
func (e *Engine) Paths() []catalog.PathRef {
	var out []catalog.PathRef
	for _, r := range e.rules {
		out = append(out, r.Paths()...)
	}
	return out
}

// Evaluate returns every issue of cfg, sorted by severity, then group, then
// category. Identical input yields identical output. A nil cfg is
// evaluated as an empty configuration.
func (e *Engine) Evaluate(cfg configuration.Reader, required []catalog.Category) []Issue {
	if cfg == nil {
		cfg = configuration.Snapshot{}
	}
	issues := MissingRequired(cfg, required)
	for _, r := range e.rules {
		for _, is := range r.Evaluate(cfg) {
			if is.Rule == "" {
				is.Rule = r.Name()
			}
			if is.Group == "" {
				is.Group = GroupGeneral
			}
			issues = append(issues, is)
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() < b.Severity.rank()
		}
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return catalog.Rank(a.Category) < catalog.Rank(b.Category)
	})

	recordIssues(issues)
	return issues
}

// MissingRequired returns one critical issue per required category without
// any instance. Repeated categories are reported once.
func MissingRequired(cfg configuration.Reader, required []catalog.Category) []Issue {
	var out []Issue
	seen := make(map[catalog.Category]bool, len(required))
	for _, c := range required {
		if seen[c] {
			continue
		}
		seen[c] = true
		if cfg != nil && cfg.Count(c) > 0 {
			continue
		}
		name := catalog.InfoFor(c).Name
		lower := strings.ToLower(name)
		out = append(out, Issue{
			Severity: SeverityCritical,
			Group:    GroupRequired,
			Title:    "Missing " + name,
			Message:  fmt.Sprintf("No %s selected. Adding a %s is required for the system to function.", name, lower),
			Details:  fmt.Sprintf("A %s is essential for your server configuration. Without it, the system cannot operate properly.", lower),
			Category: c,
			Action:   &Action{Text: "Add " + name, Category: c},
			Rule:     "required-components",
		})
	}
	return out
}
