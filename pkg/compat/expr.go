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

	"github.com/google/cel-go/cel"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/configuration"
)

// ExprSpec is the settings form of an expression rule.
type ExprSpec struct {
	Name       string            `json:"name" yaml:"name" mapstructure:"name"`
	Expression string            `json:"expression" yaml:"expression" mapstructure:"expression"`
	Severity   string            `json:"severity" yaml:"severity" mapstructure:"severity"`
	Group      string            `json:"group" yaml:"group" mapstructure:"group"`
	Title      string            `json:"title" yaml:"title" mapstructure:"title"`
	Message    string            `json:"message" yaml:"message" mapstructure:"message"`
	Category   string            `json:"category,omitempty" yaml:"category,omitempty" mapstructure:"category"`
	Action     string            `json:"action,omitempty" yaml:"action,omitempty" mapstructure:"action"`
	Paths      []catalog.PathRef `json:"paths,omitempty" yaml:"paths,omitempty" mapstructure:"paths"`
}

// ExprRule raises one issue whenever its CEL expression evaluates to true.
//
// The expression sees two variables:
//
//	counts      map(string, int)        instances per category
//	components  map(string, list(dyn))  attributes of the resolved records per category
//
// For example: counts.pciecard > 2 && counts.chassis == 0, or
// components.storage.exists(s, has(s.interface) && s.interface == "SAS") && counts.hbacard == 0.
type ExprRule struct {
	spec     ExprSpec
	severity Severity
	program  cel.Program
}

var exprEnv *cel.Env

func init() {
	env, err := cel.NewEnv(
		cel.Variable("counts", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("components", cel.MapType(cel.StringType, cel.ListType(cel.DynType))),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create CEL environment: %v", err))
	}
	exprEnv = env
}

// NewExprRule compiles spec. The expression must be boolean.
func NewExprRule(spec ExprSpec) (*ExprRule, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("expression rule requires a name")
	}
	ast, issues := exprEnv.Compile(spec.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("rule %q: compile: %w", spec.Name, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("rule %q: expression must be boolean, got %v", spec.Name, ast.OutputType())
	}
	prg, err := exprEnv.Program(ast, cel.CostLimit(10000), cel.InterruptCheckFrequency(100))
	if err != nil {
		return nil, fmt.Errorf("rule %q: program: %w", spec.Name, err)
	}
	return &ExprRule{spec: spec, severity: ParseSeverity(spec.Severity), program: prg}, nil
}

// CompileRules compiles every spec, failing on the first invalid one.
func CompileRules(specs []ExprSpec) ([]Rule, error) {
	out := make([]Rule, 0, len(specs))
	for _, s := range specs {
		r, err := NewExprRule(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Name implements Rule.
func (r *ExprRule) Name() string { return r.spec.Name }

// Paths implements Rule.
func (r *ExprRule) Paths() []catalog.PathRef {
	out := make([]catalog.PathRef, 0, len(r.spec.Paths))
	for _, p := range r.spec.Paths {
		if p.Owner == "" {
			p.Owner = r.spec.Name
		}
		if p.Type == "" {
			p.Type = catalog.TypeAny
		}
		out = append(out, p)
	}
	return out
}

// Evaluate implements Rule. An evaluation error yields an info issue
// naming the rule rather than failing the whole evaluation.
func (r *ExprRule) Evaluate(cfg configuration.Reader) []Issue {
	out, _, err := r.program.Eval(exprInput(cfg))
	if err != nil {
		return []Issue{{
			Severity: SeverityInfo,
			Group:    GroupGeneral,
			Title:    "Rule Not Evaluated",
			Message:  fmt.Sprintf("Rule %s could not be evaluated: %v", r.spec.Name, err),
		}}
	}
	if hit, ok := out.Value().(bool); !ok || !hit {
		return nil
	}

	is := Issue{
		Severity: r.severity,
		Group:    Group(r.spec.Group),
		Title:    r.spec.Title,
		Message:  r.spec.Message,
		Category: catalog.Category(r.spec.Category),
	}
	if is.Title == "" {
		is.Title = r.spec.Name
	}
	if r.spec.Action != "" {
		is.Action = &Action{Text: r.spec.Action, Category: is.Category}
	}
	return []Issue{is}
}

func exprInput(cfg configuration.Reader) map[string]any {
	counts := make(map[string]int64)
	components := make(map[string]any)
	for _, c := range catalog.SupportedCategories() {
		counts[string(c)] = int64(cfg.Count(c))
		list := []any{}
		for _, comp := range cfg.Components(c) {
			attrs := map[string]any{}
			if comp.Record != nil {
				attrs = comp.Record.Attributes.ToMap()
			}
			attrs["_componentId"] = comp.ComponentID
			attrs["_quantity"] = int64(comp.Quantity)
			list = append(list, attrs)
		}
		components[string(c)] = list
	}
	return map[string]any{"counts": counts, "components": components}
}
