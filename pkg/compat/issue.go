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
	"github.com/NVIDIA/server-builder/pkg/catalog"
)

// Severity grades an issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// rank orders severities most severe first; unknown severities sort last.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// ParseSeverity maps a configured severity name, defaulting to warning.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return Severity(s)
	default:
		return SeverityWarning
	}
}

// Group buckets issues for presentation.
type Group string

const (
	GroupRequired      Group = "required_components"
	GroupCooling       Group = "cooling"
	GroupMemory        Group = "memory"
	GroupStorage       Group = "storage"
	GroupPower         Group = "power"
	GroupCompatibility Group = "compatibility"
	GroupGeneral       Group = "general"
)

var groupTitles = map[Group]string{
	GroupRequired:      "Required Components",
	GroupCooling:       "Cooling System",
	GroupMemory:        "Memory Configuration",
	GroupStorage:       "Storage Devices",
	GroupPower:         "Power Supply",
	GroupCompatibility: "Compatibility",
	GroupGeneral:       "General Issues",
}

// Title returns the display title of the group. Unknown groups fall back
// to the general title.
func (g Group) Title() string {
	if t, ok := groupTitles[g]; ok {
		return t
	}
	return groupTitles[GroupGeneral]
}

// Action is the remedy suggested for an issue.
type Action struct {
	Text     string           `json:"text" yaml:"text"`
	Category catalog.Category `json:"category,omitempty" yaml:"category,omitempty"`
}

// Issue is one finding about a configuration. Issues are recomputed on
// every change and never persisted.
type Issue struct {
	Severity Severity         `json:"severity" yaml:"severity"`
	Group    Group            `json:"group" yaml:"group"`
	Title    string           `json:"title" yaml:"title"`
	Message  string           `json:"message" yaml:"message"`
	Details  string           `json:"details,omitempty" yaml:"details,omitempty"`
	Category catalog.Category `json:"category,omitempty" yaml:"category,omitempty"`
	Action   *Action          `json:"action,omitempty" yaml:"action,omitempty"`

	// Rule names the rule that raised the issue.
	Rule string `json:"rule,omitempty" yaml:"rule,omitempty"`
}

// GroupReport is the issues of one group.
type GroupReport struct {
	Group  Group   `json:"group" yaml:"group"`
	Title  string  `json:"title" yaml:"title"`
	Issues []Issue `json:"issues" yaml:"issues"`
}

// Report summarizes an evaluation.
type Report struct {
	Groups   []GroupReport `json:"groups" yaml:"groups"`
	Total    int           `json:"total" yaml:"total"`
	Critical int           `json:"critical" yaml:"critical"`
	Warning  int           `json:"warning" yaml:"warning"`
	Info     int           `json:"info" yaml:"info"`

	// Resolved is always zero: issues are recomputed, not tracked.
	Resolved        int `json:"resolved" yaml:"resolved"`
	ResolvedPercent int `json:"resolvedPercent" yaml:"resolvedPercent"`
}

// HasCritical reports whether the report has any critical issue.
func (r Report) HasCritical() bool {
	return r.Critical > 0
}

// Summarize groups issues in order of first appearance and counts them per
// severity. ResolvedPercent is 100 when there are no issues and 0 otherwise.
func Summarize(issues []Issue) Report {
	r := Report{Groups: []GroupReport{}}
	index := make(map[Group]int)

	for _, is := range issues {
		i, ok := index[is.Group]
		if !ok {
			i = len(r.Groups)
			index[is.Group] = i
			r.Groups = append(r.Groups, GroupReport{Group: is.Group, Title: is.Group.Title()})
		}
		r.Groups[i].Issues = append(r.Groups[i].Issues, is)

		switch is.Severity {
		case SeverityCritical:
			r.Critical++
		case SeverityWarning:
			r.Warning++
		case SeverityInfo:
			r.Info++
		}
	}

	r.Total = len(issues)
	if r.Total == 0 {
		r.ResolvedPercent = 100
	}
	return r
}
