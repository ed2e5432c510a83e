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
	"strings"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/configuration"
)

// DefaultRules returns the built-in structural rules.
func DefaultRules() []Rule {
	return []Rule{
		MemoryParity{},
		TransceiverNeedsNIC{},
		MemoryTypeMatch{},
	}
}

// MemoryParity warns when an odd number of memory modules is installed.
type MemoryParity struct{}

// Name implements Rule.
func (MemoryParity) Name() string { return "memory-parity" }

// Paths implements Rule.
func (MemoryParity) Paths() []catalog.PathRef { return nil }

// Evaluate implements Rule.
func (MemoryParity) Evaluate(cfg configuration.Reader) []Issue {
	n := cfg.Count(catalog.CategoryRAM)
	if n == 0 || n%2 == 0 {
		return nil
	}
	return []Issue{{
		Severity: SeverityWarning,
		Group:    GroupMemory,
		Title:    "RAM Configuration",
		Message:  "Uneven number of RAM modules may affect dual-channel performance.",
		Details:  "For optimal performance, install RAM in matched pairs to enable dual-channel memory mode.",
		Category: catalog.CategoryRAM,
		Action:   &Action{Text: "Review RAM", Category: catalog.CategoryRAM},
	}}
}

// TransceiverNeedsNIC warns when SFP modules are selected without a network
// card to host them.
type TransceiverNeedsNIC struct{}

// Name implements Rule.
func (TransceiverNeedsNIC) Name() string { return "sfp-requires-nic" }

// Paths implements Rule.
func (TransceiverNeedsNIC) Paths() []catalog.PathRef { return nil }

// Evaluate implements Rule.
func (TransceiverNeedsNIC) Evaluate(cfg configuration.Reader) []Issue {
	if cfg.Count(catalog.CategorySFP) == 0 || cfg.Count(catalog.CategoryNIC) > 0 {
		return nil
	}
	return []Issue{{
		Severity: SeverityWarning,
		Group:    GroupCompatibility,
		Title:    "Network Card Required",
		Message:  "SFP modules are selected but no network card is present to host them.",
		Category: catalog.CategorySFP,
		Action:   &Action{Text: "Add Network Cards", Category: catalog.CategoryNIC},
	}}
}

// MemoryTypeMatch warns about memory modules whose type the motherboard
// does not support.
type MemoryTypeMatch struct{}

const (
	pathBoardMemoryType = "memory.type"
	pathModuleType      = "memory_type"
)

// Name implements Rule.
func (MemoryTypeMatch) Name() string { return "memory-type-match" }

// Paths implements Rule.
func (MemoryTypeMatch) Paths() []catalog.PathRef {
	return []catalog.PathRef{
		{Category: catalog.CategoryMotherboard, Path: pathBoardMemoryType, Type: catalog.TypeAny, Owner: "memory-type-match"},
		{Category: catalog.CategoryRAM, Path: pathModuleType, Type: catalog.TypeString, Owner: "memory-type-match"},
	}
}

// Evaluate implements Rule.
func (MemoryTypeMatch) Evaluate(cfg configuration.Reader) []Issue {
	boards := cfg.Components(catalog.CategoryMotherboard)
	if len(boards) == 0 || boards[0].Record == nil {
		return nil
	}
	supported := boards[0].Record.Attributes.Strings(pathBoardMemoryType)
	if len(supported) == 0 {
		return nil
	}

	var out []Issue
	seen := make(map[string]struct{})
	for _, m := range cfg.Components(catalog.CategoryRAM) {
		if m.Record == nil {
			continue
		}
		memType := m.Record.Attributes.String(pathModuleType)
		if memType == "" || containsFold(supported, memType) {
			continue
		}
		if _, dup := seen[m.ComponentID]; dup {
			continue
		}
		seen[m.ComponentID] = struct{}{}
		out = append(out, Issue{
			Severity: SeverityWarning,
			Group:    GroupMemory,
			Title:    "Memory Type Mismatch",
			Message: fmt.Sprintf("%s is %s but the motherboard supports %s.",
				m.Record.DisplayName, memType, strings.Join(supported, ", ")),
			Category: catalog.CategoryRAM,
			Action:   &Action{Text: "Review RAM", Category: catalog.CategoryRAM},
		})
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
