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

package cascade

import (
	"github.com/NVIDIA/server-builder/pkg/catalog"
)

// ValueKind controls how level option values are ordered and compared.
type ValueKind string

const (
	// KindString orders options lexicographically and compares them exactly.
	KindString ValueKind = "string"

	// KindNumber orders options numerically and compares them as numbers.
	KindNumber ValueKind = "number"
)

// MatchMode selects how a record's attribute is matched against a choice.
type MatchMode string

const (
	// MatchEqual requires the attribute to equal the choice.
	MatchEqual MatchMode = "equal"

	// MatchMember requires the array attribute to contain the choice.
	MatchMember MatchMode = "member"
)

// Level is one step of a cascade.
type Level struct {
	Label string    `json:"label" yaml:"label"`
	Path  string    `json:"path" yaml:"path"`
	Kind  ValueKind `json:"kind" yaml:"kind"`
	Match MatchMode `json:"match" yaml:"match"`

	// Terminal marks the last level, whose options are the records themselves.
	Terminal bool `json:"terminal,omitempty" yaml:"terminal,omitempty"`
}

// LabelFunc renders a terminal option.
type LabelFunc func(r catalog.Record) string

// Definition is the cascade of one category: two to four levels, the last
// one terminal.
type Definition struct {
	Category catalog.Category `json:"category" yaml:"category"`
	Levels   []Level          `json:"levels" yaml:"levels"`

	// TerminalLabel overrides the display name of terminal options.
	TerminalLabel LabelFunc `json:"-" yaml:"-"`
}

// Paths returns the attribute paths read by the non-terminal levels.
func (d Definition) Paths() []string {
	out := make([]string, 0, len(d.Levels))
	for _, l := range d.Levels {
		if !l.Terminal {
			out = append(out, l.Path)
		}
	}
	return out
}

// Refs returns the declared attribute paths of the non-terminal levels.
func (d Definition) Refs() []catalog.PathRef {
	out := make([]catalog.PathRef, 0, len(d.Levels))
	for _, l := range d.Levels {
		if l.Terminal {
			continue
		}
		typ := catalog.TypeString
		switch {
		case l.Match == MatchMember:
			typ = catalog.TypeArray
		case l.Kind == KindNumber:
			typ = catalog.TypeNumber
		}
		out = append(out, catalog.PathRef{Category: d.Category, Path: l.Path, Type: typ, Owner: "cascade level " + l.Label})
	}
	return out
}

// choiceLevels is the number of levels the user picks a value for before
// the terminal record choice.
func (d Definition) choiceLevels() int {
	n := 0
	for _, l := range d.Levels {
		if !l.Terminal {
			n++
		}
	}
	return n
}

func (d Definition) label(r catalog.Record) string {
	if d.TerminalLabel != nil {
		if s := d.TerminalLabel(r); s != "" {
			return s
		}
	}
	return r.DisplayName
}

func str(label, path string) Level {
	return Level{Label: label, Path: path, Kind: KindString, Match: MatchEqual}
}

func num(label, path string) Level {
	return Level{Label: label, Path: path, Kind: KindNumber, Match: MatchEqual}
}

func member(label, path string) Level {
	return Level{Label: label, Path: path, Kind: KindString, Match: MatchMember}
}

func terminal() Level {
	return Level{Label: "Model", Path: "model", Kind: KindString, Match: MatchEqual, Terminal: true}
}

var brandSeries = []Level{str("Brand", "brand"), str("Series", "series"), terminal()}

var definitions = map[catalog.Category]Definition{
	catalog.CategoryRAM: {
		Category: catalog.CategoryRAM,
		Levels: []Level{
			str("Memory Type", "memory_type"),
			num("Capacity", "capacity_GB"),
			str("Form Factor", "form_factor"),
			terminal(),
		},
		TerminalLabel: memoryLabel,
	},
	catalog.CategoryStorage: {
		Category: catalog.CategoryStorage,
		Levels: []Level{
			str("Storage Type", "storage_type"),
			str("Form Factor", "form_factor"),
			num("Capacity", "capacity_GB"),
			terminal(),
		},
		TerminalLabel: storageLabel,
	},
	catalog.CategoryCaddy: {
		Category: catalog.CategoryCaddy,
		Levels: []Level{
			str("Size", "compatibility.size"),
			member("Drive Type", "compatibility.drive_type"),
			terminal(),
		},
	},
	catalog.CategoryChassis: {
		Category: catalog.CategoryChassis,
		Levels: []Level{
			str("Manufacturer", "manufacturer"),
			str("Series", "series"),
			str("Form Factor", "form_factor"),
			terminal(),
		},
	},
	catalog.CategoryPCIeCard: {
		Category: catalog.CategoryPCIeCard,
		Levels: []Level{
			str("Type", "component_subtype"),
			str("Brand", "brand"),
			str("Series", "series"),
			terminal(),
		},
	},
	catalog.CategoryCPU:         {Category: catalog.CategoryCPU, Levels: brandSeries},
	catalog.CategoryMotherboard: {Category: catalog.CategoryMotherboard, Levels: brandSeries},
	catalog.CategoryNIC:         {Category: catalog.CategoryNIC, Levels: brandSeries},
	catalog.CategoryHBACard:     {Category: catalog.CategoryHBACard, Levels: brandSeries},
	catalog.CategorySFP:         {Category: catalog.CategorySFP, Levels: brandSeries},
}

// DefinitionFor returns the cascade registered for c and whether one exists.
func DefinitionFor(c catalog.Category) (Definition, bool) {
	d, ok := definitions[c]
	if !ok {
		return Definition{}, false
	}
	d.Levels = append([]Level(nil), d.Levels...)
	return d, true
}

// memoryLabel renders "{brand} {series} {capacity}GB {type}-{speed}MHz {module}".
func memoryLabel(r catalog.Record) string {
	a := r.Attributes
	if a.String("capacity_GB") == "" {
		return ""
	}
	speed := a.String("memory_type")
	if f := a.String("frequency_MHz"); f != "" {
		speed += "-" + f + "MHz"
	}
	return catalog.JoinLabel(brandOf(r), a.String("series"),
		a.String("capacity_GB")+"GB", speed, a.String("module_type"))
}

// storageLabel renders "{brand} {series} {capacity}GB {type} {form factor}".
func storageLabel(r catalog.Record) string {
	a := r.Attributes
	if a.String("capacity_GB") == "" {
		return ""
	}
	return catalog.JoinLabel(brandOf(r), a.String("series"),
		a.String("capacity_GB")+"GB", a.String("storage_type"), a.String("form_factor"))
}

func brandOf(r catalog.Record) string {
	if b := r.Attributes.String("brand"); b != "" {
		return b
	}
	if b := r.Attributes.String("manufacturer"); b != "" {
		return b
	}
	return r.Lineage.Brand()
}
