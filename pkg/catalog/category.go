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

package catalog

import (
	"fmt"
	"strings"
)

// Category identifies a component category.
type Category string

// Supported component categories.
const (
	CategoryCPU         Category = "cpu"
	CategoryMotherboard Category = "motherboard"
	CategoryRAM         Category = "ram"
	CategoryStorage     Category = "storage"
	CategoryChassis     Category = "chassis"
	CategoryCaddy       Category = "caddy"
	CategoryPCIeCard    Category = "pciecard"
	CategoryNIC         Category = "nic"
	CategoryHBACard     Category = "hbacard"
	CategorySFP         Category = "sfp"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether c is one of the supported categories.
func (c Category) IsValid() bool {
	_, ok := categoryInfo[c]
	return ok
}

// ParseCategory parses a category name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown category %q, supported values: %v", s, SupportedCategories())
	}
	return c, nil
}

// Info carries the static metadata of a category.
type Info struct {
	Category Category `json:"category" yaml:"category"`

	// Name is the human-readable category name used in issue titles.
	Name string `json:"name" yaml:"name"`

	// Multiple is false for categories capped at one instance per configuration.
	Multiple bool `json:"multiple" yaml:"multiple"`

	// Required marks categories a complete configuration must contain.
	Required bool `json:"required" yaml:"required"`
}

// categoryOrder is the canonical presentation order.
var categoryOrder = []Category{
	CategoryCPU,
	CategoryMotherboard,
	CategoryRAM,
	CategoryStorage,
	CategoryChassis,
	CategoryCaddy,
	CategoryPCIeCard,
	CategoryNIC,
	CategoryHBACard,
	CategorySFP,
}

var categoryInfo = map[Category]Info{
	CategoryCPU:         {Category: CategoryCPU, Name: "CPU", Multiple: true, Required: true},
	CategoryMotherboard: {Category: CategoryMotherboard, Name: "Motherboard", Multiple: false, Required: true},
	CategoryRAM:         {Category: CategoryRAM, Name: "Memory", Multiple: true, Required: true},
	CategoryStorage:     {Category: CategoryStorage, Name: "Storage", Multiple: true, Required: false},
	CategoryChassis:     {Category: CategoryChassis, Name: "Chassis", Multiple: false, Required: true},
	CategoryCaddy:       {Category: CategoryCaddy, Name: "Caddy", Multiple: true, Required: false},
	CategoryPCIeCard:    {Category: CategoryPCIeCard, Name: "PCI Cards", Multiple: true, Required: false},
	CategoryNIC:         {Category: CategoryNIC, Name: "Network Cards", Multiple: true, Required: false},
	CategoryHBACard:     {Category: CategoryHBACard, Name: "HBA Cards", Multiple: true, Required: false},
	CategorySFP:         {Category: CategorySFP, Name: "SFP Modules", Multiple: true, Required: false},
}

// SupportedCategories returns all categories in presentation order.
func SupportedCategories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// InfoFor returns the metadata for c. Unknown categories yield an Info whose
// Name is the raw category string and which is neither required nor capped.
func InfoFor(c Category) Info {
	if info, ok := categoryInfo[c]; ok {
		return info
	}
	return Info{Category: c, Name: string(c), Multiple: true}
}

// RequiredCategories returns the categories flagged required, in presentation order.
func RequiredCategories() []Category {
	var out []Category
	for _, c := range categoryOrder {
		if categoryInfo[c].Required {
			out = append(out, c)
		}
	}
	return out
}

// Rank returns the presentation index of c; unknown categories sort last.
func Rank(c Category) int {
	for i, o := range categoryOrder {
		if o == c {
			return i
		}
	}
	return len(categoryOrder)
}
