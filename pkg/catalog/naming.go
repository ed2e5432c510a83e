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
	"strconv"
	"strings"
)

// Namer derives a display name from a record's attributes. It must never
// return an empty string.
type Namer func(c Category, attrs *Attributes) string

// DefaultNamer returns the display-name rule for c.
func DefaultNamer(c Category) Namer {
	switch c {
	case CategoryRAM:
		return nameMemory
	case CategoryStorage:
		return nameStorage
	default:
		return nameGeneric
	}
}

// FallbackName is the generic label used when no naming attribute is present.
func FallbackName(c Category) string {
	if c == "" {
		return "component"
	}
	return string(c) + " component"
}

// nameMemory renders "{brand} {series} {capacity}GB {type}-{speed}MHz {module}"
// when the lineage is known, else "{memory_type} {capacity_GB}GB {module_type|DIMM}".
func nameMemory(c Category, a *Attributes) string {
	memType := a.String("memory_type")
	capacity := a.String("capacity_GB")
	if memType == "" || capacity == "" {
		return nameGeneric(c, a)
	}
	module := a.String("module_type")
	brand, series := brandOf(a), a.String("series")
	if brand != "" || series != "" {
		speed := memType
		if f := a.String("frequency_MHz"); f != "" {
			speed = memType + "-" + f + "MHz"
		}
		return joinNonEmpty(brand, series, capacity+"GB", speed, module)
	}
	if module == "" {
		module = "DIMM"
	}
	return fmt.Sprintf("%s %sGB %s", memType, capacity, module)
}

// nameStorage renders brand, series, capacity, storage type and form factor.
// Without brand and series it falls back to "{subtype|storage_type} {capacity}".
func nameStorage(c Category, a *Attributes) string {
	gb, ok := a.Float("capacity_GB")
	if !ok {
		return nameGeneric(c, a)
	}
	brand, series := brandOf(a), a.String("series")
	if brand == "" && series == "" {
		kind := a.String("subtype")
		if kind == "" {
			kind = a.String("storage_type")
		}
		if kind == "" {
			return nameGeneric(c, a)
		}
		return kind + " " + FormatCapacity(gb)
	}
	return joinNonEmpty(brand, series, a.String("capacity_GB")+"GB",
		a.String("storage_type"), a.String("form_factor"))
}

// nameGeneric prefers model, then name, then the fallback label.
func nameGeneric(c Category, a *Attributes) string {
	for _, k := range []string{"model", "name"} {
		if s := strings.TrimSpace(a.String(k)); s != "" {
			return s
		}
	}
	return FallbackName(c)
}

func brandOf(a *Attributes) string {
	if b := a.String("brand"); b != "" {
		return b
	}
	return a.String("manufacturer")
}

// FormatCapacity renders a capacity in GB, switching to one-decimal TB at 1000 GB.
func FormatCapacity(gb float64) string {
	if gb >= 1000 {
		return fmt.Sprintf("%.1fTB", gb/1000)
	}
	return strconv.FormatFloat(gb, 'f', -1, 64) + "GB"
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// JoinLabel joins the non-empty parts with single spaces.
func JoinLabel(parts ...string) string {
	return joinNonEmpty(parts...)
}
