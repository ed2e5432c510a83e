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
	"strconv"
	"strings"
)

// FilterKind selects how a filter matches.
type FilterKind string

const (
	// FilterRadio matches one of a fixed option list by equality or containment.
	FilterRadio FilterKind = "radio"

	// FilterRange keeps records whose value is at least the selected minimum.
	FilterRange FilterKind = "range"
)

// FilterAll disables a radio filter.
const FilterAll = "all"

// FilterDef declares one catalog filter and the attribute path it reads.
type FilterDef struct {
	Key     string     `json:"key" yaml:"key"`
	Label   string     `json:"label" yaml:"label"`
	Kind    FilterKind `json:"kind" yaml:"kind"`
	Path    string     `json:"path" yaml:"path"`
	Options []string   `json:"options,omitempty" yaml:"options,omitempty"`
	Min     float64    `json:"min,omitempty" yaml:"min,omitempty"`
	Max     float64    `json:"max,omitempty" yaml:"max,omitempty"`
	Step    float64    `json:"step,omitempty" yaml:"step,omitempty"`
	Unit    string     `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// FilterSelection maps filter keys to the chosen value. Radio filters take
// an option (or "all"); range filters take a number.
type FilterSelection map[string]string

func radio(key, label, path string, options ...string) FilterDef {
	return FilterDef{Key: key, Label: label, Kind: FilterRadio, Path: path,
		Options: append([]string{"All"}, options...)}
}

func rng(key, label, path string, minV, maxV, step float64, unit string) FilterDef {
	return FilterDef{Key: key, Label: label, Kind: FilterRange, Path: path,
		Min: minV, Max: maxV, Step: step, Unit: unit}
}

var categoryFilters = map[Category][]FilterDef{
	CategoryCPU: {
		radio("manufacturer", "MANUFACTURER", "brand", "AMD", "Intel"),
		radio("memoryType", "MEMORY TYPES", "memory_types", "DDR4", "DDR5"),
		rng("coreCount", "CORE COUNT", "cores", 1, 64, 1, ""),
		rng("baseClock", "BASE CLOCK", "base_frequency_GHz", 1.0, 5.0, 0.1, " GHz"),
		rng("maxMemoryCapacity", "MAX MEMORY CAPACITY", "max_memory_capacity_TB", 1, 32, 1, " TB"),
	},
	CategoryRAM: {
		rng("capacity", "CAPACITY (GB)", "capacity_GB", 4, 128, 4, " GB"),
		rng("speed", "SPEED", "frequency_MHz", 2133, 6000, 100, " MHz"),
		radio("type", "TYPE", "memory_type", "DDR4", "DDR5"),
		radio("formFactor", "FORM FACTOR", "form_factor", "DIMM", "SO-DIMM"),
	},
	CategoryMotherboard: {
		radio("manufacturer", "MANUFACTURER", "brand", "ASUS", "MSI", "Gigabyte", "Intel", "AMD"),
		radio("formFactor", "FORM FACTOR", "form_factor", "ATX", "Micro ATX", "Mini ITX", "E-ATX"),
		radio("memoryType", "MEMORY TYPES", "memory.type", "DDR4", "DDR5"),
		radio("socket", "SOCKET", "socket.type", "AM5", "LGA1700", "LGA1200", "AM4"),
		rng("maxMemoryCapacity", "MAX MEMORY CAPACITY", "memory.max_capacity_TB", 1, 16, 1, " TB"),
	},
	CategoryStorage: {
		radio("manufacturer", "MANUFACTURER", "brand", "Samsung", "WD", "Seagate", "Crucial", "Intel"),
		rng("capacity", "CAPACITY (GB)", "capacity_GB", 250, 20000, 250, " GB"),
		radio("type", "TYPE", "storage_type", "SSD", "HDD", "NVMe"),
		radio("interface", "INTERFACE", "interface", "SATA", "NVMe", "SAS"),
		radio("formFactor", "FORM FACTOR", "form_factor", `2.5"`, `3.5"`, "M.2"),
	},
	CategoryNIC: {
		radio("speed", "SPEED", "speed", "1 Gbps", "10 Gbps", "25 Gbps", "40 Gbps", "100 Gbps"),
		rng("ports", "PORTS", "ports", 1, 4, 1, ""),
		radio("interface", "INTERFACE", "interface", "PCIe", "USB", "Thunderbolt"),
	},
	CategoryChassis: {
		radio("manufacturer", "MANUFACTURER", "manufacturer", "Dell", "HPE", "Supermicro", "Lenovo"),
		radio("formFactor", "FORM FACTOR", "form_factor", "1U", "2U", "4U", "Tower"),
		rng("maxDrives", "MAX DRIVES", "drive_bays.total_bays", 1, 24, 1, ""),
	},
	CategoryCaddy: {
		radio("formFactor", "SIZE", "compatibility.size", `2.5"`, `3.5"`),
	},
	CategoryPCIeCard: {
		radio("manufacturer", "MANUFACTURER", "brand", "NVIDIA", "AMD", "Intel"),
		radio("interface", "INTERFACE", "interface", "PCIe 3.0", "PCIe 4.0", "PCIe 5.0"),
		radio("formFactor", "FORM FACTOR", "form_factor", "Single Slot", "Dual Slot", "Triple Slot", "Quad Slot"),
	},
	CategoryHBACard: {
		radio("protocol", "PROTOCOL", "protocol", "SAS", "SATA", "NVMe"),
		rng("maxDevice", "MAX DEVICE", "max_devices", 1, 256, 1, ""),
		radio("interface", "INTERFACE", "interface", "PCIe 3.0", "PCIe 4.0"),
		radio("dataRate", "DATA RATE", "data_rate", "6 Gb/s", "12 Gb/s", "24 Gb/s"),
	},
	CategorySFP: {
		radio("type", "TYPE", "type", "SFP", "SFP+", "SFP28", "SFP+ DAC"),
		radio("speed", "SPEED", "speed", "1Gbps", "10Gbps", "25Gbps"),
		radio("manufacturer", "MANUFACTURER", "brand", "Intel", "Cisco", "HP/HPE", "Dell", "Mellanox", "Generic"),
		radio("fiberType", "FIBER TYPE", "fiber_type", "MMF", "SMF", "Copper"),
		rng("reach", "REACH (m)", "reach_m", 1, 10000, 50, "m"),
	},
}

// FiltersFor returns the default filter definitions for c.
func FiltersFor(c Category) []FilterDef {
	src := categoryFilters[c]
	out := make([]FilterDef, len(src))
	copy(out, src)
	return out
}

// Filter returns the records passing every selected filter, keeping order.
// Filters without a selection are ignored.
func Filter(records []Record, defs []FilterDef, sel FilterSelection) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if passes(r, defs, sel) {
			out = append(out, r)
		}
	}
	return out
}

func passes(r Record, defs []FilterDef, sel FilterSelection) bool {
	for _, d := range defs {
		value, ok := sel[d.Key]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch d.Kind {
		case FilterRadio:
			if value == "" || strings.EqualFold(value, FilterAll) {
				continue
			}
			if !radioMatches(r.Attributes.Strings(d.Path), value) {
				return false
			}
		case FilterRange:
			minV, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			// non-numeric values are not excluded by a range
			if v, numeric := r.Attributes.Float(d.Path); numeric && v < minV {
				return false
			}
		}
	}
	return true
}

func radioMatches(values []string, want string) bool {
	want = strings.ToLower(want)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), want) {
			return true
		}
	}
	return false
}

// Search returns records whose display name or architecture contains query,
// case-insensitively. An empty query returns all records.
func Search(records []Record, query string) []Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		out := make([]Record, len(records))
		copy(out, records)
		return out
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.DisplayName), q) ||
			strings.Contains(strings.ToLower(r.Attributes.String("architecture")), q) {
			out = append(out, r)
		}
	}
	return out
}
