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

package slots

import (
	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/defaults"
)

// Attribute paths read from the motherboard and chassis records.
const (
	PathSocketCount  = "socket.count"
	PathSocketType   = "socket.type"
	PathMemorySlots  = "memory.slots"
	PathMemoryType   = "memory.type"
	PathPCIeSlots    = "expansion_slots.pcie_slots"
	PathCaddySockets = "caddy_sockets"
	PathM2Slots      = "storage.nvme.m2_slots"
	PathBayConfig    = "drive_bays.bay_configuration"
)

// ExpansionGroup is a run of identical expansion slots.
type ExpansionGroup struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

// CaddySocket is one caddy position on the board.
type CaddySocket struct {
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	Size string `json:"size,omitempty" yaml:"size,omitempty"`
}

// M2Group is a run of M.2 slots sharing form factors.
type M2Group struct {
	Count       int      `json:"count" yaml:"count"`
	FormFactors []string `json:"formFactors,omitempty" yaml:"formFactors,omitempty"`
}

// BayGroup is a run of chassis drive bays.
type BayGroup struct {
	Type    string `json:"type" yaml:"type"`
	Count   int    `json:"count" yaml:"count"`
	HotSwap bool   `json:"hotSwap" yaml:"hotSwap"`
}

// Capability is the slot inventory of a motherboard and optional chassis.
type Capability struct {
	Sockets     int              `json:"sockets" yaml:"sockets"`
	SocketType  string           `json:"socketType,omitempty" yaml:"socketType,omitempty"`
	MemorySlots int              `json:"memorySlots" yaml:"memorySlots"`
	MemoryType  string           `json:"memoryType,omitempty" yaml:"memoryType,omitempty"`
	Expansion   []ExpansionGroup `json:"expansion,omitempty" yaml:"expansion,omitempty"`
	Caddies     []CaddySocket    `json:"caddies,omitempty" yaml:"caddies,omitempty"`
	M2          []M2Group        `json:"m2,omitempty" yaml:"m2,omitempty"`
	DriveBays   []BayGroup       `json:"driveBays,omitempty" yaml:"driveBays,omitempty"`
}

// Refs returns the attribute paths a capability is derived from.
func Refs() []catalog.PathRef {
	mb := func(path string, t catalog.ValueType) catalog.PathRef {
		return catalog.PathRef{Category: catalog.CategoryMotherboard, Path: path, Type: t, Owner: "slot capability"}
	}
	return []catalog.PathRef{
		mb(PathSocketCount, catalog.TypeNumber),
		mb(PathSocketType, catalog.TypeString),
		mb(PathMemorySlots, catalog.TypeNumber),
		mb(PathMemoryType, catalog.TypeAny),
		mb(PathPCIeSlots, catalog.TypeArray),
		mb(PathCaddySockets, catalog.TypeArray),
		mb(PathM2Slots, catalog.TypeArray),
		{Category: catalog.CategoryChassis, Path: PathBayConfig, Type: catalog.TypeArray, Owner: "slot capability"},
	}
}

// FromRecords derives the capability of a motherboard and optional chassis.
// It returns nil without a motherboard.
func FromRecords(motherboard, chassis *catalog.Record) *Capability {
	if motherboard == nil {
		return nil
	}
	a := motherboard.Attributes

	c := &Capability{
		Sockets:     positive(a, PathSocketCount, defaults.DefaultSocketCount),
		SocketType:  a.String(PathSocketType),
		MemorySlots: positive(a, PathMemorySlots, defaults.DefaultMemorySlots),
		MemoryType:  a.String(PathMemoryType),
	}

	for _, g := range a.Objects(PathPCIeSlots) {
		if n, ok := slotCount(g, "count"); ok {
			c.Expansion = append(c.Expansion, ExpansionGroup{Type: g.String("type"), Count: n})
		}
	}
	for _, s := range a.Objects(PathCaddySockets) {
		c.Caddies = append(c.Caddies, CaddySocket{Type: s.String("type"), Size: s.String("size")})
	}
	for _, g := range a.Objects(PathM2Slots) {
		if n, ok := slotCount(g, "count"); ok {
			c.M2 = append(c.M2, M2Group{Count: n, FormFactors: g.Strings("form_factors")})
		}
	}

	if chassis != nil {
		for _, b := range chassis.Attributes.Objects(PathBayConfig) {
			if n, ok := slotCount(b, "count"); ok {
				c.DriveBays = append(c.DriveBays, BayGroup{
					Type:    b.String("bay_type"),
					Count:   n,
					HotSwap: b.Bool("hot_swap"),
				})
			}
		}
	}
	return c
}

func positive(a *catalog.Attributes, path string, def int) int {
	if n, ok := slotCount(a, path); ok {
		return n
	}
	return def
}

// slotCount reads a positive count at path, capped at defaults.MaxSlotCount.
func slotCount(a *catalog.Attributes, path string) (int, bool) {
	f, ok := a.Float(path)
	if !ok || !(f >= 1) {
		return 0, false
	}
	if f > defaults.MaxSlotCount {
		return defaults.MaxSlotCount, true
	}
	return int(f), true
}
