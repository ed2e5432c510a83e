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
	"fmt"
	"strings"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/configuration"
	"github.com/NVIDIA/server-builder/pkg/defaults"
)

// Kind is a physical slot class.
type Kind string

const (
	KindCPUSocket Kind = "cpu_socket"
	KindMemory    Kind = "memory"
	KindExpansion Kind = "expansion"
	KindCaddy     Kind = "caddy"
	KindM2        Kind = "m2"
	KindDriveBay  Kind = "drive_bay"
)

// kindOrder is the presentation order of slot kinds.
var kindOrder = []Kind{KindCPUSocket, KindMemory, KindExpansion, KindCaddy, KindM2, KindDriveBay}

// bindings maps categories to the slot kind their instances occupy, in the
// order instances are assigned within a kind.
var bindings = []struct {
	category catalog.Category
	kind     Kind
}{
	{catalog.CategoryCPU, KindCPUSocket},
	{catalog.CategoryRAM, KindMemory},
	{catalog.CategoryPCIeCard, KindExpansion},
	{catalog.CategoryHBACard, KindExpansion},
	{catalog.CategoryNIC, KindExpansion},
	{catalog.CategoryCaddy, KindCaddy},
	{catalog.CategoryStorage, KindM2},
}

// BindingFor returns the slot kind occupied by instances of c.
func BindingFor(c catalog.Category) (Kind, bool) {
	for _, b := range bindings {
		if b.category == c {
			return b.kind, true
		}
	}
	return "", false
}

// Occupant is the instance placed in a slot.
type Occupant struct {
	Category    catalog.Category `json:"category" yaml:"category"`
	ComponentID string           `json:"componentId" yaml:"componentId"`
	InstanceID  string           `json:"instanceId" yaml:"instanceId"`
	Label       string           `json:"label" yaml:"label"`
}

// Slot is one position of the layout. Slots have no identity across renders.
type Slot struct {
	Kind     Kind      `json:"kind" yaml:"kind"`
	Index    int       `json:"index" yaml:"index"`
	Label    string    `json:"label" yaml:"label"`
	HotSwap  bool      `json:"hotSwap,omitempty" yaml:"hotSwap,omitempty"`
	Occupant *Occupant `json:"occupant,omitempty" yaml:"occupant,omitempty"`
}

// Layout is the result of an allocation.
type Layout struct {
	// Fallback is set when no capability was available and generic slots
	// are shown instead.
	Fallback bool `json:"fallback" yaml:"fallback"`

	Slots []Slot `json:"slots" yaml:"slots"`

	// Unassigned holds instances that did not fit.
	Unassigned []Occupant `json:"unassigned" yaml:"unassigned"`
}

// Of returns the slots of kind k in order.
func (l Layout) Of(k Kind) []Slot {
	var out []Slot
	for _, s := range l.Slots {
		if s.Kind == k {
			out = append(out, s)
		}
	}
	return out
}

// Occupied returns the number of occupied slots of kind k.
func (l Layout) Occupied(k Kind) int {
	n := 0
	for _, s := range l.Of(k) {
		if s.Occupant != nil {
			n++
		}
	}
	return n
}

// Allocate positions the instances of cfg into the slots of capability.
// Instances are placed in selection order; an instance whose SlotPosition
// names a free slot of its kind is placed there first. Instances that do
// not fit are returned in Unassigned. Without a capability every slot-bound
// kind gets max(4, instances) generic slots.
func Allocate(capability *Capability, cfg configuration.Reader) Layout {
	byKind := instances(cfg)
	layout := Layout{Slots: []Slot{}, Unassigned: []Occupant{}}

	if capability == nil {
		layout.Fallback = true
		for _, k := range kindOrder {
			if k == KindDriveBay {
				continue
			}
			n := max(defaults.FallbackSlotCount, len(byKind[k]))
			slots := make([]Slot, n)
			for i := range slots {
				slots[i] = Slot{Kind: k, Index: i + 1, Label: fallbackLabel(k, i+1)}
			}
			layout.Slots = append(layout.Slots, fill(slots, byKind[k], &layout.Unassigned)...)
		}
		return layout
	}

	for _, k := range kindOrder {
		slots := build(capability, k)
		layout.Slots = append(layout.Slots, fill(slots, byKind[k], &layout.Unassigned)...)
	}
	return layout
}

type placed struct {
	occupant Occupant
	position int
}

// instances expands the components of cfg by quantity, grouped by slot kind
// in binding order.
func instances(cfg configuration.Reader) map[Kind][]placed {
	out := make(map[Kind][]placed)
	if cfg == nil {
		return out
	}
	for _, b := range bindings {
		for _, comp := range cfg.Components(b.category) {
			occ := Occupant{
				Category:    comp.Category,
				ComponentID: comp.ComponentID,
				InstanceID:  comp.InstanceID,
				Label:       occupantLabel(comp),
			}
			pos := 0
			if comp.SlotPosition != nil {
				pos = *comp.SlotPosition
			}
			for q := 0; q < max(1, comp.Quantity); q++ {
				out[b.kind] = append(out[b.kind], placed{occupant: occ, position: pos})
				// only the first unit of a multi-quantity entry keeps the position
				pos = 0
			}
		}
	}
	return out
}

func occupantLabel(c configuration.Component) string {
	switch {
	case c.Label != "":
		return c.Label
	case c.Record != nil && c.Record.DisplayName != "":
		return c.Record.DisplayName
	default:
		return c.ComponentID
	}
}

// fill places items into slots and appends the overflow to unassigned.
func fill(slots []Slot, items []placed, unassigned *[]Occupant) []Slot {
	pending := make([]placed, 0, len(items))
	for _, it := range items {
		i := it.position - 1
		if i >= 0 && i < len(slots) && slots[i].Occupant == nil {
			occ := it.occupant
			slots[i].Occupant = &occ
			continue
		}
		pending = append(pending, it)
	}

	next := 0
	for _, it := range pending {
		for next < len(slots) && slots[next].Occupant != nil {
			next++
		}
		if next >= len(slots) {
			*unassigned = append(*unassigned, it.occupant)
			continue
		}
		occ := it.occupant
		slots[next].Occupant = &occ
	}
	return slots
}

func build(c *Capability, k Kind) []Slot {
	var out []Slot
	add := func(label string, hotSwap bool) {
		out = append(out, Slot{Kind: k, Index: len(out) + 1, Label: label, HotSwap: hotSwap})
	}

	switch k {
	case KindCPUSocket:
		for i := 1; i <= c.Sockets; i++ {
			label := fmt.Sprintf("CPU Socket %d", i)
			if c.Sockets == 1 {
				label = "CPU Socket"
			}
			add(withType(label, c.SocketType), false)
		}
	case KindMemory:
		for i := 1; i <= c.MemorySlots; i++ {
			add(withType(fmt.Sprintf("RAM %d", i), c.MemoryType), false)
		}
	case KindExpansion:
		for _, g := range c.Expansion {
			for j := 0; j < g.Count; j++ {
				add(catalog.JoinLabel(g.Type, fmt.Sprintf("Slot %d", len(out)+1)), false)
			}
		}
	case KindCaddy:
		for _, s := range c.Caddies {
			name := s.Type
			if name == "" {
				name = "Caddy"
			}
			add(withType(fmt.Sprintf("%s Socket %d", name, len(out)+1), s.Size), false)
		}
	case KindM2:
		for _, g := range c.M2 {
			ff := strings.Join(g.FormFactors, "/")
			if ff == "" {
				ff = "M.2"
			}
			for j := 0; j < g.Count; j++ {
				add(fmt.Sprintf("M.2 Slot %d (%s)", len(out)+1, ff), false)
			}
		}
	case KindDriveBay:
		for _, g := range c.DriveBays {
			for j := 0; j < g.Count; j++ {
				add(catalog.JoinLabel(g.Type, fmt.Sprintf("Bay %d", len(out)+1)), g.HotSwap)
			}
		}
	}
	return out
}

// withType appends " (t)" when t is set.
func withType(label, t string) string {
	if t == "" {
		return label
	}
	return label + " (" + t + ")"
}

func fallbackLabel(k Kind, n int) string {
	switch k {
	case KindCPUSocket:
		return fmt.Sprintf("CPU Socket %d", n)
	case KindMemory:
		return fmt.Sprintf("RAM %d", n)
	case KindExpansion:
		return fmt.Sprintf("Expansion Slot %d", n)
	case KindCaddy:
		return fmt.Sprintf("Caddy Socket %d", n)
	case KindM2:
		return fmt.Sprintf("M.2 Slot %d", n)
	default:
		return fmt.Sprintf("Slot %d", n)
	}
}
