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

package configuration

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

// Component is one selected component instance.
type Component struct {
	Category    catalog.Category `json:"category" yaml:"category"`
	ComponentID string           `json:"componentId" yaml:"componentId"`
	InstanceID  string           `json:"instanceId" yaml:"instanceId"`

	// Label is the serial number or display label of the instance.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	SlotPosition *int      `json:"slotPosition,omitempty" yaml:"slotPosition,omitempty"`
	Quantity     int       `json:"quantity" yaml:"quantity"`
	AddedAt      time.Time `json:"addedAt" yaml:"addedAt"`

	// Record is the resolved catalog record, when one was found.
	Record *catalog.Record `json:"record,omitempty" yaml:"record,omitempty"`
}

// Reader is the read side of a configuration shared by the slot allocator
// and the compatibility engine.
type Reader interface {
	// Components returns the instances of c in selection order.
	Components(c catalog.Category) []Component

	// Count returns the number of instances of c, counting quantities.
	Count(c catalog.Category) int
}

// Observer is notified with a snapshot after every successful mutation,
// while the mutation lock is still held.
type Observer func(Snapshot)

// Configuration is the aggregate owning one build's selected components.
// Mutations are serialized; reads work on copies.
type Configuration struct {
	mu         sync.RWMutex
	id         string
	components map[catalog.Category][]Component
	observers  []Observer
	now        func() time.Time
}

// Option configures a Configuration.
type Option func(*Configuration)

// WithObserver registers an observer run after every mutation.
func WithObserver(o Observer) Option {
	return func(c *Configuration) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithClock replaces the time source used for AddedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Configuration) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns an empty configuration.
func New(id string, opts ...Option) *Configuration {
	c := &Configuration{
		id:         id,
		components: make(map[catalog.Category][]Component),
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ID returns the configuration id.
func (c *Configuration) ID() string {
	return c.id
}

// Add appends a component instance. Missing quantity, instance id and
// timestamp are filled in. Categories that do not allow multiple instances
// reject a second one with STORE_OPERATION_FAILED.
func (c *Configuration) Add(comp Component) (Component, error) {
	if comp.Category == "" || comp.ComponentID == "" {
		return Component{}, cberrors.New(cberrors.ErrCodeInvalidRequest, "component category and id are required")
	}
	if comp.Quantity <= 0 {
		comp.Quantity = 1
	}
	if comp.InstanceID == "" {
		comp.InstanceID = uuid.NewString()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if comp.AddedAt.IsZero() {
		comp.AddedAt = c.now().UTC()
	}

	info := catalog.InfoFor(comp.Category)
	if !info.Multiple && (len(c.components[comp.Category]) > 0 || comp.Quantity > 1) {
		return Component{}, cberrors.NewWithContext(cberrors.ErrCodeStoreOperationFailed,
			fmt.Sprintf("%s already present, only one is allowed per configuration", info.Name),
			map[string]any{"configuration": c.id, "category": string(comp.Category)})
	}
	for _, existing := range c.components[comp.Category] {
		if existing.InstanceID == comp.InstanceID {
			return Component{}, cberrors.NewWithContext(cberrors.ErrCodeStoreOperationFailed,
				"instance already present", map[string]any{"instanceId": comp.InstanceID})
		}
	}

	c.components[comp.Category] = append(c.components[comp.Category], comp)
	c.notify()
	return comp, nil
}

// Remove deletes the instance with instanceID from category cat.
func (c *Configuration) Remove(cat catalog.Category, instanceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.components[cat]
	for i, comp := range list {
		if comp.InstanceID != instanceID {
			continue
		}
		next := make([]Component, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(c.components, cat)
		} else {
			c.components[cat] = next
		}
		c.notify()
		return nil
	}
	return cberrors.NewWithContext(cberrors.ErrCodeNotFound, "component instance not found",
		map[string]any{"configuration": c.id, "category": string(cat), "instanceId": instanceID})
}

// Replace swaps the whole component list, e.g. after loading from a store.
// The per-category cap is not enforced on loaded data.
func (c *Configuration) Replace(comps []Component) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.components = make(map[catalog.Category][]Component)
	for _, comp := range comps {
		if comp.Quantity <= 0 {
			comp.Quantity = 1
		}
		c.components[comp.Category] = append(c.components[comp.Category], comp)
	}
	c.notify()
}

// Components returns a copy of the instances of cat in selection order.
func (c *Configuration) Components(cat catalog.Category) []Component {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Component(nil), c.components[cat]...)
}

// Count returns the number of instances of cat, counting quantities.
func (c *Configuration) Count(cat catalog.Category) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return count(c.components[cat])
}

// Snapshot returns an immutable copy of the configuration.
func (c *Configuration) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

func (c *Configuration) snapshot() Snapshot {
	s := Snapshot{ID: c.id, byCategory: make(map[catalog.Category][]Component, len(c.components))}
	for cat, list := range c.components {
		s.byCategory[cat] = append([]Component(nil), list...)
	}
	return s
}

// notify runs the observers; the caller holds the write lock.
func (c *Configuration) notify() {
	if len(c.observers) == 0 {
		return
	}
	s := c.snapshot()
	for _, o := range c.observers {
		o(s)
	}
}

// Snapshot is a point-in-time copy of a configuration.
type Snapshot struct {
	ID         string
	byCategory map[catalog.Category][]Component
}

// Components returns the instances of cat in selection order.
func (s Snapshot) Components(cat catalog.Category) []Component {
	return append([]Component(nil), s.byCategory[cat]...)
}

// Count returns the number of instances of cat, counting quantities.
func (s Snapshot) Count(cat catalog.Category) int {
	return count(s.byCategory[cat])
}

// Categories returns the categories with at least one instance in
// presentation order.
func (s Snapshot) Categories() []catalog.Category {
	out := make([]catalog.Category, 0, len(s.byCategory))
	for cat, list := range s.byCategory {
		if len(list) > 0 {
			out = append(out, cat)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := catalog.Rank(out[i]), catalog.Rank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

// All returns every instance, grouped by category in presentation order.
func (s Snapshot) All() []Component {
	var out []Component
	for _, cat := range s.Categories() {
		out = append(out, s.byCategory[cat]...)
	}
	return out
}

// IsEmpty reports whether nothing is selected.
func (s Snapshot) IsEmpty() bool {
	for _, list := range s.byCategory {
		if len(list) > 0 {
			return false
		}
	}
	return true
}

func count(list []Component) int {
	n := 0
	for _, comp := range list {
		n += comp.Quantity
	}
	return n
}
