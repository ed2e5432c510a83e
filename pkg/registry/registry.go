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

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/NVIDIA/server-builder/pkg/cascade"
	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/slots"
)

// Behavior is everything the engine needs to know about one category.
type Behavior struct {
	Info       catalog.Info
	Normalizer catalog.Normalizer

	// Cascade is the selection definition; HasCascade is false for
	// categories selected by manual entry only.
	Cascade    cascade.Definition
	HasCascade bool

	// Slot is the slot kind instances occupy; HasSlot is false for
	// categories that are descriptor sources or not slot-bound.
	Slot    slots.Kind
	HasSlot bool

	Filters []catalog.FilterDef

	// PowerWatts is the nominal draw of one instance.
	PowerWatts int
}

// powerWatts is the nominal draw per instance used for estimates.
var powerWatts = map[catalog.Category]int{
	catalog.CategoryCPU:         150,
	catalog.CategoryMotherboard: 50,
	catalog.CategoryRAM:         10,
	catalog.CategoryStorage:     15,
	catalog.CategoryPCIeCard:    75,
	catalog.CategoryNIC:         25,
}

// DefaultBehavior assembles the built-in behavior of c.
func DefaultBehavior(c catalog.Category) Behavior {
	b := Behavior{
		Info:       catalog.InfoFor(c),
		Normalizer: catalog.DefaultNormalizer(c),
		Filters:    catalog.FiltersFor(c),
		PowerWatts: powerWatts[c],
	}
	b.Cascade, b.HasCascade = cascade.DefinitionFor(c)
	b.Slot, b.HasSlot = slots.BindingFor(c)
	return b
}

// Registry maps categories to behavior. It is safe for concurrent use.
type Registry struct {
	behaviors map[catalog.Category]Behavior
	mu        sync.RWMutex
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{behaviors: make(map[catalog.Category]Behavior)}
}

// NewDefault returns a registry holding every supported category.
func NewDefault() *Registry {
	r := New()
	for _, c := range catalog.SupportedCategories() {
		r.behaviors[c] = DefaultBehavior(c)
	}
	return r
}

// Register adds b under its category. Registering a category twice is an error.
func (r *Registry) Register(b Behavior) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := b.Info.Category
	if c == "" {
		return fmt.Errorf("behavior has no category")
	}
	if _, exists := r.behaviors[c]; exists {
		return fmt.Errorf("category %s already registered", c)
	}
	r.behaviors[c] = b
	return nil
}

// Get returns the behavior of c.
func (r *Registry) Get(c catalog.Category) (Behavior, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.behaviors[c]
	return b, ok
}

// Categories returns the registered categories in presentation order.
func (r *Registry) Categories() []catalog.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Category, 0, len(r.behaviors))
	for c := range r.behaviors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := catalog.Rank(out[i]), catalog.Rank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

// Required returns the registered required categories in presentation order.
func (r *Registry) Required() []catalog.Category {
	var out []catalog.Category
	for _, c := range r.Categories() {
		if b, _ := r.Get(c); b.Info.Required {
			out = append(out, c)
		}
	}
	return out
}

// Unregister removes c.
func (r *Registry) Unregister(c catalog.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.behaviors[c]; !ok {
		return fmt.Errorf("category %s not registered", c)
	}
	delete(r.behaviors, c)
	return nil
}

// Count returns the number of registered categories.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.behaviors)
}

// IsEmpty reports whether nothing is registered.
func (r *Registry) IsEmpty() bool {
	return r.Count() == 0
}
