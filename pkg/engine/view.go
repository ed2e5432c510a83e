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

package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/compat"
	"github.com/NVIDIA/server-builder/pkg/configuration"
	"github.com/NVIDIA/server-builder/pkg/registry"
	"github.com/NVIDIA/server-builder/pkg/resolver"
	"github.com/NVIDIA/server-builder/pkg/slots"
	"github.com/NVIDIA/server-builder/pkg/store"
)

// DefaultPowerWatts is the estimate shown while nothing is selected.
const DefaultPowerWatts = 374

// View is the derived state of one configuration.
type View struct {
	ID         string                    `json:"id" yaml:"id"`
	Name       string                    `json:"name" yaml:"name"`
	UpdatedAt  time.Time                 `json:"updatedAt" yaml:"updatedAt"`
	Components []configuration.Component `json:"components" yaml:"components"`
	Layout     slots.Layout              `json:"layout" yaml:"layout"`
	Issues     []compat.Issue            `json:"issues" yaml:"issues"`
	Report     compat.Report             `json:"report" yaml:"report"`
	Summary    Summary                   `json:"summary" yaml:"summary"`
	PowerWatts int                       `json:"powerWatts" yaml:"powerWatts"`
}

// Summary is the finalize check of a configuration.
type Summary struct {
	Counts  map[catalog.Category]int `json:"counts" yaml:"counts"`
	Total   int                      `json:"total" yaml:"total"`
	Missing []catalog.Category       `json:"missing" yaml:"missing"`

	// Ready is true when no critical issue remains.
	Ready bool `json:"ready" yaml:"ready"`
}

// Summarize computes the summary of cfg against the required categories.
func Summarize(cfg configuration.Reader, required []catalog.Category, report compat.Report) Summary {
	s := Summary{Counts: make(map[catalog.Category]int), Missing: []catalog.Category{}}
	for _, c := range catalog.SupportedCategories() {
		if n := cfg.Count(c); n > 0 {
			s.Counts[c] = n
			s.Total += n
		}
	}
	for _, c := range required {
		if cfg.Count(c) == 0 {
			s.Missing = append(s.Missing, c)
		}
	}
	s.Ready = !report.HasCritical()
	return s
}

// EstimatePower returns the nominal draw of cfg in watts, or
// DefaultPowerWatts when the selection draws nothing.
func EstimatePower(cfg configuration.Reader, reg *registry.Registry) int {
	total := 0
	for _, c := range reg.Categories() {
		count := cfg.Count(c)
		if count == 0 {
			continue
		}
		b, _ := reg.Get(c)
		total += b.PowerWatts * count
	}
	if total == 0 {
		return DefaultPowerWatts
	}
	return total
}

// Hydrate loads configuration id and resolves every stored reference
// against its catalog. References no record matches keep a placeholder
// label and a nil record.
func (e *Engine) Hydrate(ctx context.Context, id string) (*store.Snapshot, *configuration.Configuration, error) {
	sctx, cancel := e.storeContext(ctx)
	snap, err := e.store.GetConfiguration(sctx, id)
	cancel()
	if err != nil {
		return nil, nil, err
	}

	indexes, err := e.indexes(ctx, snap)
	if err != nil {
		return nil, nil, err
	}

	var comps []configuration.Component
	for _, c := range e.registry.Categories() {
		idx := indexes[c]
		for _, ref := range snap.Components[c] {
			comp := configuration.Component{
				Category:     c,
				ComponentID:  ref.ID,
				InstanceID:   ref.InstanceID,
				Label:        ref.Label,
				SlotPosition: ref.SlotPosition,
				Quantity:     ref.Quantity,
				AddedAt:      ref.AddedAt,
			}
			if rec, err := idx.Resolve(ref.ID); err == nil {
				comp.Record = &rec
			} else if comp.Label == "" {
				comp.Label = resolver.UnknownLabel
			}
			comps = append(comps, comp)
		}
	}

	cfg := configuration.New(snap.ID)
	cfg.Replace(comps)
	return snap, cfg, nil
}

// indexes fetches the catalogs referenced by snap in parallel.
func (e *Engine) indexes(ctx context.Context, snap *store.Snapshot) (map[catalog.Category]*resolver.Index, error) {
	var mu sync.Mutex
	out := make(map[catalog.Category]*resolver.Index)

	g, gctx := errgroup.WithContext(ctx)
	for c, refs := range snap.Components {
		if len(refs) == 0 {
			continue
		}
		if _, ok := e.registry.Get(c); !ok {
			continue
		}
		g.Go(func() error {
			recs, err := e.Records(gctx, c)
			if err != nil {
				return err
			}
			idx := resolver.NewIndex(c, recs)
			mu.Lock()
			out[c] = idx
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// View builds the derived state of configuration id.
func (e *Engine) View(ctx context.Context, id string) (*View, error) {
	start := time.Now()
	defer func() { viewDuration.Observe(time.Since(start).Seconds()) }()

	snap, cfg, err := e.Hydrate(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.derive(snap, cfg), nil
}

func (e *Engine) derive(snap *store.Snapshot, cfg *configuration.Configuration) *View {
	state := cfg.Snapshot()
	issues := e.compat.Evaluate(state, e.required)
	report := compat.Summarize(issues)

	components := state.All()
	if components == nil {
		components = []configuration.Component{}
	}
	if issues == nil {
		issues = []compat.Issue{}
	}

	return &View{
		ID:         snap.ID,
		Name:       snap.Name,
		UpdatedAt:  snap.UpdatedAt,
		Components: components,
		Layout:     slots.Allocate(capability(state), state),
		Issues:     issues,
		Report:     report,
		Summary:    Summarize(state, e.required, report),
		PowerWatts: EstimatePower(state, e.registry),
	}
}

// capability derives the slot descriptor from the first motherboard and
// chassis. A motherboard whose record is unknown yields the fallback layout.
func capability(cfg configuration.Reader) *slots.Capability {
	var board, chassis *catalog.Record
	if list := cfg.Components(catalog.CategoryMotherboard); len(list) > 0 {
		board = list[0].Record
	}
	if list := cfg.Components(catalog.CategoryChassis); len(list) > 0 {
		chassis = list[0].Record
	}
	return slots.FromRecords(board, chassis)
}
