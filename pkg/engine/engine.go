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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NVIDIA/server-builder/pkg/cache"
	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/compat"
	"github.com/NVIDIA/server-builder/pkg/defaults"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
	"github.com/NVIDIA/server-builder/pkg/registry"
	"github.com/NVIDIA/server-builder/pkg/slots"
	"github.com/NVIDIA/server-builder/pkg/source"
	"github.com/NVIDIA/server-builder/pkg/store"
)

// Engine ties a catalog source and a configuration store to the category
// registry. It is safe for concurrent use.
type Engine struct {
	source   source.CatalogSource
	store    store.ConfigurationStore
	registry *registry.Registry
	compat   *compat.Engine
	required []catalog.Category
	records  *cache.Cache[catalog.Category, []catalog.Record]

	fetchTimeout time.Duration
	storeTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type settings struct {
	registry     *registry.Registry
	rules        []compat.Rule
	required     []catalog.Category
	cacheTTL     time.Duration
	clock        func() time.Time
	fetchTimeout time.Duration
	storeTimeout time.Duration
}

// Option configures an Engine.
type Option func(*settings)

// WithRegistry replaces the default category registry.
func WithRegistry(r *registry.Registry) Option {
	return func(s *settings) {
		s.registry = r
	}
}

// WithRules adds structural rules to the built-in ones.
func WithRules(rules ...compat.Rule) Option {
	return func(s *settings) {
		s.rules = append(s.rules, rules...)
	}
}

// WithRequired overrides the required categories.
func WithRequired(categories ...catalog.Category) Option {
	return func(s *settings) {
		s.required = append([]catalog.Category(nil), categories...)
	}
}

// WithCacheTTL sets how long normalized catalogs are kept. Non-positive
// values keep them until invalidated.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.cacheTTL = ttl
	}
}

// WithClock replaces the time source of the catalog cache.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.clock = now
	}
}

// WithTimeouts sets the per call catalog fetch and store timeouts.
func WithTimeouts(fetch, store time.Duration) Option {
	return func(s *settings) {
		if fetch > 0 {
			s.fetchTimeout = fetch
		}
		if store > 0 {
			s.storeTimeout = store
		}
	}
}

// New returns an engine over src and st.
func New(src source.CatalogSource, st store.ConfigurationStore, opts ...Option) *Engine {
	s := settings{
		cacheTTL:     defaults.CatalogCacheTTL,
		clock:        time.Now,
		fetchTimeout: defaults.CatalogFetchTimeout,
		storeTimeout: defaults.StoreOperationTimeout,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.registry == nil {
		s.registry = registry.NewDefault()
	}
	if s.required == nil {
		s.required = s.registry.Required()
	}

	return &Engine{
		source:       src,
		store:        st,
		registry:     s.registry,
		compat:       compat.NewEngine(append(compat.DefaultRules(), s.rules...)...),
		required:     s.required,
		records:      cache.New[catalog.Category, []catalog.Record](s.cacheTTL, cache.WithName("catalog"), cache.WithClock(s.clock)),
		fetchTimeout: s.fetchTimeout,
		storeTimeout: s.storeTimeout,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Registry returns the category registry of the engine.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Rules returns the compatibility engine.
func (e *Engine) Rules() *compat.Engine {
	return e.compat
}

// Required returns the required categories.
func (e *Engine) Required() []catalog.Category {
	return append([]catalog.Category(nil), e.required...)
}

func (e *Engine) behavior(c catalog.Category) (registry.Behavior, error) {
	b, ok := e.registry.Get(c)
	if !ok {
		return registry.Behavior{}, cberrors.NewWithContext(cberrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported category %q", c), map[string]any{"category": string(c)})
	}
	return b, nil
}

// Records returns the normalized records of c. An unavailable catalog
// yields an empty set; only an unknown category is an error.
func (e *Engine) Records(ctx context.Context, c catalog.Category) ([]catalog.Record, error) {
	b, err := e.behavior(c)
	if err != nil {
		return nil, err
	}

	recs, err := e.records.GetOrLoad(ctx, c, func(ctx context.Context) ([]catalog.Record, error) {
		return e.load(ctx, b)
	})
	if err != nil {
		if cberrors.HasCode(err, cberrors.ErrCodeCatalogUnavailable) {
			catalogDegraded.WithLabelValues(string(c)).Inc()
			slog.Debug("catalog unavailable, falling back to manual entry", "category", c, "error", err)
			return []catalog.Record{}, nil
		}
		return nil, err
	}
	return recs, nil
}

func (e *Engine) load(ctx context.Context, b registry.Behavior) ([]catalog.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	doc, err := e.source.FetchCatalog(ctx, b.Info.Category)
	if err != nil {
		if !cberrors.HasCode(err, cberrors.ErrCodeCatalogUnavailable) {
			err = cberrors.Wrap(cberrors.ErrCodeCatalogUnavailable, "catalog fetch failed", err)
		}
		return nil, err
	}

	start := time.Now()
	recs := b.Normalizer.Normalize(doc)
	normalizeDuration.WithLabelValues(string(b.Info.Category)).Observe(time.Since(start).Seconds())

	if len(recs) == 0 {
		slog.Debug("catalog shape not recognized",
			"category", b.Info.Category, "shape", catalog.DetectShape(b.Info.Category, doc).Kind)
	}
	return recs, nil
}

// CatalogQuery narrows the records of a category.
type CatalogQuery struct {
	Category catalog.Category
	Filters  catalog.FilterSelection
	Search   string
}

// CatalogResult is a filtered record listing.
type CatalogResult struct {
	Category catalog.Category    `json:"category" yaml:"category"`
	Total    int                 `json:"total" yaml:"total"`
	Filters  []catalog.FilterDef `json:"filters" yaml:"filters"`
	Records  []catalog.Record    `json:"records" yaml:"records"`
}

// Catalog returns the records of q.Category passing its filters and search.
func (e *Engine) Catalog(ctx context.Context, q CatalogQuery) (*CatalogResult, error) {
	b, err := e.behavior(q.Category)
	if err != nil {
		return nil, err
	}
	recs, err := e.Records(ctx, q.Category)
	if err != nil {
		return nil, err
	}

	out := catalog.Filter(recs, b.Filters, q.Filters)
	if q.Search != "" {
		out = catalog.Search(out, q.Search)
	}
	if out == nil {
		out = []catalog.Record{}
	}
	return &CatalogResult{Category: q.Category, Total: len(recs), Filters: b.Filters, Records: out}, nil
}

// Invalidate drops the cached records of c.
func (e *Engine) Invalidate(c catalog.Category) {
	e.records.Invalidate(c)
}

// InvalidateAll drops every cached catalog.
func (e *Engine) InvalidateAll() {
	e.records.InvalidateAll()
}

// Paths returns every attribute path the registered cascades, the slot
// allocator and the compatibility rules read.
func (e *Engine) Paths() []catalog.PathRef {
	var out []catalog.PathRef
	for _, c := range e.registry.Categories() {
		if b, _ := e.registry.Get(c); b.HasCascade {
			out = append(out, b.Cascade.Refs()...)
		}
	}
	out = append(out, slots.Refs()...)
	out = append(out, e.compat.Paths()...)
	return out
}

func (e *Engine) lock(id string) func() {
	e.mu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.storeTimeout)
}
