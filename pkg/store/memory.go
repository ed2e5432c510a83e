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

package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/configuration"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

type memoryEntry struct {
	name      string
	createdAt time.Time
	updatedAt time.Time
	cfg       *configuration.Configuration
}

// Memory is a process-local Store.
type Memory struct {
	mu        sync.RWMutex
	now       func() time.Time
	entries   map[string]*memoryEntry
	inventory map[string]InventoryItem
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithMemoryClock replaces the time source, for tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory returns an empty memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		now:       time.Now,
		entries:   make(map[string]*memoryEntry),
		inventory: make(map[string]InventoryItem),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// CreateConfiguration implements ConfigurationStore.
func (m *Memory) CreateConfiguration(_ context.Context, name string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	now := m.now().UTC()
	e := &memoryEntry{
		name:      name,
		createdAt: now,
		updatedAt: now,
		cfg:       configuration.New(id, configuration.WithClock(m.now)),
	}
	m.entries[id] = e
	return m.snapshot(id, e), nil
}

// ListConfigurations implements ConfigurationStore.
func (m *Memory) ListConfigurations(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, len(m.entries))
	for id, e := range m.entries {
		n := 0
		for _, comp := range e.cfg.Snapshot().All() {
			n += comp.Quantity
		}
		out = append(out, Summary{ID: id, Name: e.name, Components: n, UpdatedAt: e.updatedAt})
	}
	sortSummaries(out)
	return out, nil
}

// GetConfiguration implements ConfigurationStore.
func (m *Memory) GetConfiguration(_ context.Context, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, configurationNotFound(id)
	}
	return m.snapshot(id, e), nil
}

// AddComponent implements ConfigurationStore.
func (m *Memory) AddComponent(_ context.Context, id string, c catalog.Category, componentID string, quantity int, slotPosition *int) (Result, error) {
	if err := validateAdd(c, componentID, quantity); err != nil {
		return Result{Message: err.Error()}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return Result{Message: "configuration not found"}, configurationNotFound(id)
	}

	comp, err := e.cfg.Add(configuration.Component{
		Category:     c,
		ComponentID:  componentID,
		Label:        m.inventory[componentID].Serial,
		SlotPosition: slotPosition,
		Quantity:     quantity,
	})
	if err != nil {
		var se *cberrors.StructuredError
		if stderrors.As(err, &se) && se.Code == cberrors.ErrCodeStoreOperationFailed {
			return rejected(se.Message, se.Context)
		}
		return Result{Message: err.Error()}, err
	}

	e.updatedAt = m.now().UTC()
	return Result{Success: true, Message: fmt.Sprintf("%s added", catalog.InfoFor(c).Name), InstanceID: comp.InstanceID}, nil
}

// RemoveComponent implements ConfigurationStore.
func (m *Memory) RemoveComponent(_ context.Context, id string, c catalog.Category, instanceID string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return Result{Message: "configuration not found"}, configurationNotFound(id)
	}
	if err := e.cfg.Remove(c, instanceID); err != nil {
		return rejected("Component not found in configuration",
			map[string]any{"configuration": id, "category": string(c), "instanceId": instanceID})
	}

	e.updatedAt = m.now().UTC()
	return Result{Success: true, Message: fmt.Sprintf("%s removed", catalog.InfoFor(c).Name), InstanceID: instanceID}, nil
}

// ListInventory implements Inventory.
func (m *Memory) ListInventory(_ context.Context, c catalog.Category, status InventoryStatus) ([]InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []InventoryItem
	for _, it := range m.inventory {
		if it.Category != c || (status != "" && it.Status != status) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PutInventory implements Inventory.
func (m *Memory) PutInventory(_ context.Context, items ...InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, it := range items {
		if it.ID == "" {
			return cberrors.New(cberrors.ErrCodeInvalidRequest, "inventory item id is required")
		}
		if it.Status == "" {
			it.Status = StatusAvailable
		}
		m.inventory[it.ID] = it
	}
	return nil
}

// ClaimInventory implements Inventory.
func (m *Memory) ClaimInventory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.inventory[id]
	if !ok {
		return cberrors.NewWithContext(cberrors.ErrCodeNotFound, "inventory item not found", map[string]any{"id": id})
	}
	if it.Status != StatusAvailable {
		_, err := rejected("inventory item is not available", map[string]any{"id": id, "status": string(it.Status)})
		return err
	}
	it.Status = StatusInUse
	m.inventory[id] = it
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}

func (m *Memory) snapshot(id string, e *memoryEntry) *Snapshot {
	s := &Snapshot{
		ID:         id,
		Name:       e.name,
		CreatedAt:  e.createdAt,
		UpdatedAt:  e.updatedAt,
		Components: make(map[catalog.Category][]InventoryRef),
	}
	for _, comp := range e.cfg.Snapshot().All() {
		s.Components[comp.Category] = append(s.Components[comp.Category], InventoryRef{
			ID:           comp.ComponentID,
			Label:        comp.Label,
			Quantity:     comp.Quantity,
			SlotPosition: comp.SlotPosition,
			InstanceID:   comp.InstanceID,
			AddedAt:      comp.AddedAt,
		})
	}
	return s
}

func sortSummaries(list []Summary) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
