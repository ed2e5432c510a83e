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
	"fmt"
	"time"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

// InventoryRef is one component instance referenced by a configuration.
type InventoryRef struct {
	// ID is the catalog record id of the component.
	ID string `json:"id" yaml:"id"`

	// Label is the serial number or display label, when known.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	Quantity     int       `json:"quantity" yaml:"quantity"`
	SlotPosition *int      `json:"slotPosition,omitempty" yaml:"slotPosition,omitempty"`
	InstanceID   string    `json:"instanceId" yaml:"instanceId"`
	AddedAt      time.Time `json:"addedAt" yaml:"addedAt"`
}

// Snapshot is the stored state of one configuration.
type Snapshot struct {
	ID         string                              `json:"id" yaml:"id"`
	Name       string                              `json:"name" yaml:"name"`
	CreatedAt  time.Time                           `json:"createdAt" yaml:"createdAt"`
	UpdatedAt  time.Time                           `json:"updatedAt" yaml:"updatedAt"`
	Components map[catalog.Category][]InventoryRef `json:"components" yaml:"components"`
}

// Count returns the number of instances of c, counting quantities.
func (s *Snapshot) Count(c catalog.Category) int {
	n := 0
	for _, ref := range s.Components[c] {
		n += ref.Quantity
	}
	return n
}

// Summary is the listing form of a configuration.
type Summary struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Components int       `json:"components" yaml:"components"`
	UpdatedAt  time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Result reports the outcome of a mutation.
type Result struct {
	Success    bool   `json:"success" yaml:"success"`
	Message    string `json:"message" yaml:"message"`
	InstanceID string `json:"instanceId,omitempty" yaml:"instanceId,omitempty"`
}

// ConfigurationStore persists configurations.
type ConfigurationStore interface {
	// CreateConfiguration creates an empty configuration.
	CreateConfiguration(ctx context.Context, name string) (*Snapshot, error)

	// ListConfigurations returns every configuration, most recently updated first.
	ListConfigurations(ctx context.Context) ([]Summary, error)

	// GetConfiguration returns the configuration id, or NOT_FOUND.
	GetConfiguration(ctx context.Context, id string) (*Snapshot, error)

	// AddComponent appends an instance of componentID. Categories allowing a
	// single instance reject a second one.
	AddComponent(ctx context.Context, id string, c catalog.Category, componentID string, quantity int, slotPosition *int) (Result, error)

	// RemoveComponent deletes the instance instanceID.
	RemoveComponent(ctx context.Context, id string, c catalog.Category, instanceID string) (Result, error)
}

// InventoryStatus is the availability of an inventory item.
type InventoryStatus string

const (
	StatusAvailable InventoryStatus = "available"
	StatusInUse     InventoryStatus = "in_use"
)

// InventoryItem is one physical component. ID doubles as the catalog record
// id, matching catalogs that carry inventory.UUID.
type InventoryItem struct {
	ID       string           `json:"id" yaml:"id"`
	Category catalog.Category `json:"category" yaml:"category"`
	Name     string           `json:"name,omitempty" yaml:"name,omitempty"`
	Model    string           `json:"model,omitempty" yaml:"model,omitempty"`
	Serial   string           `json:"serial,omitempty" yaml:"serial,omitempty"`
	Status   InventoryStatus  `json:"status" yaml:"status"`
}

// Inventory tracks physical items.
type Inventory interface {
	// ListInventory returns the items of c with status, or all items of c
	// when status is empty, ordered by id.
	ListInventory(ctx context.Context, c catalog.Category, status InventoryStatus) ([]InventoryItem, error)

	// PutInventory inserts or replaces items.
	PutInventory(ctx context.Context, items ...InventoryItem) error

	// ClaimInventory marks an available item as in use. Claiming an item
	// twice fails with STORE_OPERATION_FAILED.
	ClaimInventory(ctx context.Context, id string) error
}

// Store is a configuration store with inventory.
type Store interface {
	ConfigurationStore
	Inventory

	// Close releases the underlying resources.
	Close() error
}

func configurationNotFound(id string) error {
	return cberrors.NewWithContext(cberrors.ErrCodeNotFound,
		fmt.Sprintf("configuration %s not found", id), map[string]any{"configuration": id})
}

func rejected(message string, ctx map[string]any) (Result, error) {
	storeRejections.Inc()
	return Result{Success: false, Message: message},
		cberrors.NewWithContext(cberrors.ErrCodeStoreOperationFailed, message, ctx)
}

func singleInstanceMessage(c catalog.Category) string {
	return fmt.Sprintf("%s already present, only one is allowed per configuration", catalog.InfoFor(c).Name)
}

func validateAdd(c catalog.Category, componentID string, quantity int) error {
	if !c.IsValid() {
		return cberrors.New(cberrors.ErrCodeInvalidRequest, fmt.Sprintf("unsupported category %q", c))
	}
	if componentID == "" {
		return cberrors.New(cberrors.ErrCodeInvalidRequest, "component id is required")
	}
	if quantity < 0 {
		return cberrors.New(cberrors.ErrCodeInvalidRequest, "quantity must not be negative")
	}
	return nil
}
