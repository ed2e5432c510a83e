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

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
	"github.com/NVIDIA/server-builder/pkg/resolver"
	"github.com/NVIDIA/server-builder/pkg/store"
)

// AddRequest adds component instances to a configuration.
type AddRequest struct {
	ConfigurationID string           `json:"configurationId" yaml:"configurationId"`
	Category        catalog.Category `json:"category" yaml:"category"`
	ComponentID     string           `json:"componentId" yaml:"componentId"`
	Quantity        int              `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	SlotPosition    *int             `json:"slotPosition,omitempty" yaml:"slotPosition,omitempty"`
}

// RemoveRequest removes one instance from a configuration.
type RemoveRequest struct {
	ConfigurationID string           `json:"configurationId" yaml:"configurationId"`
	Category        catalog.Category `json:"category" yaml:"category"`
	InstanceID      string           `json:"instanceId" yaml:"instanceId"`
}

// MutationResult is the store outcome and, on success, the view after it.
type MutationResult struct {
	store.Result `yaml:",inline"`

	View *View `json:"view,omitempty" yaml:"view,omitempty"`
}

// Create creates an empty configuration.
func (e *Engine) Create(ctx context.Context, name string) (*store.Snapshot, error) {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()
	return e.store.CreateConfiguration(ctx, name)
}

// List returns every stored configuration.
func (e *Engine) List(ctx context.Context) ([]store.Summary, error) {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()
	return e.store.ListConfigurations(ctx)
}

// Add stores a new instance and returns the rebuilt view. A rejection by
// the store is returned as a failed result together with its error.
func (e *Engine) Add(ctx context.Context, req AddRequest) (*MutationResult, error) {
	if _, err := e.behavior(req.Category); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	if req.SlotPosition != nil && *req.SlotPosition < 1 {
		return nil, cberrors.New(cberrors.ErrCodeInvalidRequest, "slot position must be 1 or greater")
	}

	recs, err := e.Records(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	// manual entry accepts any id when the category has no catalog
	if len(recs) > 0 {
		if _, err := resolver.Resolve(req.Category, req.ComponentID, recs); err != nil {
			mutations.WithLabelValues("add", "not_found").Inc()
			return nil, err
		}
	}

	unlock := e.lock(req.ConfigurationID)
	defer unlock()

	sctx, cancel := e.storeContext(ctx)
	res, err := e.store.AddComponent(sctx, req.ConfigurationID, req.Category, req.ComponentID, req.Quantity, req.SlotPosition)
	cancel()
	if err != nil {
		mutations.WithLabelValues("add", outcome(err)).Inc()
		if cberrors.HasCode(err, cberrors.ErrCodeStoreOperationFailed) {
			return &MutationResult{Result: res}, err
		}
		return nil, err
	}
	mutations.WithLabelValues("add", "success").Inc()
	slog.Debug("component added",
		"configuration", req.ConfigurationID, "category", req.Category,
		"component", req.ComponentID, "instance", res.InstanceID)

	return e.afterMutation(ctx, req.ConfigurationID, res)
}

// Remove deletes an instance and returns the rebuilt view.
func (e *Engine) Remove(ctx context.Context, req RemoveRequest) (*MutationResult, error) {
	if _, err := e.behavior(req.Category); err != nil {
		return nil, err
	}
	if req.InstanceID == "" {
		return nil, cberrors.New(cberrors.ErrCodeInvalidRequest, "instance id is required")
	}

	unlock := e.lock(req.ConfigurationID)
	defer unlock()

	sctx, cancel := e.storeContext(ctx)
	res, err := e.store.RemoveComponent(sctx, req.ConfigurationID, req.Category, req.InstanceID)
	cancel()
	if err != nil {
		mutations.WithLabelValues("remove", outcome(err)).Inc()
		if cberrors.HasCode(err, cberrors.ErrCodeStoreOperationFailed) {
			return &MutationResult{Result: res}, err
		}
		return nil, err
	}
	mutations.WithLabelValues("remove", "success").Inc()

	return e.afterMutation(ctx, req.ConfigurationID, res)
}

func (e *Engine) afterMutation(ctx context.Context, id string, res store.Result) (*MutationResult, error) {
	snap, cfg, err := e.Hydrate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild view after mutation: %w", err)
	}
	return &MutationResult{Result: res, View: e.derive(snap, cfg)}, nil
}

func outcome(err error) string {
	if cberrors.HasCode(err, cberrors.ErrCodeStoreOperationFailed) {
		return "rejected"
	}
	return "error"
}
