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

	"github.com/NVIDIA/server-builder/pkg/cascade"
	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

// CascadeRequest replays a cascade from scratch.
type CascadeRequest struct {
	Category catalog.Category `json:"category" yaml:"category"`

	// Choices are the values picked at levels 0..len-1.
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`

	// RecordID resolves the terminal level when set.
	RecordID string `json:"recordId,omitempty" yaml:"recordId,omitempty"`
}

// Cascade returns the selector state after applying req. Invalid choices
// fail with MALFORMED_CASCADE_SELECTION.
func (e *Engine) Cascade(ctx context.Context, req CascadeRequest) (cascade.State, error) {
	def, err := e.definition(req.Category)
	if err != nil {
		return cascade.State{}, err
	}
	recs, err := e.Records(ctx, req.Category)
	if err != nil {
		return cascade.State{}, err
	}

	sel, err := cascade.Replay(def, recs, req.Choices)
	if err != nil {
		return cascade.State{}, err
	}
	if req.RecordID != "" {
		if _, err := sel.Resolve(req.RecordID); err != nil {
			return cascade.State{}, err
		}
	}
	return sel.State(), nil
}

// Session returns a loaded cascade session for interactive callers.
func (e *Engine) Session(ctx context.Context, c catalog.Category) (*cascade.Session, error) {
	def, err := e.definition(c)
	if err != nil {
		return nil, err
	}
	s := cascade.NewSession(def)
	t := s.Begin(cascade.CatalogLevel)

	recs, err := e.Records(ctx, c)
	if err != nil {
		return nil, err
	}
	if _, err := s.Load(t, recs); err != nil {
		return nil, err
	}
	return s, nil
}

func (e *Engine) definition(c catalog.Category) (cascade.Definition, error) {
	b, err := e.behavior(c)
	if err != nil {
		return cascade.Definition{}, err
	}
	if !b.HasCascade {
		return cascade.Definition{}, cberrors.NewWithContext(cberrors.ErrCodeInvalidRequest,
			fmt.Sprintf("category %s has no cascade", c), map[string]any{"category": string(c)})
	}
	return b.Cascade, nil
}
