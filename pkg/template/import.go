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

package template

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/engine"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
	"github.com/NVIDIA/server-builder/pkg/header"
	"github.com/NVIDIA/server-builder/pkg/store"
)

// Skip reasons.
const (
	ReasonMissingModel = "Missing model info in template"
	ReasonOutOfStock   = "Out of Stock / Not Available"
	ReasonUnsupported  = "Unsupported component type"
	reasonAPIError     = "API Error: "
)

// UnknownModel is reported for items without any model key.
const UnknownModel = "Unknown"

// Added is one unit placed into the configuration.
type Added struct {
	Category    string `json:"type" yaml:"type"`
	Model       string `json:"model" yaml:"model"`
	InventoryID string `json:"uuid" yaml:"uuid"`
	InstanceID  string `json:"instanceId" yaml:"instanceId"`
}

// Skipped is one unit that could not be placed.
type Skipped struct {
	Category string `json:"type" yaml:"type"`
	Model    string `json:"model" yaml:"model"`
	Reason   string `json:"reason" yaml:"reason"`
}

// Report is the outcome of an import.
type Report struct {
	header.Header `yaml:",inline"`

	ConfigurationID string    `json:"configurationId" yaml:"configurationId"`
	Template        string    `json:"template,omitempty" yaml:"template,omitempty"`
	Added           []Added   `json:"added" yaml:"added"`
	Skipped         []Skipped `json:"skipped" yaml:"skipped"`
	DurationMs      int64     `json:"durationMs" yaml:"durationMs"`
}

// Importer places template items into configurations.
type Importer struct {
	engine    *engine.Engine
	inventory store.Inventory
}

// NewImporter returns an importer adding through eng and claiming from inv.
func NewImporter(eng *engine.Engine, inv store.Inventory) *Importer {
	return &Importer{engine: eng, inventory: inv}
}

// Import adds the items of t to configuration id. Per item failures are
// reported in Skipped; the error is reserved for a cancelled context.
func (im *Importer) Import(ctx context.Context, id string, t *Template) (*Report, error) {
	start := time.Now()
	r := &Report{ConfigurationID: id, Template: t.Name, Added: []Added{}, Skipped: []Skipped{}}
	r.Init(header.KindImportReport, header.APIVersion, "")

	for _, key := range t.Categories() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		im.importCategory(ctx, id, key, t.Components[key], r)
	}

	r.DurationMs = time.Since(start).Milliseconds()
	slog.Debug("template imported",
		"configuration", id, "template", t.Name,
		"added", len(r.Added), "skipped", len(r.Skipped), "duration_ms", r.DurationMs)
	return r, nil
}

func (im *Importer) importCategory(ctx context.Context, id, key string, items []Item, r *Report) {
	if len(items) == 0 {
		return
	}

	c := catalog.Category(key)
	if _, ok := im.engine.Registry().Get(c); !ok {
		for _, it := range items {
			model := it.Key()
			if model == "" {
				model = UnknownModel
			}
			r.Skipped = append(r.Skipped, Skipped{Category: key, Model: model, Reason: ReasonUnsupported})
		}
		return
	}

	available, err := im.inventory.ListInventory(ctx, c, store.StatusAvailable)
	if err != nil {
		slog.Warn("failed to list inventory", "category", c, "error", err)
		available = nil
	}

	for _, it := range items {
		model := it.Key()
		if model == "" {
			r.Skipped = append(r.Skipped, Skipped{Category: key, Model: UnknownModel, Reason: ReasonMissingModel})
			continue
		}

		position := it.SlotPosition
		for u := 0; u < it.Units(); u++ {
			idx := match(available, model)
			if idx < 0 {
				r.Skipped = append(r.Skipped, Skipped{Category: key, Model: model, Reason: ReasonOutOfStock})
				continue
			}
			inv := available[idx]

			res, err := im.engine.Add(ctx, engine.AddRequest{
				ConfigurationID: id,
				Category:        c,
				ComponentID:     inv.ID,
				Quantity:        1,
				SlotPosition:    position,
			})
			if err != nil {
				r.Skipped = append(r.Skipped, Skipped{Category: key, Model: model, Reason: reasonAPIError + failureMessage(res, err)})
				continue
			}
			position = nil

			if err := im.inventory.ClaimInventory(ctx, inv.ID); err != nil {
				slog.Warn("failed to claim inventory", "inventory", inv.ID, "error", err)
			}
			available = append(available[:idx:idx], available[idx+1:]...)
			r.Added = append(r.Added, Added{Category: key, Model: model, InventoryID: inv.ID, InstanceID: res.InstanceID})
		}
	}
}

// match returns the index of the first item whose name or model equals
// model, ignoring case.
func match(items []store.InventoryItem, model string) int {
	for i, it := range items {
		if strings.EqualFold(it.Name, model) || strings.EqualFold(it.Model, model) {
			return i
		}
	}
	return -1
}

func failureMessage(res *engine.MutationResult, err error) string {
	if res != nil && res.Message != "" {
		return res.Message
	}
	var se *cberrors.StructuredError
	if stderrors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if err != nil {
		return err.Error()
	}
	return "Unknown"
}

// InventoryFromRecords lists one available item per record of c, using the
// record id as inventory id.
func InventoryFromRecords(c catalog.Category, records []catalog.Record) []store.InventoryItem {
	out := make([]store.InventoryItem, 0, len(records))
	for _, rec := range records {
		serial := rec.Attributes.String("serial_number")
		if serial == "" {
			serial = rec.Attributes.String("serial")
		}
		out = append(out, store.InventoryItem{
			ID:       rec.ID,
			Category: c,
			Name:     rec.DisplayName,
			Model:    rec.Attributes.String("model"),
			Serial:   serial,
			Status:   store.StatusAvailable,
		})
	}
	return out
}

// SeedInventory stores one available item per catalog record of every
// registered category that holds no inventory yet. It returns the number of
// items stored.
func SeedInventory(ctx context.Context, eng *engine.Engine, inv store.Inventory) (int, error) {
	n := 0
	for _, c := range eng.Registry().Categories() {
		existing, err := inv.ListInventory(ctx, c, "")
		if err != nil {
			return n, err
		}
		if len(existing) > 0 {
			continue
		}
		recs, err := eng.Records(ctx, c)
		if err != nil {
			return n, err
		}
		items := InventoryFromRecords(c, recs)
		if len(items) == 0 {
			continue
		}
		if err := inv.PutInventory(ctx, items...); err != nil {
			return n, err
		}
		n += len(items)
	}
	return n, nil
}
