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

// Package resolver matches inventory references against normalized catalog
// records to recover the full spec and a display name of a component.
package resolver

import (
	"log/slog"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

// UnknownLabel is shown for references no record matches.
const UnknownLabel = "Unknown Component"

// Resolve returns the record of category c whose id equals id.
// A miss returns a COMPONENT_NOT_FOUND error.
func Resolve(c catalog.Category, id string, records []catalog.Record) (catalog.Record, error) {
	for _, r := range records {
		if r.ID == id && (r.Category == c || r.Category == "") {
			return r, nil
		}
	}
	return catalog.Record{}, notFound(c, id)
}

// Label returns the display name of the referenced record, or UnknownLabel.
func Label(c catalog.Category, id string, records []catalog.Record) string {
	r, err := Resolve(c, id, records)
	if err != nil {
		slog.Debug("component not resolved", "category", c, "id", id)
		return UnknownLabel
	}
	return r.DisplayName
}

// Index provides constant-time lookups over one category's records.
type Index struct {
	category catalog.Category
	byID     map[string]int
	records  []catalog.Record
}

// NewIndex indexes records of category c. When ids repeat the first record wins.
func NewIndex(c catalog.Category, records []catalog.Record) *Index {
	idx := &Index{
		category: c,
		byID:     make(map[string]int, len(records)),
		records:  records,
	}
	for i, r := range records {
		if _, dup := idx.byID[r.ID]; !dup {
			idx.byID[r.ID] = i
		}
	}
	return idx
}

// Category returns the indexed category.
func (x *Index) Category() catalog.Category {
	return x.category
}

// Len returns the number of indexed records.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.byID)
}

// Records returns the indexed records in catalog order.
func (x *Index) Records() []catalog.Record {
	if x == nil {
		return nil
	}
	return x.records
}

// Resolve returns the record with id.
func (x *Index) Resolve(id string) (catalog.Record, error) {
	if x != nil {
		if i, ok := x.byID[id]; ok {
			return x.records[i], nil
		}
	}
	var c catalog.Category
	if x != nil {
		c = x.category
	}
	return catalog.Record{}, notFound(c, id)
}

// Label returns the display name for id, or UnknownLabel.
func (x *Index) Label(id string) string {
	r, err := x.Resolve(id)
	if err != nil {
		return UnknownLabel
	}
	return r.DisplayName
}

func notFound(c catalog.Category, id string) error {
	return cberrors.NewWithContext(cberrors.ErrCodeComponentNotFound,
		"component not found in catalog", map[string]any{
			"category": string(c),
			"id":       id,
		})
}
