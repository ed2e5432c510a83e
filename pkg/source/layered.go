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

package source

import (
	"context"
	"errors"
	"log/slog"

	"github.com/NVIDIA/server-builder/pkg/catalog"
)

// Layered consults its sources in order and returns the first document
// found. External sources are listed before embedded ones so they take
// precedence.
type Layered struct {
	sources []CatalogSource
}

// NewLayered returns a layered source over sources.
func NewLayered(sources ...CatalogSource) *Layered {
	return &Layered{sources: append([]CatalogSource(nil), sources...)}
}

// FetchCatalog implements CatalogSource.
func (l *Layered) FetchCatalog(ctx context.Context, c catalog.Category) (catalog.Document, error) {
	var errs []error
	for i, src := range l.sources {
		doc, err := src.FetchCatalog(ctx, c)
		if err == nil {
			slog.Debug("layered catalog hit", "category", c, "layer", i)
			return doc, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return catalog.Document{}, unavailable("layered", c, errors.Join(errs...))
}
