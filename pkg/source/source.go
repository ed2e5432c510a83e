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
	"fmt"
	"log/slog"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

// CatalogSource returns the raw catalog document of a category.
type CatalogSource interface {
	// FetchCatalog returns the document for c. Any failure carries
	// CATALOG_UNAVAILABLE.
	FetchCatalog(ctx context.Context, c catalog.Category) (catalog.Document, error)
}

// Kind names a source implementation in settings.
type Kind string

const (
	KindEmbedded  Kind = "embedded"
	KindDir       Kind = "dir"
	KindHTTP      Kind = "http"
	KindConfigMap Kind = "configmap"

	// KindLayered serves Location as a directory over the embedded catalogs.
	KindLayered Kind = "layered"
)

// extensions are tried in order for file based sources.
var extensions = []string{".json", ".yaml", ".yml"}

// fileNames returns the candidate file or key names of c.
func fileNames(c catalog.Category) []string {
	out := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		out = append(out, string(c)+ext)
	}
	return out
}

func unavailable(src string, c catalog.Category, cause error) error {
	return cberrors.WrapWithContext(cberrors.ErrCodeCatalogUnavailable,
		fmt.Sprintf("catalog %s not available from %s", c, src), cause,
		map[string]any{"category": string(c), "source": src})
}

func decode(src string, c catalog.Category, data []byte) (catalog.Document, error) {
	doc, err := catalog.Decode(data)
	if err != nil {
		recordFetch(src, c, resultError)
		return catalog.Document{}, unavailable(src, c, err)
	}
	if doc.IsZero() {
		recordFetch(src, c, resultMiss)
		return catalog.Document{}, unavailable(src, c, fmt.Errorf("empty document"))
	}
	recordFetch(src, c, resultHit)
	slog.Debug("catalog fetched", "source", src, "category", c, "bytes", len(data))
	return doc, nil
}

// Static serves in-memory documents.
type Static map[catalog.Category][]byte

// FetchCatalog implements CatalogSource.
func (s Static) FetchCatalog(_ context.Context, c catalog.Category) (catalog.Document, error) {
	data, ok := s[c]
	if !ok {
		recordFetch("static", c, resultMiss)
		return catalog.Document{}, unavailable("static", c, fmt.Errorf("no document"))
	}
	return decode("static", c, data)
}
