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

// Package source provides catalog sources: where raw catalog documents for a
// category come from.
//
// # Sources
//
//   - FS: files named {category}.json, {category}.yaml or {category}.yml in
//     an fs.FS. NewEmbedded serves the catalogs compiled into the binary,
//     NewDir serves a directory on disk.
//   - HTTP: GET {base}/{category}.json with retries and client-side pacing.
//   - ConfigMap: keys named like the files above in one Kubernetes ConfigMap.
//   - Layered: tries each source in order; the first hit wins.
//   - Static: in-memory documents, for tests and tooling.
//
// Every failure is reported as CATALOG_UNAVAILABLE. The engine degrades such
// categories to manual entry.
//
// # Usage
//
//	src, err := source.New(source.Config{Kind: source.KindLayered, Location: "./catalogs"})
//	if err != nil {
//	    return err
//	}
//	doc, err := src.FetchCatalog(ctx, catalog.CategoryRAM)
package source
