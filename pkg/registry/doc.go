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

// Package registry holds the per-category behavior table.
//
// Every category-specific decision of the engine is looked up here: the
// category metadata, the document shapes and namer used to normalize its
// catalog, its cascade definition, the slot kind its instances occupy, its
// default filters and its nominal power draw. The table is assembled once at
// startup:
//
//	reg := registry.NewDefault()
//	b, ok := reg.Get(catalog.CategoryRAM)
//	recs := b.Normalizer.Normalize(doc)
//
// Tests and tools may build smaller registries with New and Register.
package registry
