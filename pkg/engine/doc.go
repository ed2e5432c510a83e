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

// Package engine orchestrates catalog sources, the configuration store, the
// category registry and the pure core packages into view models.
//
// # Catalogs
//
// Records fetches a category document from the catalog source, normalizes it
// with the registered normalizer and caches the result. A source failure is
// not an error for callers: the category degrades to an empty record set and
// the cascade switches to manual entry.
//
// # Views
//
// View loads a stored configuration, fetches every catalog it references in
// parallel, resolves each reference to its record and derives:
//
//   - the slot layout of the selected motherboard and chassis
//   - the compatibility report
//   - the summary used by finalize checks
//   - the estimated power draw
//
// # Mutations
//
// Add and Remove are serialized per configuration. The lock is held for the
// store call and the view rebuilt after it, so a returned view always
// reflects the mutation that produced it.
//
// Usage:
//
//	eng := engine.New(source.NewEmbedded(), store.NewMemory())
//	cfg, _ := eng.Create(ctx, "gpu-node")
//	res, _ := eng.Add(ctx, engine.AddRequest{ConfigurationID: cfg.ID, Category: catalog.CategoryCPU, ComponentID: id})
//	fmt.Println(res.View.Summary.Ready)
package engine
