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

// Package catalog normalizes heterogeneous hardware catalog documents into a
// uniform list of component records.
//
// Catalog documents arrive in several nesting shapes that differ per
// category: flat arrays of models, brand groups with models, brand groups
// with series (and CPU tiers), manufacturer specification wrappers, and
// objects exposing one named array. Each category registers the closed set
// of shapes it accepts; DetectShape reports which one a document matches and
// ShapeUnrecognized marks everything else. An unrecognized document
// normalizes to an empty record list rather than an error.
//
// Records keep their attributes in document order. Attribute paths use dots
// to address nested objects, for example "compatibility.size" or
// "socket.count".
//
// Record IDs come from the document when an item carries uuid, UUID or
// inventory.UUID. Otherwise the ID is a name-based UUID derived from the
// category, lineage, display name and ordinal, so the same input always
// yields the same ID.
//
// Usage:
//
//	doc, err := catalog.Decode(data)
//	if err != nil {
//	    return err
//	}
//	records := catalog.Normalize(catalog.CategoryRAM, doc)
package catalog
