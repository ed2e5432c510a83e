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

// Package schema lints catalogs against the attribute paths their consumers
// declare.
//
// Cascade levels, the slot allocator and every compatibility rule declare
// the paths they read as catalog.PathRef values. Lint compiles each
// declaration into a JSON Schema requiring the path and, when a type is
// declared, its JSON type, then checks it against the normalized records of
// its category. A declaration no record satisfies is reported:
//
//   - missing: no record carries the path
//   - type_mismatch: records carry the path but never with the declared type
//   - catalog_empty: the category has no records to check
//
// Lint never fails on findings; callers decide whether findings are fatal.
package schema
