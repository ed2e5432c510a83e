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

// Package cascade drives dependent multi-level selection within one
// component category.
//
// A Definition lists two to four levels, each reading one attribute path of
// the normalized records. The options of a level are the sorted distinct
// values among the records consistent with the choices above it; changing a
// level resets everything below it. The terminal level offers the matching
// records themselves.
//
//	def, _ := cascade.DefinitionFor(catalog.CategoryRAM)
//	sel := cascade.New(def, records)
//	_ = sel.Select(0, "DDR4")
//	_ = sel.Select(1, "16")
//	_ = sel.Select(2, "DIMM")
//	res, err := sel.Resolve(sel.State().TerminalOptions[0].ID)
//
// A category without records is in manual entry mode with zero levels.
// Invalid choices return a MALFORMED_CASCADE_SELECTION error and leave the
// state untouched.
//
// Replay rebuilds a Selector from an ordered list of choices, which lets a
// stateless HTTP handler reconstruct the state on every request. Session
// adds generation tickets for callers that issue overlapping requests.
package cascade
