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

// Package configuration holds the aggregate of a server build: the selected
// component instances by category.
//
// A Configuration is the single shared mutable resource of the engine.
// Add, Remove and Replace take the write lock and run the registered
// observers before releasing it, so a mutation and the re-evaluation it
// triggers are never interleaved with another mutation. Readers use
// Snapshot or the copying accessors.
//
// Motherboard and chassis are capped at one instance.
package configuration
