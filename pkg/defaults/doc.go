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

// Package defaults provides centralized configuration constants for the
// server builder engine: catalog fetch timeouts and pacing, cache TTL,
// store timeouts, HTTP server and client timeouts, and slot sizes used when
// a capability descriptor omits a count.
//
// Import and use constants directly:
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.CatalogFetchTimeout)
//	defer cancel()
package defaults
