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

// Package store persists configurations and the inventory they draw from.
//
// ConfigurationStore is the boundary the engine talks to: a configuration
// is a named list of component references grouped by category. References
// carry at least the catalog id of the component; labels and slot positions
// are optional. Inventory tracks physical items and whether they are
// available or already in use, and is consulted by template import.
//
// Two implementations are provided:
//
//   - Memory: process-local, backed by configuration.Configuration
//     aggregates, so the single-instance rule of motherboards and chassis
//     is enforced by the same code as in the engine.
//   - SQL: database/sql with a SQLite (modernc.org/sqlite, pure Go) or
//     Postgres (lib/pq) driver. Tables are created on open.
//
// Rejected mutations return a failed Result with a human-readable Message
// together with a STORE_OPERATION_FAILED error. A missing configuration is
// reported as NOT_FOUND.
package store
