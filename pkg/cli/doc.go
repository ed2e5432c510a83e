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

// Package cli implements sbctl, the command-line client of the server builder.
//
// # Commands
//
// catalog - Browse the component catalogs:
//
//	sbctl catalog list
//	sbctl catalog show ram --search ddr5 --filter memory_type=DDR5
//	sbctl catalog record motherboard <id>
//	sbctl catalog lint
//	sbctl catalog export cpu --output cm://hw/catalogs
//
// cascade - Replay cascade choices for a category:
//
//	sbctl cascade ram --choice DDR4 --choice 16 --choice DIMM
//
// config - Manage stored configurations:
//
//	sbctl config create rack-1
//	sbctl config list
//	sbctl config add <id> motherboard <component-id>
//	sbctl config remove <id> motherboard <instance-id>
//	sbctl config show <id>
//	sbctl config summary <id>
//
// template - Work with build templates:
//
//	sbctl template preview node.yaml
//	sbctl template import <id> node.yaml
//
// serve - Run the HTTP API (same as sbd).
//
// # Global Flags
//
//	--config        Settings file (default ./server-builder.yaml)
//	--log-level     debug, info, warn or error
//	--output, -o    Output file path or cm://namespace/name (default: stdout)
//	--format, -t    Output format: yaml, json, table (default: yaml)
//	--store         Store kind: memory, sqlite or postgres
//	--store-dsn     Store data source name
//
// Unless a store is configured, configurations are kept in a SQLite file
// under $HOME/.server-builder so they survive between invocations.
package cli
