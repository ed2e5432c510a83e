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

// Package config loads runtime settings for the server-builder binaries.
//
// Settings come from, in increasing order of precedence: built-in defaults
// (see pkg/defaults), a server-builder.yaml file, and SB_ prefixed
// environment variables where dots in the key become underscores:
//
//	SB_CATALOG_KIND=http
//	SB_CATALOG_LOCATION=https://catalog.example.com/v1
//	SB_STORE_KIND=sqlite
//	SB_STORE_DSN=/var/lib/server-builder/configs.db
//	SB_SERVER_PORT=9090
//
// The file is searched in the working directory and in
// $HOME/.server-builder unless an explicit path is given.
//
// Compatibility rules written in CEL can be added under "rules":
//
//	rules:
//	  - name: nic-needs-slot
//	    expression: counts.nic > 0 && counts.pciecard == 0
//	    severity: info
//	    group: expansion
//	    title: NIC without expansion cards
//	    message: NICs usually need an expansion card.
package config
