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

// Package header provides the common document header of server builder
// outputs and inputs.
//
// Every document the CLI and API emit, and every template they read, starts
// with a Kubernetes style header:
//
//	kind: ConfigurationView
//	apiVersion: serverbuilder.nvidia.com/v1
//	metadata:
//	  timestamp: "2026-01-05T10:30:00Z"
//	  version: v0.4.0
//
// Build one with functional options or Init:
//
//	h := header.New(header.WithKind(header.KindTemplate), header.WithAPIVersion(header.APIVersion))
//	h.Init(header.KindLintReport, header.APIVersion, version)
//
// Timestamps use RFC3339 in UTC. Kind values outside the constants of this
// package are rejected by IsValid.
package header
