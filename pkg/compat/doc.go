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

// Package compat derives the categorized issue report of a configuration.
//
// Evaluation has two parts. Every required category without an instance
// raises one critical issue in the required_components group. Structural
// rules then run independently over the configuration; each declares the
// attribute paths it reads so catalogs can be linted against them.
//
// Built-in rules cover memory module parity, transceivers without a network
// card and memory type mismatches between RAM and motherboard. Additional
// rules are CEL expressions loaded from settings:
//
//	rules:
//	  - name: sas-needs-hba
//	    expression: components.storage.exists(s, has(s.interface) && s.interface == "SAS") && counts.hbacard == 0
//	    severity: warning
//	    group: storage
//	    title: HBA Card Required
//	    message: SAS drives need an HBA card.
//
// Issues are sorted by severity, group and category with a stable sort, so
// identical input yields identical output. Summarize groups them into a
// Report.
package compat
