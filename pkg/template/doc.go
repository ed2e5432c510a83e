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

// Package template reads build templates and imports them into a
// configuration from available inventory.
//
// A template is a YAML or JSON document listing items per category:
//
//	kind: Template
//	apiVersion: serverbuilder.nvidia.com/v1
//	schemaVersion: 1.0.0
//	name: gpu-node
//	components:
//	  motherboard:
//	    - model: H13SSL-N
//	  ram:
//	    - product_name: KSM48R40BD4-32HA
//	      quantity: 4
//
// Import walks categories dependencies first (motherboard, chassis, cpu,
// ram, storage, nic, psu, hbacard, caddy, pciecard, sfp, then any other key
// in name order), claims one matching available inventory item per unit and
// adds it to the configuration. Items that cannot be placed are reported as
// skipped with a reason; an import never fails because of a single item.
//
// Preview resolves the display name of every item against the catalogs,
// fetching all categories in parallel.
package template
