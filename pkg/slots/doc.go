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

// Package slots maps selected component instances onto the finite slot
// inventory of the chosen motherboard and chassis.
//
// A Capability is derived from the motherboard record (sockets, memory
// slots, expansion groups, caddy sockets, M.2 groups) and the chassis record
// (drive bays). Allocate is pure: it builds the ordered slot list of every
// kind and fills it in selection order. Overflow is soft; instances that do
// not fit are reported as unassigned rather than rejected. Expansion slots
// are shared by PCIe cards, HBA cards and NICs, in that order.
package slots
