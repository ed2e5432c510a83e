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

// Package api exposes the configuration engine over HTTP.
//
// Routes, all under /v1:
//
//	GET    /v1/catalog                                     registered categories
//	GET    /v1/catalog/{category}?search=&filter.<key>=    filtered records
//	GET    /v1/catalog/{category}/records/{id}             one record
//	POST   /v1/catalog/{category}/cascade                  replay cascade choices
//	POST   /v1/catalog/invalidate                          drop cached catalogs
//	GET    /v1/lint                                        declared path lint
//	GET    /v1/configurations                              list configurations
//	POST   /v1/configurations                              create a configuration
//	GET    /v1/configurations/{id}                         derived view
//	POST   /v1/configurations/{id}/components              add a component
//	DELETE /v1/configurations/{id}/components/{category}/{instance}
//	POST   /v1/configurations/{id}/import                  import a template body
//	POST   /v1/templates/preview                           preview a template body
//
// Responses are JSON unless ?format=yaml or an Accept header asks for YAML.
// Errors follow the shape written by pkg/server.
package api
