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

// Package server hosts HTTP handlers behind the shared middleware chain.
//
// The server adds, for every registered route:
//
//   - Request ID tracking (X-Request-Id, UUID, generated when absent)
//   - Panic recovery returning a structured 500
//   - Token bucket rate limiting (golang.org/x/time/rate) with
//     X-RateLimit-* headers and 429 plus Retry-After when exhausted
//   - API version negotiation via Accept: application/vnd.nvidia.serverbuilder.v1+json
//   - Prometheus RED metrics (sb_http_*)
//
// System endpoints are registered outside the chain:
//
//	GET /health   liveness, always 200
//	GET /ready    readiness, 503 until the server is started and checks pass
//	GET /metrics  Prometheus exposition
//
// Usage:
//
//	s := server.New(
//	    server.WithName("sbd"),
//	    server.WithVersion(version),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "GET /v1/configurations/{id}": h.View,
//	    }),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// Run stops gracefully on SIGINT, SIGTERM or when ctx is cancelled.
//
// # Errors
//
// Every error response has the same shape:
//
//	{
//	  "code": "STORE_OPERATION_FAILED",
//	  "message": "Motherboard already present, only one is allowed per configuration",
//	  "details": {"category": "motherboard"},
//	  "requestId": "550e8400-e29b-41d4-a716-446655440000",
//	  "timestamp": "2026-01-02T12:00:00Z",
//	  "retryable": false
//	}
//
// WriteErrorFromErr maps pkg/errors codes to HTTP status codes.
package server
