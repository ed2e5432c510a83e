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

package defaults

import "time"

// Catalog source timeouts and pacing.
const (
	// CatalogFetchTimeout bounds a single catalog document fetch.
	CatalogFetchTimeout = 15 * time.Second

	// CatalogHTTPRetryCount is the number of retries for HTTP catalog fetches.
	CatalogHTTPRetryCount = 3

	// CatalogHTTPRetryWait is the initial wait between HTTP catalog retries.
	CatalogHTTPRetryWait = 500 * time.Millisecond

	// CatalogHTTPRetryMaxWait caps the backoff between HTTP catalog retries.
	CatalogHTTPRetryMaxWait = 5 * time.Second

	// CatalogHTTPRequestsPerSecond paces outbound catalog requests.
	CatalogHTTPRequestsPerSecond = 10

	// CatalogCacheTTL is how long a fetched catalog stays fresh in the engine cache.
	CatalogCacheTTL = 10 * time.Minute
)

// Configuration store timeouts.
const (
	// StoreOperationTimeout bounds a single configuration store call.
	StoreOperationTimeout = 10 * time.Second
)

// Handler timeouts for HTTP request processing.
const (
	// ViewHandlerTimeout is the timeout for building a configuration view.
	// Covers a fan-out fetch of every category catalog.
	ViewHandlerTimeout = 30 * time.Second

	// MutationHandlerTimeout is the timeout for add/remove requests.
	MutationHandlerTimeout = 20 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// Kubernetes timeouts for K8s API operations.
const (
	// K8sConfigMapReadTimeout is the timeout for reading catalog ConfigMaps.
	K8sConfigMapReadTimeout = 10 * time.Second

	// K8sConfigMapWriteTimeout is the timeout for publishing catalog ConfigMaps.
	K8sConfigMapWriteTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second
)

// Slot allocation sizes.
const (
	// FallbackSlotCount is the number of generic slots presented per kind
	// when no capability descriptor is available.
	FallbackSlotCount = 4

	// DefaultMemorySlots is used when a motherboard omits memory.slots.
	DefaultMemorySlots = 4

	// DefaultSocketCount is used when a motherboard omits socket.count.
	DefaultSocketCount = 1

	// MaxSlotCount caps any slot count read from a catalog record.
	MaxSlotCount = 64
)

const (
	// ServerPort is the default listen port of the API server.
	ServerPort = 8080

	// ServerRateLimit is the default number of requests per second.
	ServerRateLimit = 100

	// ServerRateLimitBurst is the default burst size.
	ServerRateLimitBurst = 200
)
