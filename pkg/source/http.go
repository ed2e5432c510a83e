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

package source

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/defaults"
)

// DefaultPathTemplate is the request path of a category catalog.
const DefaultPathTemplate = "/{category}.json"

// HTTPConfig configures an HTTP source.
type HTTPConfig struct {
	// BaseURL is the catalog service root, e.g. https://catalogs.example.com/v1.
	BaseURL string

	// PathTemplate is appended to BaseURL with {category} substituted
	// (default: /{category}.json).
	PathTemplate string

	// RequestsPerSecond paces outgoing requests (default: defaults.CatalogHTTPRequestsPerSecond).
	RequestsPerSecond int

	// Timeout bounds one request including retries (default: defaults.CatalogFetchTimeout).
	Timeout time.Duration

	// RetryCount is the number of retries on transport errors and 5xx (default: defaults.CatalogHTTPRetryCount).
	RetryCount int

	// Headers are sent with every request.
	Headers map[string]string
}

// HTTP fetches catalogs from a remote catalog service.
type HTTP struct {
	client  *resty.Client
	rl      ratelimit.Limiter
	path    string
	timeout time.Duration
}

// NewHTTP returns an HTTP source. Close releases its connections.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("http catalog source requires a base URL")
	}
	if cfg.PathTemplate == "" {
		cfg.PathTemplate = DefaultPathTemplate
	}
	if !strings.Contains(cfg.PathTemplate, "{category}") {
		return nil, fmt.Errorf("path template %q must contain {category}", cfg.PathTemplate)
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaults.CatalogHTTPRequestsPerSecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.CatalogFetchTimeout
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	} else if cfg.RetryCount == 0 {
		cfg.RetryCount = defaults.CatalogHTTPRetryCount
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: defaults.HTTPConnectTimeout}).DialContext,
		TLSHandshakeTimeout: defaults.HTTPTLSHandshakeTimeout,
		MaxIdleConnsPerHost: cfg.RequestsPerSecond,
	}

	client := resty.NewWithClient(&http.Client{Transport: transport}).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(defaults.HTTPClientTimeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(defaults.CatalogHTTPRetryWait).
		SetRetryMaxWaitTime(defaults.CatalogHTTPRetryMaxWait).
		SetHeader("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5").
		SetHeaders(cfg.Headers)

	return &HTTP{
		client:  client,
		rl:      ratelimit.New(cfg.RequestsPerSecond),
		path:    cfg.PathTemplate,
		timeout: cfg.Timeout,
	}, nil
}

// FetchCatalog implements CatalogSource.
func (s *HTTP) FetchCatalog(ctx context.Context, c catalog.Category) (catalog.Document, error) {
	s.rl.Take()

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	path := strings.ReplaceAll(s.path, "{category}", string(c))
	resp, err := s.client.R().
		SetContext(reqCtx).
		Get(path)
	if err != nil {
		recordFetch(string(KindHTTP), c, resultError)
		if ctx.Err() != nil {
			return catalog.Document{}, unavailable(string(KindHTTP), c, fmt.Errorf("request cancelled: %w", ctx.Err()))
		}
		return catalog.Document{}, unavailable(string(KindHTTP), c, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		recordFetch(string(KindHTTP), c, resultMiss)
		return catalog.Document{}, unavailable(string(KindHTTP), c, fmt.Errorf("HTTP %d", resp.StatusCode()))
	case resp.IsError():
		recordFetch(string(KindHTTP), c, resultError)
		slog.Warn("catalog request failed", "category", c, "status", resp.StatusCode())
		return catalog.Document{}, unavailable(string(KindHTTP), c, fmt.Errorf("HTTP error: %s", resp.Status()))
	}

	return decode(string(KindHTTP), c, resp.Bytes())
}

// Close releases the underlying HTTP client.
func (s *HTTP) Close() error {
	return s.client.Close()
}
