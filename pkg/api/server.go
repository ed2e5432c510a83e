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

package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NVIDIA/server-builder/pkg/config"
	"github.com/NVIDIA/server-builder/pkg/defaults"
	"github.com/NVIDIA/server-builder/pkg/engine"
	"github.com/NVIDIA/server-builder/pkg/logging"
	"github.com/NVIDIA/server-builder/pkg/server"
	"github.com/NVIDIA/server-builder/pkg/source"
	"github.com/NVIDIA/server-builder/pkg/store"
	"github.com/NVIDIA/server-builder/pkg/template"
)

const (
	name           = "sbd"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/NVIDIA/server-builder/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve starts the API server described by cfg and blocks until ctx is
// cancelled or the process receives a termination signal.
func Serve(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		cfg = config.Default()
	}

	logging.SetDefaultStructuredLoggerWithLevel(name, version, cfg.LogLevel)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"catalog", cfg.Catalog.Kind,
		"store", cfg.Store.Kind,
	)

	src, err := source.New(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to create catalog source: %w", err)
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Warn("failed to close store", "error", cerr)
		}
	}()

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	eng := engine.New(src, st, opts...)

	if cfg.Server.SeedInventory {
		n, err := template.SeedInventory(ctx, eng, st)
		if err != nil {
			return fmt.Errorf("failed to seed inventory: %w", err)
		}
		slog.Info("inventory seeded", "items", n)
	}

	h := NewHandler(eng, st)
	s := server.New(
		server.WithName(name),
		server.WithVersion(version),
		server.WithAddress(cfg.Server.Address, cfg.Server.Port),
		server.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateLimitBurst),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithHandler(h.Routes()),
	)
	s.AddReadinessCheck(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaults.StoreOperationTimeout)
		defer cancel()
		_, err := st.ListConfigurations(ctx)
		return err
	})

	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}
