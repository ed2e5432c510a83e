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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/server-builder/pkg/config"
	"github.com/NVIDIA/server-builder/pkg/engine"
	"github.com/NVIDIA/server-builder/pkg/k8s/client"
	"github.com/NVIDIA/server-builder/pkg/serializer"
	"github.com/NVIDIA/server-builder/pkg/source"
	"github.com/NVIDIA/server-builder/pkg/store"
	"github.com/NVIDIA/server-builder/pkg/template"
)

const storeFile = "sbctl.db"

// app is the wiring shared by commands.
type app struct {
	cfg    *config.Config
	engine *engine.Engine
	store  store.Store
}

// loadConfig reads settings and applies the global flag overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("store") {
		cfg.Store.Kind = store.Kind(strings.ToLower(cmd.String("store")))
		cfg.Store.DSN = ""
	}
	if cmd.IsSet("store-dsn") {
		cfg.Store.DSN = cmd.String("store-dsn")
	}
	if !cmd.IsSet("store") && cfg.Store.Kind == store.KindMemory && cfg.Store.DSN == "" {
		dsn, err := defaultStorePath()
		if err != nil {
			slog.Warn("no persistent store available, using memory", "error", err)
		} else {
			cfg.Store = store.Config{Kind: store.KindSQLite, DSN: dsn}
		}
	}
	return cfg, nil
}

func defaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, "."+config.FileName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	return filepath.Join(dir, storeFile), nil
}

// openApp builds the engine over the configured catalog and store. The
// inventory is seeded from the catalogs where empty.
func openApp(ctx context.Context, cmd *cli.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	src, err := source.New(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog source: %w", err)
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	a := &app{cfg: cfg, engine: engine.New(src, st, opts...), store: st}

	if cfg.Server.SeedInventory {
		if _, err := template.SeedInventory(ctx, a.engine, st); err != nil {
			slog.Warn("failed to seed inventory", "error", err)
		}
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close store", "error", err)
	}
}

// write serializes v to the --output destination in the --format format.
func write(ctx context.Context, cmd *cli.Command, v any) error {
	f, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	ser, err := newSerializer(cmd, f)
	if err != nil {
		return err
	}
	defer func() {
		if err := serializer.CloseIfPossible(ser); err != nil {
			slog.Warn("failed to close serializer", "error", err)
		}
	}()
	return ser.Serialize(ctx, v)
}

func newSerializer(cmd *cli.Command, f serializer.Format) (serializer.Serializer, error) {
	out := strings.TrimSpace(cmd.String("output"))
	kubeconfig := cmd.String("kubeconfig")
	if !strings.HasPrefix(out, serializer.ConfigMapURIScheme) || kubeconfig == "" {
		return serializer.NewFileWriterOrStdout(f, out), nil
	}

	namespace, cmName, err := serializer.ParseConfigMapURI(out)
	if err != nil {
		return nil, err
	}
	cs, _, err := client.GetKubeClientWithConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return serializer.NewConfigMapWriter(namespace, cmName, f, serializer.WithConfigMapClient(cs)), nil
}

// requireArgs fails unless cmd has exactly n positional arguments.
func requireArgs(cmd *cli.Command, n int, usage string) error {
	if cmd.Args().Len() != n {
		return fmt.Errorf("expected %d argument(s): %s", n, usage)
	}
	return nil
}
