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

package store

import (
	"context"
	"fmt"
)

// Kind names a store implementation in settings.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// Config selects and configures a store.
type Config struct {
	Kind Kind   `json:"kind" yaml:"kind" mapstructure:"kind"`
	DSN  string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// Open returns the store described by cfg. An empty kind means memory; a
// SQLite store without DSN is in-memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Kind {
	case "", KindMemory:
		return NewMemory(), nil
	case KindSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		return OpenSQL(ctx, DialectSQLite, dsn)
	case KindPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres store requires a DSN")
		}
		return OpenSQL(ctx, DialectPostgres, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}
