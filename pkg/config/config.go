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

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/compat"
	"github.com/NVIDIA/server-builder/pkg/defaults"
	"github.com/NVIDIA/server-builder/pkg/engine"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
	"github.com/NVIDIA/server-builder/pkg/source"
	"github.com/NVIDIA/server-builder/pkg/store"
)

const (
	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "SB"

	// FileName is the config file name without extension.
	FileName = "server-builder"
)

// Config holds all settings of the binaries.
type Config struct {
	LogLevel string        `mapstructure:"log_level" json:"logLevel" yaml:"logLevel"`
	Catalog  source.Config `mapstructure:"catalog" json:"catalog" yaml:"catalog"`
	Store    store.Config  `mapstructure:"store" json:"store" yaml:"store"`
	Cache    CacheConfig   `mapstructure:"cache" json:"cache" yaml:"cache"`
	Engine   EngineConfig  `mapstructure:"engine" json:"engine" yaml:"engine"`
	Server   ServerConfig  `mapstructure:"server" json:"server" yaml:"server"`

	// Rules are extra CEL compatibility rules evaluated after the built-ins.
	Rules []compat.ExprSpec `mapstructure:"rules" json:"rules,omitempty" yaml:"rules,omitempty"`

	// Required overrides the categories a configuration must contain.
	Required []string `mapstructure:"required" json:"required,omitempty" yaml:"required,omitempty"`
}

// CacheConfig controls the normalized catalog cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl"`
}

// EngineConfig bounds engine calls to its collaborators.
type EngineConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" json:"fetchTimeout" yaml:"fetchTimeout"`
	StoreTimeout time.Duration `mapstructure:"store_timeout" json:"storeTimeout" yaml:"storeTimeout"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Address         string        `mapstructure:"address" json:"address" yaml:"address"`
	Port            int           `mapstructure:"port" json:"port" yaml:"port"`
	RateLimit       float64       `mapstructure:"rate_limit" json:"rateLimit" yaml:"rateLimit"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst" json:"rateLimitBurst" yaml:"rateLimitBurst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdownTimeout" yaml:"shutdownTimeout"`

	// SeedInventory fills the inventory from the catalogs on startup.
	SeedInventory bool `mapstructure:"seed_inventory" json:"seedInventory" yaml:"seedInventory"`
}

// Load reads settings. When path is empty the default search locations are
// used and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", "."+FileName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, cberrors.Wrap(cberrors.ErrCodeInvalidRequest,
				fmt.Sprintf("error reading config file %s", path), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cberrors.Wrap(cberrors.ErrCodeInvalidRequest, "unable to decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in settings, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("invalid built-in defaults: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("catalog.kind", string(source.KindEmbedded))
	v.SetDefault("catalog.location", "")
	v.SetDefault("catalog.requests_per_second", defaults.CatalogHTTPRequestsPerSecond)
	v.SetDefault("catalog.timeout", defaults.CatalogFetchTimeout)
	v.SetDefault("catalog.kubeconfig", "")

	v.SetDefault("store.kind", string(store.KindMemory))
	v.SetDefault("store.dsn", "")

	v.SetDefault("cache.ttl", defaults.CatalogCacheTTL)

	v.SetDefault("engine.fetch_timeout", defaults.CatalogFetchTimeout)
	v.SetDefault("engine.store_timeout", defaults.StoreOperationTimeout)

	v.SetDefault("server.address", "")
	v.SetDefault("server.port", defaults.ServerPort)
	v.SetDefault("server.rate_limit", defaults.ServerRateLimit)
	v.SetDefault("server.rate_limit_burst", defaults.ServerRateLimitBurst)
	v.SetDefault("server.shutdown_timeout", defaults.ServerShutdownTimeout)
	v.SetDefault("server.seed_inventory", true)

	v.SetDefault("required", []string{})
}

// Validate checks values viper cannot check by type.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return cberrors.NewWithContext(cberrors.ErrCodeInvalidRequest, "server port out of range",
			map[string]any{"port": c.Server.Port})
	}
	if c.Server.RateLimit < 0 || c.Server.RateLimitBurst < 0 {
		return cberrors.New(cberrors.ErrCodeInvalidRequest, "rate limit must not be negative")
	}
	if _, err := c.RequiredCategories(); err != nil {
		return err
	}
	return nil
}

// RequiredCategories parses the required override, dropping repeats. Nil
// means the built-in set applies.
func (c *Config) RequiredCategories() ([]catalog.Category, error) {
	if len(c.Required) == 0 {
		return nil, nil
	}
	out := make([]catalog.Category, 0, len(c.Required))
	seen := make(map[catalog.Category]bool, len(c.Required))
	for _, s := range c.Required {
		cat, err := catalog.ParseCategory(s)
		if err != nil {
			return nil, cberrors.Wrap(cberrors.ErrCodeInvalidRequest, "invalid required category", err)
		}
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out, nil
}

// EngineOptions translates the settings into engine options. Configured CEL
// rules are compiled and run after the built-in rules.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	opts := []engine.Option{
		engine.WithCacheTTL(c.Cache.TTL),
		engine.WithTimeouts(c.Engine.FetchTimeout, c.Engine.StoreTimeout),
	}

	if len(c.Rules) > 0 {
		extra, err := compat.CompileRules(c.Rules)
		if err != nil {
			return nil, cberrors.Wrap(cberrors.ErrCodeInvalidRequest, "invalid compatibility rule", err)
		}
		opts = append(opts, engine.WithRules(extra...))
	}

	required, err := c.RequiredCategories()
	if err != nil {
		return nil, err
	}
	if required != nil {
		opts = append(opts, engine.WithRequired(required...))
	}
	return opts, nil
}
