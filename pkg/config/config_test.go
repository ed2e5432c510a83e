package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/compat"
	"github.com/NVIDIA/server-builder/pkg/defaults"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
	"github.com/NVIDIA/server-builder/pkg/source"
	"github.com/NVIDIA/server-builder/pkg/store"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server-builder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, source.KindEmbedded, cfg.Catalog.Kind)
	assert.Equal(t, store.KindMemory, cfg.Store.Kind)
	assert.Equal(t, defaults.CatalogCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, defaults.ServerPort, cfg.Server.Port)
	assert.InDelta(t, float64(defaults.ServerRateLimit), cfg.Server.RateLimit, 0.001)
	assert.True(t, cfg.Server.SeedInventory)
	assert.Empty(t, cfg.Rules)

	required, err := cfg.RequiredCategories()
	require.NoError(t, err)
	assert.Nil(t, required)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
log_level: debug
catalog:
  kind: dir
  location: /srv/catalogs
  timeout: 3s
store:
  kind: sqlite
  dsn: /tmp/sb.db
cache:
  ttl: 1m
server:
  port: 9090
required: [motherboard, cpu]
rules:
  - name: nic-needs-card
    expression: counts.nic > 0 && counts.pciecard == 0
    severity: info
    group: expansion
    title: NIC without expansion cards
    message: NICs usually need an expansion card.
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, source.KindDir, cfg.Catalog.Kind)
	assert.Equal(t, "/srv/catalogs", cfg.Catalog.Location)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, store.KindSQLite, cfg.Store.Kind)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 9090, cfg.Server.Port)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "nic-needs-card", cfg.Rules[0].Name)

	required, err := cfg.RequiredCategories()
	require.NoError(t, err)
	assert.Equal(t, []catalog.Category{catalog.CategoryMotherboard, catalog.CategoryCPU}, required)

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 4)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, "server:\n  port: 9090\n")
	t.Setenv("SB_SERVER_PORT", "7070")
	t.Setenv("SB_STORE_KIND", "postgres")
	t.Setenv("SB_CATALOG_REQUESTS_PER_SECOND", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, store.KindPostgres, cfg.Store.Kind)
	assert.Equal(t, 3, cfg.Catalog.RequestsPerSecond)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad yaml", body: "server: [port"},
		{name: "port out of range", body: "server:\n  port: 70000\n"},
		{name: "negative rate", body: "server:\n  rate_limit: -1\n"},
		{name: "unknown required", body: "required: [gpu]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			require.Error(t, err)
			assert.Equal(t, cberrors.ErrCodeInvalidRequest, cberrors.CodeOf(err))
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEngineOptionsBadRule(t *testing.T) {
	cfg := &Config{Rules: []compat.ExprSpec{{Name: "broken", Expression: "counts.nic >"}}}
	_, err := cfg.EngineOptions()
	require.Error(t, err)
	assert.Equal(t, cberrors.ErrCodeInvalidRequest, cberrors.CodeOf(err))
}

func TestDefault(t *testing.T) {
	t.Setenv("SB_SERVER_PORT", "9999")

	cfg := Default()
	assert.Equal(t, defaults.ServerPort, cfg.Server.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestRequiredCategoriesDropsRepeats(t *testing.T) {
	cfg := &Config{Required: []string{"cpu", "ram", "cpu"}}

	required, err := cfg.RequiredCategories()
	require.NoError(t, err)
	assert.Equal(t, []catalog.Category{catalog.CategoryCPU, catalog.CategoryRAM}, required)
}
