package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/server-builder/pkg/api"
	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/engine"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
	"github.com/NVIDIA/server-builder/pkg/store"
	"github.com/NVIDIA/server-builder/pkg/template"
)

type harness struct {
	dir string
	dsn string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return &harness{dir: dir, dsn: filepath.Join(dir, "test.db")}
}

// run executes the sbctl command named by path with the remaining flags and
// arguments and decodes the JSON output into out.
func (h *harness) run(t *testing.T, out any, path string, rest ...string) error {
	t.Helper()
	file := filepath.Join(h.dir, "out.json")
	_ = os.Remove(file)

	argv := []string{name, "--store", "sqlite", "--store-dsn", h.dsn}
	argv = append(argv, strings.Fields(path)...)
	argv = append(argv, "--format", "json", "--output", file)
	argv = append(argv, rest...)
	if err := newRootCmd().Run(context.Background(), argv); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out), string(data))
	return nil
}

func (h *harness) recordID(t *testing.T, c catalog.Category, search string) string {
	t.Helper()
	var res engine.CatalogResult
	require.NoError(t, h.run(t, &res, "catalog show", "--search", search, string(c)))
	require.NotEmpty(t, res.Records)
	return res.Records[0].ID
}

func TestCatalogCommands(t *testing.T) {
	h := newHarness(t)

	var cats []api.CategoryInfo
	require.NoError(t, h.run(t, &cats, "catalog list"))
	require.NotEmpty(t, cats)
	assert.Equal(t, catalog.CategoryCPU, cats[0].Category)

	var res engine.CatalogResult
	require.NoError(t, h.run(t, &res, "catalog show", "--search", "epyc", "cpu"))
	assert.Len(t, res.Records, 3)

	var rec catalog.Record
	require.NoError(t, h.run(t, &rec, "catalog record", "cpu", res.Records[0].ID))
	assert.Equal(t, res.Records[0].ID, rec.ID)

	err := h.run(t, nil, "catalog record", "cpu", "missing")
	assert.Equal(t, cberrors.ErrCodeComponentNotFound, cberrors.CodeOf(err))

	assert.Error(t, h.run(t, nil, "catalog show"))
	assert.Error(t, h.run(t, nil, "catalog show", "--filter", "broken", "cpu"))

	var lint struct {
		Checked int `json:"checked"`
	}
	require.NoError(t, h.run(t, &lint, "catalog lint"))
	assert.Positive(t, lint.Checked)
}

func TestCascadeCommand(t *testing.T) {
	h := newHarness(t)

	var state struct {
		TerminalOptions []struct {
			ID string `json:"id"`
		} `json:"terminalOptions"`
	}
	require.NoError(t, h.run(t, &state, "cascade", "-c", "DDR4", "-c", "16", "-c", "DIMM", "ram"))
	assert.Len(t, state.TerminalOptions, 1)

	err := h.run(t, nil, "cascade", "--choice", "DDR9", "ram")
	assert.Equal(t, cberrors.ErrCodeMalformedCascadeSelection, cberrors.CodeOf(err))
}

func TestConfigCommandsPersist(t *testing.T) {
	h := newHarness(t)

	var snap store.Snapshot
	require.NoError(t, h.run(t, &snap, "config create", "rack-1"))
	require.NotEmpty(t, snap.ID)

	board := h.recordID(t, catalog.CategoryMotherboard, "H13SSL-N")
	var added engine.MutationResult
	require.NoError(t, h.run(t, &added, "config add", snap.ID, "motherboard", board))
	require.True(t, added.Success)
	require.NotEmpty(t, added.InstanceID)

	var list []store.Summary
	require.NoError(t, h.run(t, &list, "config list"))
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Components)

	var summary engine.Summary
	require.NoError(t, h.run(t, &summary, "config summary", snap.ID))
	assert.Equal(t, 1, summary.Counts[catalog.CategoryMotherboard])
	assert.Contains(t, summary.Missing, catalog.CategoryCPU)

	var removed engine.MutationResult
	require.NoError(t, h.run(t, &removed, "config remove", snap.ID, "motherboard", added.InstanceID))
	assert.True(t, removed.Success)

	var view engine.View
	require.NoError(t, h.run(t, &view, "config show", snap.ID))
	assert.Zero(t, view.Summary.Counts[catalog.CategoryMotherboard])

	err := h.run(t, nil, "config show", "missing")
	assert.Equal(t, cberrors.ErrCodeNotFound, cberrors.CodeOf(err))
	assert.Error(t, h.run(t, nil, "config add", snap.ID, "motherboard"))
}

func TestTemplateCommands(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schemaVersion: 1.0.0
name: node
components:
  motherboard:
    - model: H13SSL-N
  cpu:
    - model: EPYC 9124
`), 0o600))

	var preview template.PreviewReport
	require.NoError(t, h.run(t, &preview, "template preview", path))
	require.Len(t, preview.Items, 2)
	for _, it := range preview.Items {
		assert.True(t, it.Matched, it.Model)
	}

	var snap store.Snapshot
	require.NoError(t, h.run(t, &snap, "config create", "imported"))

	var report template.Report
	require.NoError(t, h.run(t, &report, "template import", snap.ID, path))
	assert.Len(t, report.Added, 2)
	assert.Empty(t, report.Skipped)

	// the claimed cpu stays claimed in the next invocation
	var again template.Report
	require.NoError(t, h.run(t, &again, "template import", snap.ID, path))
	reasons := map[string]string{}
	for _, s := range again.Skipped {
		reasons[s.Category] = s.Reason
	}
	assert.Equal(t, template.ReasonOutOfStock, reasons["cpu"])

	err := h.run(t, nil, "template import", "missing", path)
	assert.Equal(t, cberrors.ErrCodeNotFound, cberrors.CodeOf(err))
}
