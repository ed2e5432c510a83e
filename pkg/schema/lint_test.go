package schema

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/engine"
	"github.com/NVIDIA/server-builder/pkg/header"
	"github.com/NVIDIA/server-builder/pkg/source"
	"github.com/NVIDIA/server-builder/pkg/store"
)

func rec(id string, attrs map[string]any) catalog.Record {
	return catalog.Record{ID: id, Category: catalog.CategoryRAM, DisplayName: id, Attributes: catalog.AttributesFromMap(attrs)}
}

func TestPathSchema(t *testing.T) {
	s := PathSchema(catalog.PathRef{Path: "compatibility.size", Type: catalog.TypeString}, true)
	assert.Equal(t, "object", s["type"])
	assert.Equal(t, []string{"compatibility"}, s["required"])

	inner := s["properties"].(map[string]any)["compatibility"].(map[string]any)
	assert.Equal(t, []string{"size"}, inner["required"])
	leaf := inner["properties"].(map[string]any)["size"].(map[string]any)
	assert.Equal(t, "string", leaf["type"])

	untyped := PathSchema(catalog.PathRef{Path: "model", Type: catalog.TypeString}, false)
	leaf = untyped["properties"].(map[string]any)["model"].(map[string]any)
	assert.Empty(t, leaf)
}

func TestLintFindings(t *testing.T) {
	records := map[catalog.Category][]catalog.Record{
		catalog.CategoryRAM: {
			rec("a", map[string]any{"memory_type": "DDR4", "capacity_GB": "sixteen", "compatibility": map[string]any{"size": "2.5"}}),
			rec("b", map[string]any{"memory_type": "DDR5", "capacity_GB": "32GB"}),
		},
	}
	refs := []catalog.PathRef{
		{Category: catalog.CategoryRAM, Path: "memory_type", Type: catalog.TypeString, Owner: "level"},
		{Category: catalog.CategoryRAM, Path: "memory_type", Type: catalog.TypeString, Owner: "rule"},
		{Category: catalog.CategoryRAM, Path: "capacity_GB", Type: catalog.TypeNumber, Owner: "level"},
		{Category: catalog.CategoryRAM, Path: "compatibility.size", Type: catalog.TypeAny, Owner: "rule"},
		{Category: catalog.CategoryRAM, Path: "form_factor", Type: catalog.TypeString, Owner: "level"},
		{Category: catalog.CategoryNIC, Path: "ports", Type: catalog.TypeNumber, Owner: "rule"},
		{Category: catalog.CategoryNIC, Path: "speed", Type: catalog.TypeNumber, Owner: "rule"},
		{Category: catalog.CategoryRAM, Path: "", Owner: "ignored"},
	}

	r, err := Lint(refs, records)
	require.NoError(t, err)
	assert.Equal(t, header.KindLintReport, r.Kind)
	assert.Equal(t, 6, r.Checked)
	assert.False(t, r.OK())

	require.Len(t, r.Findings, 3)
	assert.Equal(t, Finding{
		Category: catalog.CategoryRAM, Path: "capacity_GB", Type: catalog.TypeNumber, Owners: []string{"level"},
		Problem: ProblemTypeMismatch, Message: "no ram record has capacity_GB of type number",
	}, r.Findings[0])
	assert.Equal(t, ProblemMissing, r.Findings[1].Problem)
	assert.Equal(t, "form_factor", r.Findings[1].Path)
	assert.Equal(t, ProblemCatalogEmpty, r.Findings[2].Problem)
	assert.Equal(t, catalog.CategoryNIC, r.Findings[2].Category)
}

func TestLintClean(t *testing.T) {
	records := map[catalog.Category][]catalog.Record{
		catalog.CategoryRAM: {
			rec("a", map[string]any{"memory_type": "DDR4", "capacity_GB": 16, "tags": []any{"ecc"}}),
			rec("b", map[string]any{"memory_type": "DDR5"}),
		},
	}
	refs := []catalog.PathRef{
		{Category: catalog.CategoryRAM, Path: "memory_type", Type: catalog.TypeString},
		{Category: catalog.CategoryRAM, Path: "capacity_GB", Type: catalog.TypeNumber},
		{Category: catalog.CategoryRAM, Path: "tags", Type: catalog.TypeArray},
	}

	r, err := Lint(refs, records)
	require.NoError(t, err)
	assert.True(t, r.OK())
	assert.NotNil(t, r.Findings)
}

func TestInstancesKeepNumbers(t *testing.T) {
	docs, err := instances([]catalog.Record{
		rec("a", map[string]any{"capacity_GB": 9007199254740993, "memory": map[string]any{"slots": 8}}),
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0].(map[string]any)
	assert.Equal(t, json.Number("9007199254740993"), doc["capacity_GB"])
	assert.Equal(t, json.Number("8"), doc["memory"].(map[string]any)["slots"])

	s, err := compile(catalog.PathRef{Category: catalog.CategoryRAM, Path: "memory.slots", Type: catalog.TypeNumber}, true)
	require.NoError(t, err)
	assert.NoError(t, s.Validate(doc))
}

func TestLintEngine(t *testing.T) {
	eng := engine.New(source.NewEmbedded(), store.NewMemory())

	r, err := LintEngine(context.Background(), eng)
	require.NoError(t, err)
	assert.Positive(t, r.Checked)
	for _, f := range r.Findings {
		assert.NotEqual(t, ProblemCatalogEmpty, f.Problem, f.Message)
	}
}

func TestLintEngineEmptyCatalogs(t *testing.T) {
	eng := engine.New(source.Static{}, store.NewMemory())

	r, err := LintEngine(context.Background(), eng)
	require.NoError(t, err)
	require.NotEmpty(t, r.Findings)
	for _, f := range r.Findings {
		assert.Equal(t, ProblemCatalogEmpty, f.Problem)
	}
}
