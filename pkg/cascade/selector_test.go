package cascade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

func ramRecords(t *testing.T) []catalog.Record {
	t.Helper()
	doc := catalog.NewDocument([]any{
		map[string]any{"uuid": "ram-a", "model": "A", "memory_type": "DDR4", "capacity_GB": 16, "form_factor": "DIMM"},
		map[string]any{"uuid": "ram-b", "model": "B", "memory_type": "DDR4", "capacity_GB": 32, "form_factor": "DIMM"},
	})
	records := catalog.Normalize(catalog.CategoryRAM, doc)
	require.Len(t, records, 2)
	return records
}

func mustDef(t *testing.T, c catalog.Category) Definition {
	t.Helper()
	def, ok := DefinitionFor(c)
	require.True(t, ok)
	return def
}

func TestTwoRAMEntries(t *testing.T) {
	sel := New(mustDef(t, catalog.CategoryRAM), ramRecords(t))

	assert.Equal(t, []string{"DDR4"}, sel.State().Levels[0].Options)
	require.NoError(t, sel.Select(0, "DDR4"))
	assert.Equal(t, []string{"16", "32"}, sel.State().Levels[1].Options)
	require.NoError(t, sel.Select(1, "16"))
	require.NoError(t, sel.Select(2, "DIMM"))

	st := sel.State()
	require.Len(t, st.TerminalOptions, 1)
	assert.Equal(t, "ram-a", st.TerminalOptions[0].ID)
	assert.Equal(t, ModeCascade, st.Mode)
	assert.Equal(t, 3, st.Current)

	res, err := sel.Resolve("ram-a")
	require.NoError(t, err)
	assert.Equal(t, "A", res.Record.Attributes.String("model"))
	assert.NotEmpty(t, res.InstanceID)
	assert.Equal(t, ModeResolved, sel.Mode())
}

func TestNumericLevelOrdering(t *testing.T) {
	doc := catalog.NewDocument([]any{
		map[string]any{"model": "x", "memory_type": "DDR5", "capacity_GB": 2},
		map[string]any{"model": "y", "memory_type": "DDR5", "capacity_GB": 10},
		map[string]any{"model": "z", "memory_type": "DDR5", "capacity_GB": 4},
		map[string]any{"model": "w", "memory_type": "DDR5", "capacity_GB": "4"},
	})
	sel := New(mustDef(t, catalog.CategoryRAM), catalog.Normalize(catalog.CategoryRAM, doc))
	require.NoError(t, sel.Select(0, "DDR5"))
	assert.Equal(t, []string{"2", "4", "10"}, sel.State().Levels[1].Options)

	// numeric choices compare by value
	require.NoError(t, sel.Select(1, "4.0"))
	assert.Equal(t, "4", sel.State().Levels[1].Selected)
}

func TestChangingLevelResetsDownstream(t *testing.T) {
	def := mustDef(t, catalog.CategoryRAM)
	records := append(ramRecords(t), catalog.Normalize(catalog.CategoryRAM, catalog.NewDocument([]any{
		map[string]any{"uuid": "ram-c", "model": "C", "memory_type": "DDR5", "capacity_GB": 64, "form_factor": "RDIMM"},
	}))...)

	sel, err := Replay(def, records, []string{"DDR4", "16", "DIMM"})
	require.NoError(t, err)
	_, err = sel.Resolve("ram-a")
	require.NoError(t, err)

	require.NoError(t, sel.Select(0, "DDR5"))
	st := sel.State()
	assert.Equal(t, ModeCascade, st.Mode)
	assert.Nil(t, st.Resolution)
	assert.Equal(t, 1, st.Current)
	assert.Equal(t, []string{"64"}, st.Levels[1].Options)
	assert.Empty(t, st.Levels[1].Selected)
	assert.Empty(t, st.Levels[2].Options)
	assert.Empty(t, st.TerminalOptions)

	fresh, err := Replay(def, records, []string{"DDR5"})
	require.NoError(t, err)
	assert.Equal(t, fresh.State(), st)
}

func TestClear(t *testing.T) {
	sel, err := Replay(mustDef(t, catalog.CategoryRAM), ramRecords(t), []string{"DDR4", "32", "DIMM"})
	require.NoError(t, err)

	require.NoError(t, sel.Clear(1))
	st := sel.State()
	assert.Equal(t, 1, st.Current)
	assert.Equal(t, []string{"16", "32"}, st.Levels[1].Options)
	assert.Empty(t, st.Levels[2].Options)
	assert.Empty(t, st.TerminalOptions)
}

func TestMalformedSelections(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *Selector) error
	}{
		{name: "out of order", run: func(s *Selector) error { return s.Select(2, "DIMM") }},
		{name: "unknown level", run: func(s *Selector) error { return s.Select(7, "x") }},
		{name: "negative level", run: func(s *Selector) error { return s.Select(-1, "x") }},
		{name: "value not offered", run: func(s *Selector) error { return s.Select(0, "DDR3") }},
		{name: "resolve early", run: func(s *Selector) error { _, err := s.Resolve("ram-a"); return err }},
		{name: "clear unknown", run: func(s *Selector) error { return s.Clear(9) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := New(mustDef(t, catalog.CategoryRAM), ramRecords(t))
			before := sel.State()

			err := tt.run(sel)
			require.Error(t, err)
			assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeMalformedCascadeSelection))
			assert.Equal(t, before, sel.State(), "state must be unchanged")
		})
	}
}

func TestResolveUnknownRecord(t *testing.T) {
	sel, err := Replay(mustDef(t, catalog.CategoryRAM), ramRecords(t), []string{"DDR4", "16", "DIMM"})
	require.NoError(t, err)

	_, err = sel.Resolve("ram-b")
	assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeMalformedCascadeSelection))
	assert.Equal(t, ModeCascade, sel.Mode())
}

func TestManualEntry(t *testing.T) {
	sel := New(mustDef(t, catalog.CategoryNIC), nil)

	st := sel.State()
	assert.Equal(t, ModeManualEntry, st.Mode)
	assert.Empty(t, st.Levels)
	assert.Empty(t, st.TerminalOptions)
	assert.Error(t, sel.Select(0, "Intel"))
}

func TestMembershipLevel(t *testing.T) {
	doc := catalog.NewDocument(map[string]any{
		"caddies": []any{
			map[string]any{"uuid": "c1", "model": "C1", "compatibility": map[string]any{"size": `2.5"`, "drive_type": []any{"SAS", "SATA"}}},
			map[string]any{"uuid": "c2", "model": "C2", "compatibility": map[string]any{"size": `2.5"`, "drive_type": []any{"SATA"}}},
			map[string]any{"uuid": "c3", "model": "C3", "compatibility": map[string]any{"size": `3.5"`, "drive_type": []any{"SAS"}}},
		},
	})
	sel := New(mustDef(t, catalog.CategoryCaddy), catalog.Normalize(catalog.CategoryCaddy, doc))

	require.NoError(t, sel.Select(0, `2.5"`))
	assert.Equal(t, []string{"SAS", "SATA"}, sel.State().Levels[1].Options)

	require.NoError(t, sel.Select(1, "SATA"))
	ids := []string{}
	for _, o := range sel.State().TerminalOptions {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"c1", "c2"}, ids)
}

func TestTerminalLabels(t *testing.T) {
	doc := catalog.NewDocument([]any{
		map[string]any{
			"brand": "Samsung",
			"series": []any{map[string]any{
				"name": "M393",
				"models": []any{map[string]any{
					"uuid": "r1", "model": "M393A2K40", "memory_type": "DDR4", "capacity_GB": 16,
					"frequency_MHz": 3200, "module_type": "RDIMM", "form_factor": "DIMM",
				}},
			}},
		},
	})
	sel, err := Replay(mustDef(t, catalog.CategoryRAM), catalog.Normalize(catalog.CategoryRAM, doc),
		[]string{"DDR4", "16", "DIMM"})
	require.NoError(t, err)

	st := sel.State()
	require.Len(t, st.TerminalOptions, 1)
	assert.Equal(t, "Samsung M393 16GB DDR4-3200MHz RDIMM", st.TerminalOptions[0].Label)
}

func TestDefinitions(t *testing.T) {
	for _, c := range catalog.SupportedCategories() {
		def := mustDef(t, c)
		assert.GreaterOrEqual(t, len(def.Levels), 2, c)
		assert.LessOrEqual(t, len(def.Levels), 4, c)
		assert.True(t, def.Levels[len(def.Levels)-1].Terminal, c)
		assert.Len(t, def.Paths(), len(def.Levels)-1)
	}

	_, ok := DefinitionFor(catalog.Category("psu"))
	assert.False(t, ok)
}

func TestWithInstanceIDs(t *testing.T) {
	sel, err := Replay(mustDef(t, catalog.CategoryRAM), ramRecords(t), []string{"DDR4", "16", "DIMM"},
		WithInstanceIDs(func() string { return "fixed" }))
	require.NoError(t, err)

	res, err := sel.Resolve("ram-a")
	require.NoError(t, err)
	assert.Equal(t, "fixed", res.InstanceID)
}
