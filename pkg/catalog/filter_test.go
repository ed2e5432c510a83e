package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func displayNames(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.DisplayName)
	}
	return out
}

func TestFilterRadio(t *testing.T) {
	records := Normalize(CategoryCaddy, loadDoc(t, "caddy.json"))
	require.Len(t, records, 2)
	defs := []FilterDef{
		radio("driveType", "DRIVE TYPE", "compatibility.drive_type", "SAS", "SATA"),
		radio("size", "SIZE", "compatibility.size", `2.5"`, `3.5"`),
	}

	tests := []struct {
		name string
		sel  FilterSelection
		want []string
	}{
		{name: "no selection", sel: nil, want: []string{"Caddy 2.5 SAS", "Caddy 3.5 SATA"}},
		{name: "all disables", sel: FilterSelection{"driveType": "All"}, want: []string{"Caddy 2.5 SAS", "Caddy 3.5 SATA"}},
		{name: "array membership", sel: FilterSelection{"driveType": "sas"}, want: []string{"Caddy 2.5 SAS"}},
		{name: "shared element", sel: FilterSelection{"driveType": "SATA"}, want: []string{"Caddy 2.5 SAS", "Caddy 3.5 SATA"}},
		{name: "scalar", sel: FilterSelection{"size": `3.5"`}, want: []string{"Caddy 3.5 SATA"}},
		{name: "combined", sel: FilterSelection{"size": `3.5"`, "driveType": "SAS"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayNames(Filter(records, defs, tt.sel)))
		})
	}
}

func TestFilterRange(t *testing.T) {
	records := Normalize(CategoryCPU, loadDoc(t, "cpu.json"))
	defs := FiltersFor(CategoryCPU)

	got := Filter(records, defs, FilterSelection{"coreCount": "60"})
	assert.Equal(t, []string{"EPYC 9654", "EPYC 9554"}, displayNames(got))

	got = Filter(records, defs, FilterSelection{"baseClock": "2.5"})
	assert.Equal(t, []string{"EPYC 9554"}, displayNames(got))

	// unparsable settings are ignored
	got = Filter(records, defs, FilterSelection{"coreCount": "lots"})
	assert.Len(t, got, 3)

	// records without the attribute are kept
	got = Filter(records, defs, FilterSelection{"maxMemoryCapacity": "8"})
	assert.Len(t, got, 3)
}

func TestFilterMissingRadioValueExcluded(t *testing.T) {
	records := Normalize(CategoryCPU, loadDoc(t, "cpu.json"))
	got := Filter(records, FiltersFor(CategoryCPU), FilterSelection{"memoryType": "DDR5"})
	assert.Empty(t, got)
}

func TestSearch(t *testing.T) {
	records := Normalize(CategoryCPU, loadDoc(t, "cpu.json"))

	assert.Len(t, Search(records, ""), 3)
	assert.Equal(t, []string{"Xeon 8480+"}, displayNames(Search(records, "xeon")))
	assert.Equal(t, []string{"EPYC 9654", "EPYC 9554"}, displayNames(Search(records, "ZEN")))
	assert.Empty(t, Search(records, "arm"))
}

func TestFiltersForEveryCategory(t *testing.T) {
	for _, c := range SupportedCategories() {
		defs := FiltersFor(c)
		assert.NotEmpty(t, defs, "category %s has no filters", c)
		for _, d := range defs {
			assert.NotEmpty(t, d.Path)
			if d.Kind == FilterRadio {
				assert.Equal(t, "All", d.Options[0])
			} else {
				assert.Less(t, d.Min, d.Max)
			}
		}
	}
}
