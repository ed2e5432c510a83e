package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/server-builder/pkg/cascade"
	"github.com/NVIDIA/server-builder/pkg/catalog"
	"github.com/NVIDIA/server-builder/pkg/compat"
	"github.com/NVIDIA/server-builder/pkg/configuration"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
	"github.com/NVIDIA/server-builder/pkg/resolver"
	"github.com/NVIDIA/server-builder/pkg/slots"
	"github.com/NVIDIA/server-builder/pkg/source"
	"github.com/NVIDIA/server-builder/pkg/store"
)

type countingSource struct {
	inner source.CatalogSource
	calls atomic.Int32
}

func (s *countingSource) FetchCatalog(ctx context.Context, c catalog.Category) (catalog.Document, error) {
	s.calls.Add(1)
	return s.inner.FetchCatalog(ctx, c)
}

func newEngine(t *testing.T) (*Engine, *store.Snapshot) {
	t.Helper()
	eng := New(source.NewEmbedded(), store.NewMemory())
	snap, err := eng.Create(context.Background(), "test")
	require.NoError(t, err)
	return eng, snap
}

func recordByModel(t *testing.T, eng *Engine, c catalog.Category, model string) catalog.Record {
	t.Helper()
	recs, err := eng.Records(context.Background(), c)
	require.NoError(t, err)
	for _, r := range recs {
		if r.Attributes.String("model") == model {
			return r
		}
	}
	t.Fatalf("no %s record with model %s", c, model)
	return catalog.Record{}
}

func addModel(t *testing.T, eng *Engine, id string, c catalog.Category, model string, qty int) *MutationResult {
	t.Helper()
	res, err := eng.Add(context.Background(), AddRequest{
		ConfigurationID: id,
		Category:        c,
		ComponentID:     recordByModel(t, eng, c, model).ID,
		Quantity:        qty,
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.View)
	return res
}

func TestRecordsDegradesToEmpty(t *testing.T) {
	eng := New(source.Static{catalog.CategoryNIC: []byte(`{"unexpected": true}`)}, store.NewMemory())
	ctx := context.Background()

	recs, err := eng.Records(ctx, catalog.CategoryCPU)
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = eng.Records(ctx, catalog.CategoryNIC)
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = eng.Records(ctx, catalog.Category("psu"))
	require.Error(t, err)
	assert.Equal(t, cberrors.ErrCodeInvalidRequest, cberrors.CodeOf(err))
}

func TestRecordsAreCached(t *testing.T) {
	src := &countingSource{inner: source.NewEmbedded()}
	eng := New(src, store.NewMemory())
	ctx := context.Background()

	first, err := eng.Records(ctx, catalog.CategoryRAM)
	require.NoError(t, err)
	second, err := eng.Records(ctx, catalog.CategoryRAM)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), src.calls.Load())

	eng.Invalidate(catalog.CategoryRAM)
	_, err = eng.Records(ctx, catalog.CategoryRAM)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())

	eng.InvalidateAll()
	_, err = eng.Records(ctx, catalog.CategoryRAM)
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestUnavailableCatalogIsNotCached(t *testing.T) {
	src := &countingSource{inner: source.Static{}}
	eng := New(src, store.NewMemory())

	for i := 0; i < 2; i++ {
		_, err := eng.Records(context.Background(), catalog.CategoryCPU)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCatalogFilterAndSearch(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	all, err := eng.Catalog(ctx, CatalogQuery{Category: catalog.CategoryCPU})
	require.NoError(t, err)
	assert.Equal(t, all.Total, len(all.Records))
	assert.NotEmpty(t, all.Filters)

	intel, err := eng.Catalog(ctx, CatalogQuery{
		Category: catalog.CategoryCPU,
		Filters:  catalog.FilterSelection{"manufacturer": "Intel"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, intel.Records)
	for _, r := range intel.Records {
		assert.Equal(t, "Intel", r.Attributes.String("brand"))
	}

	epyc, err := eng.Catalog(ctx, CatalogQuery{Category: catalog.CategoryCPU, Search: "epyc"})
	require.NoError(t, err)
	assert.Len(t, epyc.Records, 3)

	none, err := eng.Catalog(ctx, CatalogQuery{Category: catalog.CategoryCPU, Search: "no such cpu"})
	require.NoError(t, err)
	assert.NotNil(t, none.Records)
	assert.Empty(t, none.Records)
}

func TestViewOfEmptyConfiguration(t *testing.T) {
	eng, snap := newEngine(t)

	view, err := eng.View(context.Background(), snap.ID)
	require.NoError(t, err)

	assert.Equal(t, snap.ID, view.ID)
	assert.Equal(t, "test", view.Name)
	assert.Empty(t, view.Components)
	assert.Equal(t, 4, view.Report.Critical)
	assert.Equal(t, 0, view.Report.ResolvedPercent)
	assert.Equal(t, catalog.RequiredCategories(), view.Summary.Missing)
	assert.False(t, view.Summary.Ready)
	assert.Equal(t, DefaultPowerWatts, view.PowerWatts)
	assert.True(t, view.Layout.Fallback)
}

func TestViewUnknownConfiguration(t *testing.T) {
	eng, _ := newEngine(t)

	_, err := eng.View(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, cberrors.ErrCodeNotFound, cberrors.CodeOf(err))
}

func TestBuildCompleteConfiguration(t *testing.T) {
	eng, snap := newEngine(t)

	addModel(t, eng, snap.ID, catalog.CategoryMotherboard, "H13SSL-N", 1)
	addModel(t, eng, snap.ID, catalog.CategoryChassis, "CSE-826BE1C4-R1K23LPB", 1)
	addModel(t, eng, snap.ID, catalog.CategoryCPU, "EPYC 9654", 1)
	res := addModel(t, eng, snap.ID, catalog.CategoryRAM, "KSM48R40BD4-32HA", 2)

	view := res.View
	assert.True(t, view.Summary.Ready)
	assert.Empty(t, view.Summary.Missing)
	assert.Equal(t, 5, view.Summary.Total)
	assert.Equal(t, 2, view.Summary.Counts[catalog.CategoryRAM])
	assert.Equal(t, 0, view.Report.Critical)
	assert.Equal(t, 50+150+2*10, view.PowerWatts)

	assert.False(t, view.Layout.Fallback)
	assert.Len(t, view.Layout.Of(slots.KindMemory), 12)
	assert.Equal(t, 2, view.Layout.Occupied(slots.KindMemory))
	assert.Equal(t, 1, view.Layout.Occupied(slots.KindCPUSocket))
	assert.Len(t, view.Layout.Of(slots.KindDriveBay), 12)
	assert.Empty(t, view.Layout.Unassigned)

	for _, comp := range view.Components {
		require.NotNil(t, comp.Record, comp.ComponentID)
		assert.NotEmpty(t, comp.InstanceID)
	}

	again, err := eng.View(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Issues, again.Issues)
	assert.Equal(t, view.Layout, again.Layout)
}

func TestAddSecondMotherboardRejected(t *testing.T) {
	eng, snap := newEngine(t)
	addModel(t, eng, snap.ID, catalog.CategoryMotherboard, "H13SSL-N", 1)

	res, err := eng.Add(context.Background(), AddRequest{
		ConfigurationID: snap.ID,
		Category:        catalog.CategoryMotherboard,
		ComponentID:     recordByModel(t, eng, catalog.CategoryMotherboard, "X12SPi-TF").ID,
	})
	require.Error(t, err)
	assert.Equal(t, cberrors.ErrCodeStoreOperationFailed, cberrors.CodeOf(err))
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Motherboard already present")
	assert.Nil(t, res.View)

	view, err := eng.View(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Summary.Counts[catalog.CategoryMotherboard])
}

func TestAddValidation(t *testing.T) {
	eng, snap := newEngine(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  AddRequest
		code cberrors.ErrorCode
	}{
		{
			name: "unknown category",
			req:  AddRequest{ConfigurationID: snap.ID, Category: "psu", ComponentID: "x"},
			code: cberrors.ErrCodeInvalidRequest,
		},
		{
			name: "unknown component",
			req:  AddRequest{ConfigurationID: snap.ID, Category: catalog.CategoryCPU, ComponentID: "no-such-cpu"},
			code: cberrors.ErrCodeComponentNotFound,
		},
		{
			name: "bad slot position",
			req:  AddRequest{ConfigurationID: snap.ID, Category: catalog.CategoryCPU, ComponentID: "x", SlotPosition: new(int)},
			code: cberrors.ErrCodeInvalidRequest,
		},
		{
			name: "unknown configuration",
			req: AddRequest{
				ConfigurationID: "missing",
				Category:        catalog.CategoryCPU,
				ComponentID:     recordByModel(t, eng, catalog.CategoryCPU, "EPYC 9124").ID,
			},
			code: cberrors.ErrCodeNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := eng.Add(ctx, tt.req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.code, cberrors.CodeOf(err))
		})
	}
}

func TestMemoryTypeMismatchReported(t *testing.T) {
	eng, snap := newEngine(t)
	addModel(t, eng, snap.ID, catalog.CategoryMotherboard, "H13SSL-N", 1)
	res := addModel(t, eng, snap.ID, catalog.CategoryRAM, "KF432C16BB-16", 1)

	var titles []string
	for _, is := range res.View.Issues {
		titles = append(titles, is.Title)
	}
	assert.Contains(t, titles, "Memory Type Mismatch")
	assert.Contains(t, titles, "RAM Configuration")
}

func TestManualEntryReferenceKeepsPlaceholder(t *testing.T) {
	eng := New(source.Static{}, store.NewMemory())
	ctx := context.Background()
	snap, err := eng.Create(ctx, "manual")
	require.NoError(t, err)

	res, err := eng.Add(ctx, AddRequest{ConfigurationID: snap.ID, Category: catalog.CategoryNIC, ComponentID: "typed-in"})
	require.NoError(t, err)
	require.True(t, res.Success)

	var nic *configuration.Component
	for i := range res.View.Components {
		if res.View.Components[i].Category == catalog.CategoryNIC {
			nic = &res.View.Components[i]
		}
	}
	require.NotNil(t, nic)
	assert.Nil(t, nic.Record)
	assert.Equal(t, resolver.UnknownLabel, nic.Label)
	assert.Equal(t, 25, res.View.PowerWatts)
}

func TestRemove(t *testing.T) {
	eng, snap := newEngine(t)
	ctx := context.Background()
	res := addModel(t, eng, snap.ID, catalog.CategoryCPU, "EPYC 9554", 1)

	removed, err := eng.Remove(ctx, RemoveRequest{ConfigurationID: snap.ID, Category: catalog.CategoryCPU, InstanceID: res.InstanceID})
	require.NoError(t, err)
	assert.True(t, removed.Success)
	assert.Zero(t, removed.View.Summary.Counts[catalog.CategoryCPU])
	assert.Contains(t, removed.View.Summary.Missing, catalog.CategoryCPU)

	again, err := eng.Remove(ctx, RemoveRequest{ConfigurationID: snap.ID, Category: catalog.CategoryCPU, InstanceID: res.InstanceID})
	require.Error(t, err)
	require.NotNil(t, again)
	assert.False(t, again.Success)

	_, err = eng.Remove(ctx, RemoveRequest{ConfigurationID: snap.ID, Category: catalog.CategoryCPU})
	assert.Equal(t, cberrors.ErrCodeInvalidRequest, cberrors.CodeOf(err))
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	eng, snap := newEngine(t)
	id := recordByModel(t, eng, catalog.CategoryRAM, "KSM48R40BD4-64HA").ID

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.Add(context.Background(), AddRequest{ConfigurationID: snap.ID, Category: catalog.CategoryRAM, ComponentID: id})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	view, err := eng.View(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, view.Summary.Counts[catalog.CategoryRAM])
}

func TestCascade(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	st, err := eng.Cascade(ctx, CascadeRequest{Category: catalog.CategoryRAM, Choices: []string{"DDR4", "16", "DIMM"}})
	require.NoError(t, err)
	require.Len(t, st.TerminalOptions, 1)
	want := recordByModel(t, eng, catalog.CategoryRAM, "KF432C16BB-16")
	assert.Equal(t, want.ID, st.TerminalOptions[0].ID)

	resolved, err := eng.Cascade(ctx, CascadeRequest{
		Category: catalog.CategoryRAM,
		Choices:  []string{"DDR4", "16", "DIMM"},
		RecordID: want.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, cascade.ModeResolved, resolved.Mode)
	require.NotNil(t, resolved.Resolution)
	assert.Equal(t, want.ID, resolved.Resolution.Record.ID)

	_, err = eng.Cascade(ctx, CascadeRequest{Category: catalog.CategoryRAM, Choices: []string{"DDR9"}})
	require.Error(t, err)
	assert.Equal(t, cberrors.ErrCodeMalformedCascadeSelection, cberrors.CodeOf(err))
}

func TestCascadeManualEntry(t *testing.T) {
	eng := New(source.Static{}, store.NewMemory())

	st, err := eng.Cascade(context.Background(), CascadeRequest{Category: catalog.CategoryNIC})
	require.NoError(t, err)
	assert.Equal(t, cascade.ModeManualEntry, st.Mode)
	assert.Empty(t, st.Levels)
}

func TestSession(t *testing.T) {
	eng, _ := newEngine(t)

	s, err := eng.Session(context.Background(), catalog.CategoryRAM)
	require.NoError(t, err)

	t0 := s.Begin(0)
	st, err := s.Apply(t0, "DDR5")
	require.NoError(t, err)
	assert.Equal(t, "DDR5", st.Levels[0].Selected)
	assert.Equal(t, []string{"32", "64"}, st.Levels[1].Options)

	stale := s.Begin(1)
	_ = s.Begin(1)
	_, err = s.Apply(stale, "32")
	assert.Equal(t, cberrors.ErrCodeMalformedCascadeSelection, cberrors.CodeOf(err))
}

func TestEstimatePower(t *testing.T) {
	eng, _ := newEngine(t)
	cfg := configuration.New("p")
	assert.Equal(t, DefaultPowerWatts, EstimatePower(cfg, eng.Registry()))

	for _, c := range []struct {
		category catalog.Category
		qty      int
	}{
		{catalog.CategoryCPU, 2},
		{catalog.CategoryStorage, 3},
		{catalog.CategoryPCIeCard, 1},
		{catalog.CategorySFP, 4},
	} {
		_, err := cfg.Add(configuration.Component{Category: c.category, ComponentID: "x", Quantity: c.qty})
		require.NoError(t, err)
	}
	assert.Equal(t, 2*150+3*15+75, EstimatePower(cfg, eng.Registry()))
}

func TestEstimatePowerZeroDrawFallsBack(t *testing.T) {
	eng, _ := newEngine(t)
	cfg := configuration.New("chassis-only")
	_, err := cfg.Add(configuration.Component{Category: catalog.CategoryChassis, ComponentID: "c", Quantity: 1})
	require.NoError(t, err)
	_, err = cfg.Add(configuration.Component{Category: catalog.CategoryCaddy, ComponentID: "d", Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, DefaultPowerWatts, EstimatePower(cfg, eng.Registry()))
}

func TestPathsCoverCascadesSlotsAndRules(t *testing.T) {
	rule, err := compat.NewExprRule(compat.ExprSpec{
		Name:       "custom",
		Expression: "counts.nic > 4",
		Paths:      []catalog.PathRef{{Category: catalog.CategoryNIC, Path: "ports"}},
	})
	require.NoError(t, err)
	eng := New(source.NewEmbedded(), store.NewMemory(), WithRules(rule))

	owners := map[string]bool{}
	for _, p := range eng.Paths() {
		owners[p.Owner] = true
	}
	assert.True(t, owners["custom"])
	assert.True(t, owners["memory-type-match"])
	assert.True(t, owners["cascade level Memory Type"])
	assert.Len(t, eng.Rules().Rules(), len(compat.DefaultRules())+1)
}

func TestWithRequiredOverride(t *testing.T) {
	eng := New(source.NewEmbedded(), store.NewMemory(), WithRequired(catalog.CategoryCPU))
	ctx := context.Background()
	snap, err := eng.Create(ctx, "cpu only")
	require.NoError(t, err)

	view, err := eng.View(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Category{catalog.CategoryCPU}, view.Summary.Missing)
	assert.Equal(t, 1, view.Report.Critical)
	assert.Equal(t, []catalog.Category{catalog.CategoryCPU}, eng.Required())
}
