package configuration

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

func TestAddFillsDefaults(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := New("cfg-1", WithClock(func() time.Time { return fixed }))

	comp, err := cfg.Add(Component{Category: catalog.CategoryRAM, ComponentID: "ram-a", SlotPosition: ptr.To(2)})
	require.NoError(t, err)
	assert.Equal(t, 1, comp.Quantity)
	assert.NotEmpty(t, comp.InstanceID)
	assert.Equal(t, fixed, comp.AddedAt)
	assert.Equal(t, 2, ptr.Deref(comp.SlotPosition, -1))

	assert.Equal(t, 1, cfg.Count(catalog.CategoryRAM))
	assert.Equal(t, "cfg-1", cfg.ID())
}

func TestAddValidation(t *testing.T) {
	cfg := New("cfg")

	_, err := cfg.Add(Component{Category: catalog.CategoryCPU})
	assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeInvalidRequest))

	_, err = cfg.Add(Component{Category: catalog.CategoryMotherboard, ComponentID: "mb", Quantity: 2})
	assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeStoreOperationFailed))

	_, err = cfg.Add(Component{Category: catalog.CategoryRAM, ComponentID: "r", InstanceID: "i1"})
	require.NoError(t, err)
	_, err = cfg.Add(Component{Category: catalog.CategoryRAM, ComponentID: "r", InstanceID: "i1"})
	assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeStoreOperationFailed))
}

func TestSingleInstanceCategories(t *testing.T) {
	for _, c := range []catalog.Category{catalog.CategoryMotherboard, catalog.CategoryChassis} {
		t.Run(string(c), func(t *testing.T) {
			cfg := New("cfg")
			_, err := cfg.Add(Component{Category: c, ComponentID: "first"})
			require.NoError(t, err)

			_, err = cfg.Add(Component{Category: c, ComponentID: "second"})
			require.Error(t, err)
			assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeStoreOperationFailed))
			assert.Contains(t, err.Error(), "already present")
			assert.Equal(t, 1, cfg.Count(c))
		})
	}
}

func TestRemove(t *testing.T) {
	cfg := New("cfg")
	a, err := cfg.Add(Component{Category: catalog.CategoryNIC, ComponentID: "n1"})
	require.NoError(t, err)
	b, err := cfg.Add(Component{Category: catalog.CategoryNIC, ComponentID: "n2", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Count(catalog.CategoryNIC))

	require.NoError(t, cfg.Remove(catalog.CategoryNIC, a.InstanceID))
	comps := cfg.Components(catalog.CategoryNIC)
	require.Len(t, comps, 1)
	assert.Equal(t, b.InstanceID, comps[0].InstanceID)

	err = cfg.Remove(catalog.CategoryNIC, "nope")
	assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeNotFound))

	require.NoError(t, cfg.Remove(catalog.CategoryNIC, b.InstanceID))
	assert.True(t, cfg.Snapshot().IsEmpty())
}

func TestSnapshotIsolation(t *testing.T) {
	cfg := New("cfg")
	_, err := cfg.Add(Component{Category: catalog.CategoryCPU, ComponentID: "c1"})
	require.NoError(t, err)

	snap := cfg.Snapshot()
	_, err = cfg.Add(Component{Category: catalog.CategoryCPU, ComponentID: "c2"})
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Count(catalog.CategoryCPU))
	assert.Equal(t, 2, cfg.Count(catalog.CategoryCPU))
}

func TestSnapshotOrdering(t *testing.T) {
	cfg := New("cfg")
	for _, c := range []catalog.Category{catalog.CategorySFP, catalog.CategoryCPU, catalog.CategoryRAM, catalog.CategoryCPU} {
		_, err := cfg.Add(Component{Category: c, ComponentID: string(c)})
		require.NoError(t, err)
	}

	snap := cfg.Snapshot()
	assert.Equal(t, []catalog.Category{catalog.CategoryCPU, catalog.CategoryRAM, catalog.CategorySFP}, snap.Categories())
	assert.Len(t, snap.All(), 4)
	assert.Equal(t, catalog.CategoryCPU, snap.All()[0].Category)
}

func TestObserversSeeEveryMutation(t *testing.T) {
	var counts []int
	cfg := New("cfg", WithObserver(func(s Snapshot) {
		counts = append(counts, s.Count(catalog.CategoryRAM))
	}))

	a, err := cfg.Add(Component{Category: catalog.CategoryRAM, ComponentID: "r1"})
	require.NoError(t, err)
	_, err = cfg.Add(Component{Category: catalog.CategoryRAM, ComponentID: "r2"})
	require.NoError(t, err)
	require.NoError(t, cfg.Remove(catalog.CategoryRAM, a.InstanceID))
	cfg.Replace(nil)

	assert.Equal(t, []int{1, 2, 1, 0}, counts)
}

func TestConcurrentMutations(t *testing.T) {
	cfg := New("cfg")
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cfg.Add(Component{Category: catalog.CategoryStorage, ComponentID: "s"})
			_ = cfg.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, cfg.Count(catalog.CategoryStorage))
}
