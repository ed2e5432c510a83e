package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

// stores returns a fresh instance of every implementation.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQL(context.Background(), DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestConfigurationLifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created, err := s.CreateConfiguration(ctx, "rack-a")
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, "rack-a", created.Name)

			res, err := s.AddComponent(ctx, created.ID, catalog.CategoryRAM, "ram-1", 2, ptr.To(1))
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.NotEmpty(t, res.InstanceID)

			_, err = s.AddComponent(ctx, created.ID, catalog.CategoryRAM, "ram-2", 0, nil)
			require.NoError(t, err)
			_, err = s.AddComponent(ctx, created.ID, catalog.CategoryCPU, "cpu-1", 1, nil)
			require.NoError(t, err)

			snap, err := s.GetConfiguration(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "rack-a", snap.Name)
			require.Len(t, snap.Components[catalog.CategoryRAM], 2)
			first := snap.Components[catalog.CategoryRAM][0]
			assert.Equal(t, "ram-1", first.ID)
			assert.Equal(t, 2, first.Quantity)
			assert.Equal(t, 1, ptr.Deref(first.SlotPosition, 0))
			assert.False(t, first.AddedAt.IsZero())
			second := snap.Components[catalog.CategoryRAM][1]
			assert.Equal(t, "ram-2", second.ID)
			assert.Equal(t, 1, second.Quantity)
			assert.Nil(t, second.SlotPosition)
			assert.Equal(t, 3, snap.Count(catalog.CategoryRAM))

			res, err = s.RemoveComponent(ctx, created.ID, catalog.CategoryRAM, first.InstanceID)
			require.NoError(t, err)
			assert.True(t, res.Success)

			snap, err = s.GetConfiguration(ctx, created.ID)
			require.NoError(t, err)
			require.Len(t, snap.Components[catalog.CategoryRAM], 1)
			assert.Equal(t, "ram-2", snap.Components[catalog.CategoryRAM][0].ID)

			list, err := s.ListConfigurations(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, 2, list[0].Components)
		})
	}
}

func TestSingleInstanceRejected(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			cfg, err := s.CreateConfiguration(ctx, "cap")
			require.NoError(t, err)

			_, err = s.AddComponent(ctx, cfg.ID, catalog.CategoryMotherboard, "mb-1", 1, nil)
			require.NoError(t, err)

			res, err := s.AddComponent(ctx, cfg.ID, catalog.CategoryMotherboard, "mb-2", 1, nil)
			assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeStoreOperationFailed))
			assert.False(t, res.Success)
			assert.Equal(t, "Motherboard already present, only one is allowed per configuration", res.Message)

			res, err = s.AddComponent(ctx, cfg.ID, catalog.CategoryChassis, "ch-1", 2, nil)
			assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeStoreOperationFailed))
			assert.False(t, res.Success)

			snap, err := s.GetConfiguration(ctx, cfg.ID)
			require.NoError(t, err)
			assert.Len(t, snap.Components[catalog.CategoryMotherboard], 1)
			assert.Empty(t, snap.Components[catalog.CategoryChassis])
		})
	}
}

func TestStoreErrors(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.GetConfiguration(ctx, "missing")
			assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeNotFound))

			_, err = s.AddComponent(ctx, "missing", catalog.CategoryCPU, "cpu", 1, nil)
			assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeNotFound))

			cfg, err := s.CreateConfiguration(ctx, "errs")
			require.NoError(t, err)

			_, err = s.AddComponent(ctx, cfg.ID, catalog.Category("psu"), "psu", 1, nil)
			assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeInvalidRequest))

			_, err = s.AddComponent(ctx, cfg.ID, catalog.CategoryCPU, "", 1, nil)
			assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeInvalidRequest))

			res, err := s.RemoveComponent(ctx, cfg.ID, catalog.CategoryCPU, "nope")
			assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeStoreOperationFailed))
			assert.Equal(t, "Component not found in configuration", res.Message)
		})
	}
}

func TestInventory(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.PutInventory(ctx,
				InventoryItem{ID: "inv-2", Category: catalog.CategoryRAM, Model: "KSM48R40BD4-32HA", Serial: "SN2"},
				InventoryItem{ID: "inv-1", Category: catalog.CategoryRAM, Model: "KSM48R40BD4-32HA", Serial: "SN1"},
				InventoryItem{ID: "inv-3", Category: catalog.CategoryCPU, Name: "EPYC 9654", Status: StatusInUse},
			))

			items, err := s.ListInventory(ctx, catalog.CategoryRAM, StatusAvailable)
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Equal(t, "inv-1", items[0].ID)

			require.NoError(t, s.ClaimInventory(ctx, "inv-1"))
			err = s.ClaimInventory(ctx, "inv-1")
			assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeStoreOperationFailed))
			err = s.ClaimInventory(ctx, "inv-9")
			assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeNotFound))

			items, err = s.ListInventory(ctx, catalog.CategoryRAM, StatusAvailable)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, "inv-2", items[0].ID)

			all, err := s.ListInventory(ctx, catalog.CategoryRAM, "")
			require.NoError(t, err)
			assert.Len(t, all, 2)

			cfg, err := s.CreateConfiguration(ctx, "labels")
			require.NoError(t, err)
			_, err = s.AddComponent(ctx, cfg.ID, catalog.CategoryRAM, "inv-1", 1, nil)
			require.NoError(t, err)
			snap, err := s.GetConfiguration(ctx, cfg.ID)
			require.NoError(t, err)
			assert.Equal(t, "SN1", snap.Components[catalog.CategoryRAM][0].Label)

			assert.Error(t, s.PutInventory(ctx, InventoryItem{Category: catalog.CategoryRAM}))
		})
	}
}

func TestMemoryListOrder(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(WithMemoryClock(func() time.Time { return now }))
	ctx := context.Background()

	a, err := m.CreateConfiguration(ctx, "a")
	require.NoError(t, err)
	now = now.Add(time.Minute)
	b, err := m.CreateConfiguration(ctx, "b")
	require.NoError(t, err)

	list, err := m.ListConfigurations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)

	now = now.Add(time.Minute)
	_, err = m.AddComponent(ctx, a.ID, catalog.CategoryCPU, "cpu", 1, nil)
	require.NoError(t, err)
	list, err = m.ListConfigurations(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Config{Kind: KindSQLite})
	require.NoError(t, err)
	assert.IsType(t, &SQL{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Kind: KindPostgres})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Kind: "redis"})
	assert.Error(t, err)
}
