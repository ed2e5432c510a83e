package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

func records() []catalog.Record {
	return catalog.Normalize(catalog.CategoryNIC, catalog.NewDocument([]any{
		map[string]any{"uuid": "n1", "model": "X710"},
		map[string]any{"uuid": "n2", "model": "E810"},
	}))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		category catalog.Category
		id       string
		wantErr  bool
		wantName string
	}{
		{name: "hit", category: catalog.CategoryNIC, id: "n2", wantName: "E810"},
		{name: "miss", category: catalog.CategoryNIC, id: "n3", wantErr: true},
		{name: "wrong category", category: catalog.CategoryCPU, id: "n1", wantErr: true},
		{name: "empty id", category: catalog.CategoryNIC, id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Resolve(tt.category, tt.id, records())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeComponentNotFound))
				assert.Equal(t, UnknownLabel, Label(tt.category, tt.id, records()))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, r.ID)
			assert.Equal(t, tt.wantName, Label(tt.category, tt.id, records()))
		})
	}
}

func TestResolveNilRecords(t *testing.T) {
	_, err := Resolve(catalog.CategoryNIC, "n1", nil)
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	idx := NewIndex(catalog.CategoryNIC, records())
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, catalog.CategoryNIC, idx.Category())

	r, err := idx.Resolve("n1")
	require.NoError(t, err)
	assert.Equal(t, "X710", r.DisplayName)
	assert.Equal(t, "E810", idx.Label("n2"))
	assert.Equal(t, UnknownLabel, idx.Label("missing"))

	var empty *Index
	assert.Equal(t, 0, empty.Len())
	_, err = empty.Resolve("n1")
	assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeComponentNotFound))
}
