package cascade

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

func TestSessionRejectsStaleTickets(t *testing.T) {
	s := NewSession(mustDef(t, catalog.CategoryRAM))
	assert.Equal(t, ModeManualEntry, s.State().Mode)

	slow := s.Begin(CatalogLevel)
	fast := s.Begin(CatalogLevel)

	_, err := s.Load(fast, ramRecords(t))
	require.NoError(t, err)

	// the superseded fetch arrives late and must not replace the records
	st, err := s.Load(slow, nil)
	assert.True(t, cberrors.HasCode(err, cberrors.ErrCodeMalformedCascadeSelection))
	assert.Equal(t, ModeCascade, st.Mode)

	first := s.Begin(0)
	second := s.Begin(0)
	_, err = s.Apply(first, "DDR4")
	assert.Error(t, err)
	assert.Empty(t, s.State().Levels[0].Selected)

	st, err = s.Apply(second, "DDR4")
	require.NoError(t, err)
	assert.Equal(t, "DDR4", st.Levels[0].Selected)
}

func TestSessionTicketLevelMustMatch(t *testing.T) {
	s := NewSession(mustDef(t, catalog.CategoryRAM))
	_, err := s.Load(s.Begin(CatalogLevel), ramRecords(t))
	require.NoError(t, err)

	// a catalog ticket cannot be used to select
	_, err = s.Apply(s.Begin(CatalogLevel), "DDR4")
	assert.Error(t, err)

	// nor a level ticket to load
	_, err = s.Load(s.Begin(0), nil)
	assert.Error(t, err)
}

func TestSessionResolve(t *testing.T) {
	s := NewSession(mustDef(t, catalog.CategoryRAM), WithInstanceIDs(func() string { return "inst-1" }))
	_, err := s.Load(s.Begin(CatalogLevel), ramRecords(t))
	require.NoError(t, err)

	for k, v := range []string{"DDR4", "32", "DIMM"} {
		_, err := s.Apply(s.Begin(k), v)
		require.NoError(t, err)
	}

	st, err := s.Resolve(s.Begin(3), "ram-b")
	require.NoError(t, err)
	require.NotNil(t, st.Resolution)
	assert.Equal(t, "inst-1", st.Resolution.InstanceID)
	assert.Equal(t, "ram-b", st.Resolution.Record.ID)
}

func TestSessionConcurrentBegin(t *testing.T) {
	s := NewSession(mustDef(t, catalog.CategoryRAM))

	var wg sync.WaitGroup
	tickets := make(chan Ticket, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tickets <- s.Begin(CatalogLevel)
		}()
	}
	wg.Wait()
	close(tickets)

	accepted := 0
	for tk := range tickets {
		if _, err := s.Load(tk, ramRecords(t)); err == nil {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted, "only the newest ticket applies")
}
