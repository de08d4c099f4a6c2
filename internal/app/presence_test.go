package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Ring/internal/domain"
)

func mustUser(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(domain.UserID(id), "")
	require.NoError(t, err)
	return u
}

func TestPresenceLastWriterWins(t *testing.T) {
	p := NewPresence()
	u := mustUser(t, "u1")
	a := newFakeConn("a")
	b := newFakeConn("b")

	prev := p.Register(u, a)
	assert.Nil(t, prev)
	prev = p.Register(u, b)
	require.NotNil(t, prev)
	assert.Equal(t, a.ID(), prev.ID())

	conn, ok := p.Resolve("u1")
	require.True(t, ok)
	assert.Equal(t, b.ID(), conn.ID())
	assert.Equal(t, 1, p.Count())
}

func TestPresenceUnregisterGuardsConnID(t *testing.T) {
	p := NewPresence()
	u := mustUser(t, "u1")
	a := newFakeConn("a")
	b := newFakeConn("b")

	p.Register(u, a)
	p.Register(u, b)

	assert.False(t, p.Unregister("u1", a.ID()), "stale conn cannot evict the live one")
	_, ok := p.Resolve("u1")
	assert.True(t, ok)

	assert.True(t, p.Unregister("u1", b.ID()))
	_, ok = p.Resolve("u1")
	assert.False(t, ok)
}

func TestBusyTrackerSymmetry(t *testing.T) {
	b := NewBusyTracker()
	b.Set("u1", "u2", "u3")
	assert.Equal(t, 3, b.Count())
	assert.Equal(t, []domain.UserID{"u2"}, b.Filter([]domain.UserID{"u2", "u4"}))

	b.Clear("u1", "u2", "u3")
	assert.Equal(t, 0, b.Count())
	assert.False(t, b.IsBusy("u1"))

	// Clearing users that were never set is harmless.
	b.Clear("ghost")
	assert.Equal(t, 0, b.Count())
}
