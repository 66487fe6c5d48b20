package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
)

func TestSessionStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	state := domain.NewSessionState("o1", time.Now())
	require.NoError(t, s.Put(ctx, "sid", state, time.Hour))

	got, ok, err := s.Get(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.CurrentOrder.ID, got.CurrentOrder.ID)
}

func TestSessionStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()

	state := domain.NewSessionState("o1", time.Now())
	state.CurrentOrder = state.CurrentOrder.WithItem(domain.MenuItem{ID: 3, Name: "Soup", UnitPrice: 100})
	require.NoError(t, s.Put(ctx, "sid", state, time.Hour))

	got, _, _ := s.Get(ctx, "sid")
	got.CurrentOrder.Items[0].Name = "changed"

	again, _, _ := s.Get(ctx, "sid")
	assert.Equal(t, "Soup", again.CurrentOrder.Items[0].Name)
}

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s := NewSessionStore().WithClock(func() time.Time { return now })

	require.NoError(t, s.Put(ctx, "a", domain.NewSessionState("o1", now), time.Hour))
	require.NoError(t, s.Put(ctx, "b", domain.NewSessionState("o2", now), 3*time.Hour))

	now = now.Add(2 * time.Hour)
	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = s.Get(ctx, "b")
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, s.Sweep())
}
