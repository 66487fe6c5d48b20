package memory

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/restaurant-chatbot/internal/apperr"
	"github.com/dmehra2102/restaurant-chatbot/internal/payment/domain"
)

func TestRepository_UpsertKeepsOriginalFields(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := domain.Payment{Reference: "r1", OrderID: "o1", SessionID: "s1", Email: "a@b.co", Amount: 900, Status: domain.StatusInitialized, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.SaveWithOutbox(ctx, p, domain.EventPaymentInitialized, nil, ""))

	later := now.Add(time.Minute)
	require.NoError(t, repo.SaveWithOutbox(ctx, domain.Payment{Reference: "r1", Status: domain.StatusSucceeded, UpdatedAt: later},
		domain.EventPaymentSucceeded, nil, ""))

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, got.Status)
	assert.Equal(t, "a@b.co", got.Email)
	assert.Equal(t, later, got.UpdatedAt)

	events := repo.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventPaymentSucceeded, events[1].Type)
}
