package postgres

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
	platformpg "github.com/dmehra2102/restaurant-chatbot/internal/platform/postgres"
	"github.com/dmehra2102/restaurant-chatbot/pkg/outbox"
	"github.com/dmehra2102/restaurant-chatbot/pkg/tracing"
)

// EventRecorder queues order events in the outbox, all in one transaction.
type EventRecorder struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewEventRecorder(log *slog.Logger, pool *pgxpool.Pool) *EventRecorder {
	return &EventRecorder{log: log, pool: pool}
}

func (r *EventRecorder) Record(ctx context.Context, events []domain.OrderEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	traceparent := tracing.Traceparent(ctx)
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if err := platformpg.InsertOutbox(ctx, tx, outbox.AggregateOrder, ev.Order.ID, string(ev.Type), payload, outbox.SessionHeaders(ev.SessionID), traceparent); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.log.Debug("order events queued", "count", len(events))
	return nil
}
