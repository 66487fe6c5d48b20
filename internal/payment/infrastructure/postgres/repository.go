package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/restaurant-chatbot/internal/apperr"
	"github.com/dmehra2102/restaurant-chatbot/internal/payment/domain"
	platformpg "github.com/dmehra2102/restaurant-chatbot/internal/platform/postgres"
	"github.com/dmehra2102/restaurant-chatbot/pkg/outbox"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// SaveWithOutbox upserts the payment row and queues eventType in the same transaction.
func (r *Repository) SaveWithOutbox(ctx context.Context, p domain.Payment, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO payments (reference, order_id, session_id, email, amount, status, authorization_url, access_code, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (reference) DO UPDATE SET status=$6, updated_at=$10`,
		p.Reference, p.OrderID, p.SessionID, p.Email, p.Amount, string(p.Status), p.AuthorizationURL, p.AccessCode, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}

	headers := outbox.SessionHeaders(p.SessionID)
	headers["order_id"] = p.OrderID
	if err := platformpg.InsertOutbox(ctx, tx, outbox.AggregatePayment, p.Reference, eventType, payload, headers, traceparent); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Get(ctx context.Context, reference string) (domain.Payment, error) {
	var p domain.Payment
	var status string
	err := r.pool.QueryRow(ctx, `SELECT reference, order_id, session_id, email, amount, status, authorization_url, access_code, created_at, updated_at
		FROM payments WHERE reference=$1`, reference).
		Scan(&p.Reference, &p.OrderID, &p.SessionID, &p.Email, &p.Amount, &status, &p.AuthorizationURL, &p.AccessCode, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Payment{}, fmt.Errorf("payment %s: %w", reference, apperr.ErrNotFound)
	}
	if err != nil {
		return domain.Payment{}, err
	}
	p.Status = domain.Status(status)
	return p, nil
}
