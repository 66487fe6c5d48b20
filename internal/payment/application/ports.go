package application

import (
	"context"
	"time"

	orderdomain "github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
	"github.com/dmehra2102/restaurant-chatbot/internal/payment/domain"
)

type PaymentRepository interface {
	SaveWithOutbox(ctx context.Context, p domain.Payment, eventType string, payload []byte, traceparent string) error
	Get(ctx context.Context, reference string) (domain.Payment, error)
}

// OrderBook is the view of session order history the payment flow needs.
type OrderBook interface {
	Lookup(ctx context.Context, sessionID, orderID string) (orderdomain.Order, error)
	ConfirmPayment(ctx context.Context, sessionID, orderID string, paidAt time.Time) (orderdomain.Order, bool, error)
}

type InitializeRequest struct {
	AmountMinor int64
	Email       string
	Reference   string
	CallbackURL string
	Metadata    map[string]string
}

type Authorization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type Verification struct {
	Reference   string
	Status      string
	AmountMinor int64
	PaidAt      time.Time
	Metadata    map[string]string
}

const GatewaySuccess = "success"

type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (Authorization, error)
	Verify(ctx context.Context, reference string) (Verification, error)
}

// Deduper reports whether a key was seen before, recording it if not.
// Forget drops a key whose guarded work did not complete.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
	Key(scope, id string) string
}
