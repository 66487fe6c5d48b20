package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/dmehra2102/restaurant-chatbot/internal/apperr"
	orderdomain "github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
	"github.com/dmehra2102/restaurant-chatbot/internal/payment/domain"
	"github.com/dmehra2102/restaurant-chatbot/pkg/tracing"
)

// MinorUnitsPerMajor converts the chat's whole-naira amounts to kobo for the gateway.
const MinorUnitsPerMajor = 100

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type InitializeInput struct {
	Amount      int64
	Email       string
	OrderID     string
	SessionID   string
	CallbackURL string
}

type Outcome struct {
	Reference string
	OrderID   string
	Succeeded bool
	Order     *orderdomain.Order
}

type Service struct {
	log     *slog.Logger
	repo    PaymentRepository
	gateway Gateway
	orders  OrderBook
	dedupe  Deduper
	now     func() time.Time
}

type Option func(*Service)

func WithDeduper(d Deduper) Option {
	return func(s *Service) { s.dedupe = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(log *slog.Logger, repo PaymentRepository, gateway Gateway, orders OrderBook, opts ...Option) *Service {
	s := &Service{
		log:     log,
		repo:    repo,
		gateway: gateway,
		orders:  orders,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func ValidateInitialize(in InitializeInput) error {
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidInput)
	}
	if !emailPattern.MatchString(in.Email) {
		return fmt.Errorf("%w: invalid email", apperr.ErrInvalidInput)
	}
	if in.OrderID == "" {
		return fmt.Errorf("%w: orderId is required", apperr.ErrInvalidInput)
	}
	return nil
}

func Reference(orderID string, at time.Time) string {
	return fmt.Sprintf("order_%s_%d", orderID, at.UnixMilli())
}

// Initialize opens a gateway transaction for a placed order of the session.
func (s *Service) Initialize(ctx context.Context, in InitializeInput) (Authorization, error) {
	if err := ValidateInitialize(in); err != nil {
		return Authorization{}, err
	}

	order, err := s.orders.Lookup(ctx, in.SessionID, in.OrderID)
	if err != nil {
		return Authorization{}, err
	}
	if order.PaidAt != nil {
		return Authorization{}, fmt.Errorf("%w: order %s is already paid", apperr.ErrPreconditionFailed, order.ID)
	}
	if in.Amount != order.Total {
		return Authorization{}, fmt.Errorf("%w: amount %d does not match order total %d", apperr.ErrInvalidInput, in.Amount, order.Total)
	}

	now := s.now()
	ref := Reference(order.ID, now)
	auth, err := s.gateway.Initialize(ctx, InitializeRequest{
		AmountMinor: in.Amount * MinorUnitsPerMajor,
		Email:       in.Email,
		Reference:   ref,
		CallbackURL: in.CallbackURL,
		Metadata:    map[string]string{"orderId": order.ID, "sessionId": in.SessionID},
	})
	if err != nil {
		s.log.Error("payment initialize failed", "order_id", order.ID, "err", err)
		return Authorization{}, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	if auth.Reference == "" {
		auth.Reference = ref
	}

	p := domain.Payment{
		Reference:        auth.Reference,
		OrderID:          order.ID,
		SessionID:        in.SessionID,
		Email:            in.Email,
		Amount:           in.Amount,
		Status:           domain.StatusInitialized,
		AuthorizationURL: auth.AuthorizationURL,
		AccessCode:       auth.AccessCode,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	payload, _ := json.Marshal(domain.PaymentInitialized{Reference: p.Reference, OrderID: p.OrderID, Amount: p.Amount})
	if err := s.repo.SaveWithOutbox(ctx, p, domain.EventPaymentInitialized, payload, tracing.Traceparent(ctx)); err != nil {
		s.log.Error("payment ledger write failed", "reference", p.Reference, "err", err)
	}

	s.log.Info("payment initialized", "order_id", order.ID, "reference", auth.Reference)
	return auth, nil
}

// Verify asks the gateway for the outcome of reference and merges a success
// into the session history. Replaying a success is harmless.
func (s *Service) Verify(ctx context.Context, reference string) (Outcome, error) {
	if reference == "" {
		return Outcome{}, fmt.Errorf("%w: reference is required", apperr.ErrInvalidInput)
	}

	v, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.log.Error("payment verify failed", "reference", reference, "err", err)
		return Outcome{}, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}

	ledger, ledgerErr := s.repo.Get(ctx, reference)
	if ledgerErr != nil && !errors.Is(ledgerErr, apperr.ErrNotFound) {
		s.log.Error("payment ledger read failed", "reference", reference, "err", ledgerErr)
	}
	orderID, sessionID := v.Metadata["orderId"], v.Metadata["sessionId"]
	if ledgerErr == nil {
		if orderID == "" {
			orderID = ledger.OrderID
		}
		if sessionID == "" {
			sessionID = ledger.SessionID
		}
	}
	if orderID == "" || sessionID == "" {
		return Outcome{}, fmt.Errorf("payment %s: %w", reference, apperr.ErrNotFound)
	}

	out := Outcome{Reference: reference, OrderID: orderID}
	now := s.now()
	if ledgerErr != nil {
		ledger = domain.Payment{
			Reference: reference,
			OrderID:   orderID,
			SessionID: sessionID,
			Amount:    v.AmountMinor / MinorUnitsPerMajor,
			CreatedAt: now,
		}
	}

	if v.Status != GatewaySuccess {
		if finalFailure(v.Status) && ledger.Status != domain.StatusFailed {
			payload, _ := json.Marshal(domain.PaymentFailed{Reference: reference, OrderID: orderID, Reason: v.Status})
			if err := s.repo.SaveWithOutbox(ctx, ledger.WithStatus(domain.StatusFailed, now), domain.EventPaymentFailed, payload, tracing.Traceparent(ctx)); err != nil {
				s.log.Error("payment ledger write failed", "reference", reference, "err", err)
			}
		}
		s.log.Info("payment not successful", "reference", reference, "status", v.Status)
		return out, nil
	}

	paidAt := v.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	order, changed, err := s.orders.ConfirmPayment(ctx, sessionID, orderID, paidAt)
	if err != nil {
		return Outcome{}, err
	}
	out.Succeeded = true
	out.Order = &order

	// The ledger, not the session merge, decides whether PaymentSucceeded is still owed,
	// so a failed write is repaired by the next verify.
	if ledgerErr != nil || ledger.Status != domain.StatusSucceeded {
		s.recordSuccess(ctx, ledger.WithStatus(domain.StatusSucceeded, now), order, paidAt)
	}
	s.log.Info("payment verified", "reference", reference, "order_id", orderID, "first", changed)
	return out, nil
}

// Paystack statuses after which the transaction can no longer succeed.
var failedStatuses = map[string]struct{}{
	"failed":    {},
	"abandoned": {},
	"reversed":  {},
}

func finalFailure(status string) bool {
	_, ok := failedStatuses[status]
	return ok
}

// recordSuccess queues PaymentSucceeded once. The dedupe key is claimed before the
// write and released when the write fails.
func (s *Service) recordSuccess(ctx context.Context, p domain.Payment, order orderdomain.Order, paidAt time.Time) {
	var key string
	if s.dedupe != nil {
		key = s.dedupe.Key("payment", p.Reference)
		seen, err := s.dedupe.Seen(ctx, key)
		if err != nil {
			s.log.Error("idempotency check failed", "reference", p.Reference, "err", err)
			key = ""
		} else if seen {
			return
		}
	}

	payload, _ := json.Marshal(domain.PaymentSucceeded{Reference: p.Reference, OrderID: p.OrderID, Amount: order.Total, PaidAt: paidAt.UTC()})
	err := s.repo.SaveWithOutbox(ctx, p, domain.EventPaymentSucceeded, payload, tracing.Traceparent(ctx))
	if err == nil {
		return
	}
	s.log.Error("payment ledger write failed", "reference", p.Reference, "err", err)
	if key != "" {
		if err := s.dedupe.Forget(ctx, key); err != nil {
			s.log.Error("idempotency release failed", "reference", p.Reference, "err", err)
		}
	}
}
