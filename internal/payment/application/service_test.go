package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/restaurant-chatbot/internal/apperr"
	orderdomain "github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
	"github.com/dmehra2102/restaurant-chatbot/internal/payment/domain"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeBook struct {
	session  string
	orders   map[string]orderdomain.Order
	confirms int
}

func newFakeBook(session string, orders ...orderdomain.Order) *fakeBook {
	b := &fakeBook{session: session, orders: map[string]orderdomain.Order{}}
	for _, o := range orders {
		b.orders[o.ID] = o
	}
	return b
}

func (b *fakeBook) Lookup(_ context.Context, sessionID, orderID string) (orderdomain.Order, error) {
	o, ok := b.orders[orderID]
	if !ok || sessionID != b.session {
		return orderdomain.Order{}, fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
	}
	return o, nil
}

func (b *fakeBook) ConfirmPayment(ctx context.Context, sessionID, orderID string, paidAt time.Time) (orderdomain.Order, bool, error) {
	o, err := b.Lookup(ctx, sessionID, orderID)
	if err != nil {
		return o, false, err
	}
	b.confirms++
	paid, changed := o.MarkPaid(paidAt)
	b.orders[orderID] = paid
	return paid, changed, nil
}

type fakeGateway struct {
	initReq  InitializeRequest
	initErr  error
	verify   Verification
	verifyEr error
}

func (g *fakeGateway) Initialize(_ context.Context, req InitializeRequest) (Authorization, error) {
	g.initReq = req
	if g.initErr != nil {
		return Authorization{}, g.initErr
	}
	return Authorization{AuthorizationURL: "https://pay.example/" + req.Reference, AccessCode: "ac", Reference: req.Reference}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (Verification, error) {
	if g.verifyEr != nil {
		return Verification{}, g.verifyEr
	}
	v := g.verify
	v.Reference = reference
	return v, nil
}

type savedEvent struct {
	payment   domain.Payment
	eventType string
}

type fakeRepo struct {
	payments map[string]domain.Payment
	saved    []savedEvent
	failNext int
}

func newFakeRepo() *fakeRepo { return &fakeRepo{payments: map[string]domain.Payment{}} }

func (r *fakeRepo) SaveWithOutbox(_ context.Context, p domain.Payment, eventType string, _ []byte, _ string) error {
	if r.failNext > 0 {
		r.failNext--
		return errors.New("connection reset")
	}
	r.payments[p.Reference] = p
	r.saved = append(r.saved, savedEvent{payment: p, eventType: eventType})
	return nil
}

func (r *fakeRepo) Get(_ context.Context, reference string) (domain.Payment, error) {
	p, ok := r.payments[reference]
	if !ok {
		return domain.Payment{}, apperr.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) types() []string {
	out := make([]string, 0, len(r.saved))
	for _, s := range r.saved {
		out = append(out, s.eventType)
	}
	return out
}

type fakeDeduper struct{ seen map[string]bool }

func (d *fakeDeduper) Key(scope, id string) string { return scope + ":" + id }

func (d *fakeDeduper) Seen(_ context.Context, key string) (bool, error) {
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

func (d *fakeDeduper) Forget(_ context.Context, key string) error {
	delete(d.seen, key)
	return nil
}

func placedOrder(id string, total int64) orderdomain.Order {
	o := orderdomain.NewOrder(id, t0).WithItem(orderdomain.MenuItem{ID: 3, Name: "Pepper Soup", UnitPrice: total})
	return o.Place(t0)
}

func newTestService(book OrderBook, gw Gateway, repo PaymentRepository, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return t0 })}, opts...)
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, gw, book, opts...)
}

func TestValidateInitialize(t *testing.T) {
	ok := InitializeInput{Amount: 100, Email: "a@b.co", OrderID: "o1"}
	tests := []struct {
		name   string
		mutate func(*InitializeInput)
		valid  bool
	}{
		{"valid", func(*InitializeInput) {}, true},
		{"zero amount", func(in *InitializeInput) { in.Amount = 0 }, false},
		{"negative amount", func(in *InitializeInput) { in.Amount = -5 }, false},
		{"no at sign", func(in *InitializeInput) { in.Email = "ab.co" }, false},
		{"no dot in domain", func(in *InitializeInput) { in.Email = "a@bco" }, false},
		{"space in email", func(in *InitializeInput) { in.Email = "a b@c.co" }, false},
		{"missing order", func(in *InitializeInput) { in.OrderID = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ok
			tt.mutate(&in)
			err := ValidateInitialize(in)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperr.ErrInvalidInput)
			}
		})
	}
}

func TestReference(t *testing.T) {
	assert.Equal(t, fmt.Sprintf("order_o1_%d", t0.UnixMilli()), Reference("o1", t0))
}

func TestInitialize(t *testing.T) {
	book := newFakeBook("sid", placedOrder("o1", 3200))
	gw := &fakeGateway{}
	repo := newFakeRepo()
	svc := newTestService(book, gw, repo)

	auth, err := svc.Initialize(context.Background(), InitializeInput{
		Amount: 3200, Email: "a@b.co", OrderID: "o1", SessionID: "sid", CallbackURL: "http://localhost/api/payment/verify",
	})
	require.NoError(t, err)

	assert.Equal(t, Reference("o1", t0), auth.Reference)
	assert.Equal(t, int64(320000), gw.initReq.AmountMinor)
	assert.Equal(t, map[string]string{"orderId": "o1", "sessionId": "sid"}, gw.initReq.Metadata)
	assert.Equal(t, "http://localhost/api/payment/verify", gw.initReq.CallbackURL)
	assert.Equal(t, []string{domain.EventPaymentInitialized}, repo.types())
	assert.Equal(t, domain.StatusInitialized, repo.payments[auth.Reference].Status)
}

func TestInitialize_Rejections(t *testing.T) {
	paid, _ := placedOrder("paid", 500).MarkPaid(t0)
	book := newFakeBook("sid", placedOrder("o1", 3200), paid)

	tests := []struct {
		name string
		in   InitializeInput
		want error
	}{
		{"amount mismatch", InitializeInput{Amount: 3100, Email: "a@b.co", OrderID: "o1", SessionID: "sid"}, apperr.ErrInvalidInput},
		{"already paid", InitializeInput{Amount: 500, Email: "a@b.co", OrderID: "paid", SessionID: "sid"}, apperr.ErrPreconditionFailed},
		{"unknown order", InitializeInput{Amount: 500, Email: "a@b.co", OrderID: "zzz", SessionID: "sid"}, apperr.ErrNotFound},
		{"other session", InitializeInput{Amount: 3200, Email: "a@b.co", OrderID: "o1", SessionID: "intruder"}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			repo := newFakeRepo()
			_, err := newTestService(book, gw, repo).Initialize(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, gw.initReq.Reference)
			assert.Empty(t, repo.saved)
		})
	}
}

func TestInitialize_GatewayFailure(t *testing.T) {
	book := newFakeBook("sid", placedOrder("o1", 3200))
	gw := &fakeGateway{initErr: errors.New("connection refused")}
	repo := newFakeRepo()

	_, err := newTestService(book, gw, repo).Initialize(context.Background(), InitializeInput{
		Amount: 3200, Email: "a@b.co", OrderID: "o1", SessionID: "sid",
	})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Empty(t, repo.saved)
}

func TestVerify_RequiresReference(t *testing.T) {
	_, err := newTestService(newFakeBook("sid"), &fakeGateway{}, newFakeRepo()).Verify(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestVerify_SuccessIsIdempotent(t *testing.T) {
	book := newFakeBook("sid", placedOrder("o1", 3200))
	gw := &fakeGateway{verify: Verification{Status: GatewaySuccess, AmountMinor: 320000, PaidAt: t0.Add(time.Minute),
		Metadata: map[string]string{"orderId": "o1", "sessionId": "sid"}}}
	repo := newFakeRepo()
	svc := newTestService(book, gw, repo)
	ref := Reference("o1", t0)

	first, err := svc.Verify(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, first.Succeeded)
	require.NotNil(t, first.Order)
	assert.Equal(t, orderdomain.StatusPaid, first.Order.Status)
	require.NotNil(t, first.Order.PaidAt)
	assert.Equal(t, t0.Add(time.Minute), *first.Order.PaidAt)

	second, err := svc.Verify(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, second.Succeeded)
	assert.Equal(t, *first.Order.PaidAt, *second.Order.PaidAt)

	assert.Equal(t, []string{domain.EventPaymentSucceeded}, repo.types())
	assert.Equal(t, 2, book.confirms)
}

func TestVerify_DeduperGatesEvent(t *testing.T) {
	book := newFakeBook("sid", placedOrder("o1", 3200))
	gw := &fakeGateway{verify: Verification{Status: GatewaySuccess, Metadata: map[string]string{"orderId": "o1", "sessionId": "sid"}}}
	repo := newFakeRepo()
	dd := &fakeDeduper{seen: map[string]bool{"payment:ref-1": true}}

	out, err := newTestService(book, gw, repo, WithDeduper(dd)).Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.Equal(t, orderdomain.StatusPaid, book.orders["o1"].Status)
	assert.Empty(t, repo.saved)
}

func TestVerify_FailureLeavesOrder(t *testing.T) {
	book := newFakeBook("sid", placedOrder("o1", 3200))
	gw := &fakeGateway{verify: Verification{Status: "abandoned", Metadata: map[string]string{"orderId": "o1", "sessionId": "sid"}}}
	repo := newFakeRepo()

	out, err := newTestService(book, gw, repo).Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.False(t, out.Succeeded)
	assert.Nil(t, out.Order)
	assert.Equal(t, 0, book.confirms)
	assert.Equal(t, orderdomain.StatusPlaced, book.orders["o1"].Status)
	assert.Equal(t, []string{domain.EventPaymentFailed}, repo.types())
	assert.Equal(t, domain.StatusFailed, repo.payments["ref-1"].Status)
}

func TestVerify_PendingStatusKeepsLedger(t *testing.T) {
	book := newFakeBook("sid", placedOrder("o1", 3200))
	gw := &fakeGateway{verify: Verification{Status: "ongoing", Metadata: map[string]string{"orderId": "o1", "sessionId": "sid"}}}
	repo := newFakeRepo()
	repo.payments["ref-1"] = domain.Payment{Reference: "ref-1", OrderID: "o1", SessionID: "sid", Status: domain.StatusInitialized}

	out, err := newTestService(book, gw, repo).Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.False(t, out.Succeeded)
	assert.Equal(t, 0, book.confirms)
	assert.Empty(t, repo.saved)
	assert.Equal(t, domain.StatusInitialized, repo.payments["ref-1"].Status)
}

func TestVerify_RetriesLedgerWriteAfterFailure(t *testing.T) {
	book := newFakeBook("sid", placedOrder("o1", 3200))
	gw := &fakeGateway{verify: Verification{Status: GatewaySuccess, Metadata: map[string]string{"orderId": "o1", "sessionId": "sid"}}}
	repo := newFakeRepo()
	repo.payments["ref-1"] = domain.Payment{Reference: "ref-1", OrderID: "o1", SessionID: "sid", Status: domain.StatusInitialized}
	repo.failNext = 1
	dd := &fakeDeduper{seen: map[string]bool{}}
	svc := newTestService(book, gw, repo, WithDeduper(dd))

	first, err := svc.Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.True(t, first.Succeeded)
	assert.Empty(t, repo.saved)
	assert.NotContains(t, dd.seen, "payment:ref-1")

	second, err := svc.Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.True(t, second.Succeeded)
	assert.Equal(t, []string{domain.EventPaymentSucceeded}, repo.types())
	assert.Equal(t, domain.StatusSucceeded, repo.payments["ref-1"].Status)

	_, err = svc.Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Len(t, repo.saved, 1)
}

func TestVerify_FallsBackToLedger(t *testing.T) {
	book := newFakeBook("sid", placedOrder("o1", 3200))
	gw := &fakeGateway{verify: Verification{Status: GatewaySuccess}}
	repo := newFakeRepo()
	repo.payments["ref-1"] = domain.Payment{Reference: "ref-1", OrderID: "o1", SessionID: "sid", Status: domain.StatusInitialized}

	out, err := newTestService(book, gw, repo).Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.Equal(t, "o1", out.OrderID)
	assert.Equal(t, domain.StatusSucceeded, repo.payments["ref-1"].Status)
}

func TestVerify_UnknownReference(t *testing.T) {
	gw := &fakeGateway{verify: Verification{Status: GatewaySuccess}}
	_, err := newTestService(newFakeBook("sid"), gw, newFakeRepo()).Verify(context.Background(), "ref-x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestVerify_GatewayFailure(t *testing.T) {
	gw := &fakeGateway{verifyEr: errors.New("timeout")}
	_, err := newTestService(newFakeBook("sid"), gw, newFakeRepo()).Verify(context.Background(), "ref-x")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}
