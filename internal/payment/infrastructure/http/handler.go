package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/restaurant-chatbot/internal/apperr"
	"github.com/dmehra2102/restaurant-chatbot/internal/payment/application"
	"github.com/dmehra2102/restaurant-chatbot/internal/platform/httpjson"
	"github.com/dmehra2102/restaurant-chatbot/pkg/sessionid"
)

const verifyPath = "/api/payment/verify"

type PaymentService interface {
	Initialize(ctx context.Context, in application.InitializeInput) (application.Authorization, error)
	Verify(ctx context.Context, reference string) (application.Outcome, error)
}

type Handler struct {
	log       *slog.Logger
	service   PaymentService
	publicURL string
	tracer    trace.Tracer
}

// NewHandler builds the payment routes. An empty publicURL derives the gateway
// callback from the request host.
func NewHandler(log *slog.Logger, service PaymentService, publicURL string) *Handler {
	return &Handler{
		log:       log,
		service:   service,
		publicURL: strings.TrimRight(publicURL, "/"),
		tracer:    otel.Tracer("payment-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/initialize", h.initialize)
	r.Get("/verify", h.verifyRedirect)
	r.Post("/verify", h.verifyJSON)
	return r
}

type initializeReq struct {
	Amount  int64  `json:"amount"`
	Email   string `json:"email"`
	OrderID string `json:"orderId"`
}

type initializeResp struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "InitializePayment")
	defer span.End()

	var req initializeReq
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.log, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err), "Invalid payment details")
		return
	}
	span.SetAttributes(attribute.String("order.id", req.OrderID))

	auth, err := h.service.Initialize(ctx, application.InitializeInput{
		Amount:      req.Amount,
		Email:       req.Email,
		OrderID:     req.OrderID,
		SessionID:   sessionid.FromContext(ctx),
		CallbackURL: h.callbackURL(r),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.Kind(err))
		httpjson.Error(w, h.log, err, initializeErrorMessage(err))
		return
	}

	httpjson.Write(w, http.StatusOK, initializeResp{
		AuthorizationURL: auth.AuthorizationURL,
		AccessCode:       auth.AccessCode,
		Reference:        auth.Reference,
	})
}

func initializeErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return "Invalid payment details"
	case errors.Is(err, apperr.ErrNotFound):
		return "Order not found"
	case errors.Is(err, apperr.ErrPreconditionFailed):
		return "Order is already paid"
	default:
		return "Payment initialization failed"
	}
}

func (h *Handler) callbackURL(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL + verifyPath
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host + verifyPath
}

// verifyRedirect is the browser callback the gateway sends the customer back to.
func (h *Handler) verifyRedirect(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VerifyPaymentCallback")
	defer span.End()

	ref := r.URL.Query().Get("reference")
	out, err := h.service.Verify(ctx, ref)
	switch {
	case err != nil:
		span.RecordError(err)
		h.log.Warn("payment callback failed", "reference", ref, "kind", apperr.Kind(err), "err", err)
		http.Redirect(w, r, "/?payment=error", http.StatusFound)
	case out.Succeeded:
		http.Redirect(w, r, "/?payment=success&reference="+url.QueryEscape(ref), http.StatusFound)
	default:
		http.Redirect(w, r, "/?payment=failed", http.StatusFound)
	}
}

type verifyReq struct {
	Reference string `json:"reference"`
}

type verifyResp struct {
	Status    string `json:"status"`
	OrderID   string `json:"orderId"`
	Reference string `json:"reference"`
}

func (h *Handler) verifyJSON(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VerifyPayment")
	defer span.End()

	var req verifyReq
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.log, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err), "Invalid request body")
		return
	}

	out, err := h.service.Verify(ctx, req.Reference)
	if err != nil {
		span.RecordError(err)
		httpjson.Error(w, h.log, err, "Payment verification failed")
		return
	}

	status := "failed"
	if out.Succeeded {
		status = "success"
	}
	httpjson.Write(w, http.StatusOK, verifyResp{Status: status, OrderID: out.OrderID, Reference: out.Reference})
}
