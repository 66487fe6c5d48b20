package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/restaurant-chatbot/internal/apperr"
	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/application"
	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
	"github.com/dmehra2102/restaurant-chatbot/internal/platform/httpjson"
	"github.com/dmehra2102/restaurant-chatbot/pkg/sessionid"
)

// ChatService is the session service as seen by the transport.
type ChatService interface {
	Submit(ctx context.Context, sessionID, raw string) (application.Reply, error)
	History(ctx context.Context, sessionID string) ([]domain.Order, error)
	Schedule(ctx context.Context, sessionID, orderID string, at time.Time) (domain.Order, error)
	Formatter() application.Formatter
}

// CommandObserver counts command outcomes.
type CommandObserver interface {
	ObserveCommand(outcome string)
}

type Handler struct {
	log      *slog.Logger
	service  ChatService
	observer CommandObserver
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, service ChatService, observer CommandObserver) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		observer: observer,
		tracer:   otel.Tracer("ordering-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/message", h.message)
	r.Get("/history", h.history)
	r.Post("/schedule", h.schedule)
	return r
}

type messageReq struct {
	Message json.RawMessage `json:"message"`
}

// text accepts both "3" and 3 so thin clients can post either.
func (m messageReq) text() string {
	var s string
	if err := json.Unmarshal(m.Message, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(m.Message))
}

type paymentHint struct {
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
}

type messageResp struct {
	SessionID    string       `json:"sessionId"`
	Response     string       `json:"response"`
	Options      string       `json:"options"`
	CurrentOrder domain.Order `json:"currentOrder"`
	Action       string       `json:"action,omitempty"`
	Payment      *paymentHint `json:"payment,omitempty"`
}

type faultResp struct {
	Response string `json:"response"`
	Options  string `json:"options"`
}

func (h *Handler) message(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitCommand")
	defer span.End()

	sid := sessionid.FromContext(ctx)
	var req messageReq
	if err := httpjson.Decode(r, &req); err != nil {
		req = messageReq{}
	}

	reply, err := h.service.Submit(ctx, sid, req.text())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		h.log.Error("submit command failed", "session_id", sid, "err", err)
		h.observe(apperr.Kind(err))
		httpjson.Write(w, http.StatusInternalServerError, faultResp{
			Response: "An error occurred. Please try again.",
			Options:  h.service.Formatter().MainOptions(),
		})
		return
	}
	span.SetAttributes(attribute.String("chat.outcome", reply.Outcome))
	h.observe(reply.Outcome)

	resp := messageResp{
		SessionID:    reply.SessionID,
		Response:     reply.Text,
		Options:      reply.Options,
		CurrentOrder: reply.CurrentOrder,
		Action:       string(reply.Action),
	}
	if reply.PayOrder != nil {
		resp.Payment = &paymentHint{OrderID: reply.PayOrder.ID, Amount: reply.PayOrder.Total}
	}
	httpjson.Write(w, http.StatusOK, resp)
}

func (h *Handler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveCommand(outcome)
	}
}

type historyResp struct {
	SessionID string         `json:"sessionId"`
	Orders    []domain.Order `json:"orders"`
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "OrderHistory")
	defer span.End()

	sid := sessionid.FromContext(ctx)
	orders, err := h.service.History(ctx, sid)
	if err != nil {
		span.RecordError(err)
		httpjson.Error(w, h.log, err, "Failed to load order history")
		return
	}
	httpjson.Write(w, http.StatusOK, historyResp{SessionID: sid, Orders: orders})
}

type scheduleReq struct {
	OrderID      string `json:"orderId"`
	ScheduleTime string `json:"scheduleTime"`
}

type scheduleResp struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Order   domain.Order `json:"order"`
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ScheduleOrder")
	defer span.End()

	var req scheduleReq
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.log, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err), "Invalid request body")
		return
	}
	span.SetAttributes(attribute.String("order.id", req.OrderID))

	var at time.Time
	if req.ScheduleTime != "" {
		t, err := parseScheduleTime(req.ScheduleTime, h.service.Formatter().Location)
		if err != nil {
			httpjson.Error(w, h.log, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err), "Invalid schedule time")
			return
		}
		at = t
	}

	order, err := h.service.Schedule(ctx, sessionid.FromContext(ctx), req.OrderID, at)
	if err != nil {
		span.RecordError(err)
		httpjson.Error(w, h.log, err, scheduleErrorMessage(err))
		return
	}

	httpjson.Write(w, http.StatusOK, scheduleResp{
		Success: true,
		Message: "Order scheduled for " + h.service.Formatter().Date(at),
		Order:   order,
	})
}

// localLayout is what an HTML datetime-local input submits.
const localLayout = "2006-01-02T15:04"

// parseScheduleTime accepts RFC 3339, or a zoneless local time read in loc.
func parseScheduleTime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if lt, lerr := time.ParseInLocation(localLayout, s, loc); lerr == nil {
		return lt, nil
	}
	return time.Time{}, err
}

func scheduleErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrPreconditionFailed):
		return "Invalid schedule time"
	case errors.Is(err, apperr.ErrNotFound):
		return "Order not found"
	default:
		return "Failed to schedule order"
	}
}
