package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmehra2102/restaurant-chatbot/internal/ordering/domain"
	"github.com/dmehra2102/restaurant-chatbot/pkg/sessionid"
)

// Client calls the chat service HTTP API under one session id.
type Client struct {
	base    string
	session string
	http    *http.Client
}

func NewClient(base, session string) *Client {
	return &Client{
		base:    strings.TrimRight(base, "/"),
		session: session,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Session is the id requests are sent under. It is adopted from the first
// response when the client was built without one.
func (c *Client) Session() string { return c.session }

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type PaymentHint struct {
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
}

type MessageReply struct {
	SessionID    string       `json:"sessionId"`
	Response     string       `json:"response"`
	Options      string       `json:"options"`
	CurrentOrder domain.Order `json:"currentOrder"`
	Action       string       `json:"action,omitempty"`
	Payment      *PaymentHint `json:"payment,omitempty"`
}

type PaymentLink struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type VerifyResult struct {
	Status    string `json:"status"`
	OrderID   string `json:"orderId"`
	Reference string `json:"reference"`
}

type ScheduleResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Order   domain.Order `json:"order"`
}

func (c *Client) Send(ctx context.Context, input string) (MessageReply, error) {
	var out MessageReply
	err := c.do(ctx, http.MethodPost, "/api/message", map[string]string{"message": input}, &out)
	return out, err
}

func (c *Client) History(ctx context.Context) ([]domain.Order, error) {
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	err := c.do(ctx, http.MethodGet, "/api/history", nil, &out)
	return out.Orders, err
}

func (c *Client) Initialize(ctx context.Context, orderID string, amount int64, email string) (PaymentLink, error) {
	var out PaymentLink
	body := map[string]any{"orderId": orderID, "amount": amount, "email": email}
	err := c.do(ctx, http.MethodPost, "/api/payment/initialize", body, &out)
	return out, err
}

func (c *Client) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	var out VerifyResult
	err := c.do(ctx, http.MethodPost, "/api/payment/verify", map[string]string{"reference": reference}, &out)
	return out, err
}

func (c *Client) Schedule(ctx context.Context, orderID string, at time.Time) (ScheduleResult, error) {
	var out ScheduleResult
	body := map[string]string{"orderId": orderID, "scheduleTime": at.Format(time.RFC3339)}
	err := c.do(ctx, http.MethodPost, "/api/schedule", body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}

	u, err := url.JoinPath(c.base, path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.session != "" {
		req.Header.Set(sessionid.Header, c.session)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if c.session == "" {
		c.session = resp.Header.Get(sessionid.Header)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error    string `json:"error"`
			Response string `json:"response"`
		}
		_ = json.Unmarshal(raw, &e)
		msg := e.Error
		if msg == "" {
			msg = e.Response
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
