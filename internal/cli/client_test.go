package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/restaurant-chatbot/pkg/sessionid"
)

func TestClient_AdoptsIssuedSession(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get(sessionid.Header))
		w.Header().Set(sessionid.Header, "issued")
		_, _ = w.Write([]byte(`{"sessionId":"issued","response":"ok","options":""}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Send(context.Background(), "97")
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "98")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "issued"}, seen)
	assert.Equal(t, "issued", c.Session())
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Order not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "s1").Schedule(context.Background(), "nope", time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Order not found", apiErr.Message)
}
