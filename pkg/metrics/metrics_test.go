package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "chat")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", Handler(reg))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/def", nil))
	m.ObserveCommand("")
	m.ObserveCommand("invalid_input")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Requests.WithLabelValues("/orders/{id}", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Commands.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Commands.WithLabelValues("invalid_input")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "chatbot_chat_commands_total"))
}

func TestMiddlewareUnmatchedPathsShareOneSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "chat")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {})

	for i := 0; i < 20; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/scan/"+strings.Repeat("x", i+1), nil))
	}

	assert.Equal(t, 1, testutil.CollectAndCount(m.Requests))
	assert.Equal(t, float64(20), testutil.ToFloat64(m.Requests.WithLabelValues(unmatchedRoute, "404")))
}
