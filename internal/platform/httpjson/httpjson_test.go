package httpjson

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/restaurant-chatbot/internal/apperr"
)

func TestError(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", apperr.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: late", apperr.ErrPreconditionFailed), http.StatusUnprocessableEntity},
		{fmt.Errorf("x: %w", apperr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: down", apperr.ErrUpstream), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(apperr.Kind(tt.err), func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, log, tt.err, "nope")
			assert.Equal(t, tt.want, rec.Code)
			assert.JSONEq(t, `{"error":"nope"}`, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":3}`))
	require.NoError(t, Decode(r, &v))
	assert.Equal(t, 3, v.A)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, Decode(r, &v))
}
