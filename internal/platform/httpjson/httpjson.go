// Package httpjson writes JSON bodies and maps application errors to status codes.
package httpjson

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmehra2102/restaurant-chatbot/internal/apperr"
)

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// Error writes {"error": msg} with the status apperr assigns to err. Server-side
// classes are logged; their details never reach the body.
func Error(w http.ResponseWriter, log *slog.Logger, err error, msg string) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "kind", apperr.Kind(err), "err", err)
	}
	Write(w, status, errorBody{Error: msg})
}

// Decode reads a JSON body capped at 64 KiB.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	return dec.Decode(v)
}
