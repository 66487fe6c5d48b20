// Package apperr defines the error taxonomy shared by the ordering and
// payment services and how each class is surfaced over HTTP.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrInvalidInput marks malformed client input: an unparseable command,
	// a missing schedule time, a bad email or amount.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPreconditionFailed marks a well-formed request the current state cannot satisfy.
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrNotFound           = errors.New("not found")
	// ErrUpstream marks a failure of the payment gateway.
	ErrUpstream = errors.New("upstream failure")
	ErrInternal = errors.New("internal fault")
)

func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"

	case errors.Is(err, ErrPreconditionFailed):
		return "precondition_failed"

	case errors.Is(err, ErrNotFound):
		return "not_found"

	case errors.Is(err, ErrUpstream):
		return "upstream_failure"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, ErrPreconditionFailed):
		return http.StatusUnprocessableEntity

	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
