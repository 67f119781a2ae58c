// Package apperr defines the error kinds surfaced by the board service.
// Callers match kinds with errors.Is; producers attach context with Wrap.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDeserialization    = errors.New("deserialization error")
	ErrParsing            = errors.New("parsing error")
	ErrCommandNotFound    = errors.New("command not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrEntityNotFound     = errors.New("entity not found")
	ErrConflict           = errors.New("aggregate conflict")
	ErrTransaction        = errors.New("transaction error")
	ErrValidation         = errors.New("validation error")
	ErrUnexpected         = errors.New("unexpected error")

	// ErrStopSentinel is returned by an event handler to skip the remaining
	// handlers registered for the same event. The bus does not treat it as a failure.
	ErrStopSentinel = errors.New("stop sentinel")
)

// Wrap tags err with kind. A nil err yields nil.
func Wrap(kind error, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// Newf builds a kind-tagged error from a message.
func Newf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error kind to the status code the HTTP layer answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDeserialization):
		return http.StatusBadRequest
	case errors.Is(err, ErrTransaction):
		return http.StatusBadGateway
	case errors.Is(err, ErrStopSentinel):
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}
