package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRefreshRejected    = errors.New("refresh token rejected")
)

// StatusError is an HTTP response the caller did not expect.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// FieldError carries the per-field messages of a 400 response.
type FieldError struct {
	Fields model.FieldErrors
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// statusError maps a response the caller did not expect. 5xx counts as
// the remote being unavailable.
func statusError(code int, body []byte) error {
	err := &StatusError{Code: code, Body: string(body)}
	if code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %w", session.ErrUnavailable, err)
	}
	return err
}
