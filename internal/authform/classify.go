package authform

import (
	"errors"
	"sort"
	"strings"

	"github.com/BuzzLyutic/taskdesk/internal/api"
	"github.com/BuzzLyutic/taskdesk/internal/session"
)

type Kind int

const (
	KindGeneric Kind = iota
	KindInvalidCredentials
	KindValidation
)

const (
	MsgInvalidCredentials = "Wrong username or password."
	MsgUsernameTaken      = "This username is already taken. Please choose another one."
	MsgFixFields          = "Please correct the highlighted fields."
	MsgUnavailable        = "Unable to reach the server. Please try again later."
	MsgGeneric            = "An error occurred. Please try again."
)

// FormError is what a form shows after a failed submission.
type FormError struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *FormError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *FormError) Unwrap() error { return e.Err }

func (e *FormError) Flash() Flash {
	return Flash{Message: e.Message, Fields: e.Fields}
}

// Classify turns a submission error into a FormError. Invalid credentials
// are only recognised on the login form.
func Classify(err error, login bool) *FormError {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe
	}

	var fieldErr *api.FieldError
	switch {
	case login && errors.Is(err, api.ErrInvalidCredentials):
		return &FormError{Kind: KindInvalidCredentials, Message: MsgInvalidCredentials, Err: err}
	case errors.As(err, &fieldErr):
		return &FormError{Kind: KindValidation, Message: MsgFixFields, Fields: fieldMessages(fieldErr.Fields), Err: err}
	case errors.Is(err, session.ErrUnavailable):
		return &FormError{Kind: KindGeneric, Message: MsgUnavailable, Err: err}
	default:
		return &FormError{Kind: KindGeneric, Message: MsgGeneric, Err: err}
	}
}

func fieldMessages(fields map[string][]string) map[string]string {
	out := make(map[string]string, len(fields))
	for field, msgs := range fields {
		if field == "username" && containsFold(msgs, "already exists") {
			out[field] = MsgUsernameTaken
			continue
		}
		out[field] = strings.Join(msgs, " ")
	}
	return out
}

func containsFold(msgs []string, sub string) bool {
	for _, m := range msgs {
		if strings.Contains(strings.ToLower(m), sub) {
			return true
		}
	}
	return false
}
