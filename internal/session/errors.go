package session

import "errors"

var (
	// ErrAuthExpired means the access token was rejected or has expired.
	// It is the cause recorded when a replayed request is rejected again.
	ErrAuthExpired = errors.New("access token expired")

	// ErrSessionLost means the credentials were cleared and the user has
	// to log in again.
	ErrSessionLost = errors.New("session lost")

	// ErrUnavailable wraps every failure to complete a remote call:
	// transport errors, timeouts and 5xx responses.
	ErrUnavailable = errors.New("remote unavailable")
)
