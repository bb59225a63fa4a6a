package shared

import "errors"

var (
	// ErrSessionMissing indicates the request carries no session.
	ErrSessionMissing = errors.New("session missing")
	// ErrCSRFTokenMissing occurs when no CSRF token was submitted.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when the submitted token is not the session's.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
