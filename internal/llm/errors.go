package llm

import "errors"

var (
	// ErrTransport covers network failures and timeouts before a valid
	// backend response is received.
	ErrTransport = errors.New("transport error")

	// ErrBackend covers non-success responses and malformed bodies.
	ErrBackend = errors.New("backend error")

	// ErrAuthorization is returned when the backend rejects credentials.
	ErrAuthorization = errors.New("authorization rejected")
)
