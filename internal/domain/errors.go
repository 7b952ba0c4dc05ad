package domain

import "errors"

var (
	// ErrUnauthenticated is returned when no signed-in user is available.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNotFound is returned when a referenced conversation is absent.
	ErrNotFound = errors.New("conversation not found")
)
