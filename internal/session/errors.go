package session

import "errors"

var (
	// ErrNotAuthenticated is returned for operations that need a resolved
	// participant when none exists.
	ErrNotAuthenticated = errors.New("not_authenticated")
	// ErrSessionExpired is returned when the backend reports the queue
	// entry is gone while the local state was still waiting.
	ErrSessionExpired = errors.New("session_expired")
	// ErrNotConnected is returned for partner-scoped operations outside a
	// connected session.
	ErrNotConnected = errors.New("not_connected")
)
