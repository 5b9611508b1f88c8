package session

import "errors"

var (
	// ErrSessionNotFound indicates no session matched the presented token.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired indicates the session exists but has expired.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidSession indicates a malformed session record.
	ErrInvalidSession = errors.New("invalid session")

	// ErrNoToken indicates the request carried no session token.
	ErrNoToken = errors.New("no session token")

	// ErrTokenGeneration indicates token generation failed.
	ErrTokenGeneration = errors.New("session token generation failed")
)
