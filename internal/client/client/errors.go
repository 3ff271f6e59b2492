package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRejected wraps authoritative backend refusals (validation, duplicate
	// account). Callers must not retry them.
	ErrRejected              = errors.New("rejected by server")
	ErrNotFound              = errors.New("not found")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)
