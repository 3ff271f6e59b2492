package common

import "errors"

var (
	// ErrTokenExpired is the status message the backend uses for an expired
	// access token; the client refreshes once when it sees it.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
