package services

import (
	crerr "github.com/cockroachdb/errors"
)

var (
	ErrNoAuthenticatedUser = crerr.New("no authenticated user")
	ErrInvalidInput        = crerr.New("invalid input")
	// ErrPersistReverted marks a failed write whose optimistic state was
	// rolled back to the pre-write profile.
	ErrPersistReverted = crerr.New("persist failed, reverted")
	// ErrPersistReconciled marks a failed write after which a recovery read
	// returned a usable record that is now canonical.
	ErrPersistReconciled = crerr.New("persist failed, reconciled from partial state")
	// ErrPersistSuperseded marks a failed write whose outcome was not
	// applied because newer state had already been published.
	ErrPersistSuperseded = crerr.New("persist failed, superseded by a newer change")
)
