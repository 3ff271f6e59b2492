package cli

import (
	"errors"

	crerr "github.com/cockroachdb/errors"
	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/client/services"
)

var errUsage = errors.New("usage")

type usageError string

func (u usageError) Error() string { return "Usage: " + string(u) }
func (u usageError) Unwrap() error { return errUsage }

// report prints a user-facing message for err; nil is silent.
func report(err error) {
	if err == nil {
		return
	}
	printlnFn(describe(err))
}

func describe(err error) string {
	var usage usageError
	switch {
	case errors.As(err, &usage):
		return usage.Error()
	case crerr.Is(err, services.ErrNoAuthenticatedUser):
		return "Please log in first"
	case crerr.Is(err, services.ErrInvalidInput):
		return "Invalid input: " + err.Error()
	case crerr.Is(err, services.ErrPersistReconciled):
		return "Could not save; profile reloaded from server"
	case crerr.Is(err, services.ErrPersistReverted):
		return "Could not save; changes reverted"
	case crerr.Is(err, services.ErrPersistSuperseded):
		return "Could not save; a newer change is pending"
	case errors.Is(err, client.ErrUnauthorized):
		return "Wrong email or password"
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable, try again later"
	default:
		return "Error: " + err.Error()
	}
}
