// Package services holds the SessionManager, the single owner of the
// signed-in user's profile on this device.
//
// The manager bootstraps the session at startup (restoring the local
// backup first, then asking the backend), listens for pushed auth events,
// and is the only write path for profile changes. Every state change goes
// through a change guard that drops updates which do not alter any
// visible field, and every accepted change is mirrored into the local
// backup store.
//
// Profile writes are optimistic: the merged result is published before
// the backend confirms it. On failure the manager tries a recovery read
// and falls back to the pre-write snapshot. Returned errors carry one of
// the kinds ErrNoAuthenticatedUser, ErrInvalidInput, ErrPersistReverted,
// ErrPersistReconciled or ErrPersistSuperseded; test them with errors.Is from
// github.com/cockroachdb/errors.
package services
