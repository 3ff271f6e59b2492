// Package client talks to the profilesync backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): session
//     lookup, password sign-in, sign-up, sign-out, auth change subscription,
//     profile read/write and the secondary lists (goals, badges, history).
//  2. A gRPC implementation (see GRPCClient). Messages are structpb.Struct
//     values, the access token is injected by an interceptor and refreshed
//     once when the backend reports it expired, and a circuit breaker fails
//     calls fast while the backend is down. The session is kept in a
//     SessionStore so it survives restarts; sign-in, sign-out and refresh
//     are broadcast to OnAuthStateChange subscribers, and server-pushed
//     events arrive over the WatchAuth stream.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying the embedded goose migrations.
//
// # Error Handling
//
// Transport failures map to sentinel errors matched with errors.Is:
// ErrUnavailable, ErrUnauthorized, ErrRejected, ErrNotFound and
// ErrLocalDataNotAvailable. FindOne turns ErrNotFound into (nil, nil).
package client
