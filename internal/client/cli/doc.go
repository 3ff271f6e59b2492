// Package cli provides the interactive profilesync command-line client.
//
// NewApp wires configuration, the local SQLite store, the gRPC backend, the
// SessionManager and the dashboard loader. Run bootstraps the session,
// waits for the splash, starts a background connectivity watcher and then
// serves the REPL until the user exits.
//
// Commands:
//   - register, login, logout
//   - profile, refresh, dashboard
//   - complete, unlock, name, onboard
package cli
