// Package session persists the TradeCo authentication token and the cached
// user profile between façade calls. A Store sits on top of a pluggable
// key/value Storage: MemoryStorage for tests and short-lived processes,
// FileStorage for CLIs that need the session to survive restarts. The keys
// mirror the browser client ("token" holds the raw token, "user" holds JSON).
package session
