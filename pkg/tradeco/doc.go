// Package tradeco is the Go client for the TradeCo marketplace REST API.
//
// Each Client method maps one user action to exactly one HTTP request and
// returns a Result: the backend's {success, message, data} envelope decoded
// into a typed value. Methods never return a Go error. Local precondition
// failures (no session token) and transport failures are folded into a
// failed Result whose Kind tells them apart. Login, Register and
// UpdateMyProfile write through to the session.Store the client was built
// with.
package tradeco
