package tradeco

import (
	"fmt"
)

// Fixed messages for failures detected on the client side.
const (
	MsgConnection         = "connection error"
	MsgMustLogIn          = "must log in"
	MsgMustLogInToPublish = "must log in to publish"
)

// ErrorKind classifies a failed Result.
type ErrorKind int

const (
	// KindNone marks a successful Result.
	KindNone ErrorKind = iota
	// KindRejected means the backend answered with success=false.
	KindRejected
	// KindUnauthenticated means no session token was stored; nothing was sent.
	KindUnauthenticated
	// KindConnection means the request could not be completed.
	KindConnection
	// KindInvalidResponse means the backend answered with something that is
	// not a response envelope, e.g. a proxy error page.
	KindInvalidResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRejected:
		return "rejected"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindConnection:
		return "connection"
	case KindInvalidResponse:
		return "invalid_response"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinels for errors.Is against Result.Err().
var (
	ErrRejected        = &Error{Kind: KindRejected}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrConnection      = &Error{Kind: KindConnection}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
)

// Result is the outcome of a façade call: the response envelope with Data
// decoded into T, plus the client-side classification of any failure.
type Result[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    T        `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`

	// Status is the HTTP status code, or 0 when no response was received.
	Status int `json:"-"`
	// Kind is KindNone exactly when Success is true.
	Kind ErrorKind `json:"-"`
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Success
}

// Err returns nil on success and an *Error describing the failure otherwise.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Message, Status: r.Status, Details: r.Errors}
}

// Error is the error form of a failed Result.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int
	Details []string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("tradeco: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("tradeco: %s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same Kind, so the Err* sentinels work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func failure[T any](kind ErrorKind, message string, status int) Result[T] {
	return Result[T]{Success: false, Message: message, Status: status, Kind: kind}
}

func invalidResponseMessage(status int) string {
	return fmt.Sprintf("unexpected server response (status %d)", status)
}
