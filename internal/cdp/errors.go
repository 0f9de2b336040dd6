package cdp

import (
	"fmt"

	"github.com/Nunley-Media-Group/chrome-cli/errext"
	"github.com/Nunley-Media-Group/chrome-cli/errext/exitcodes"
)

// Kind discriminates the family an Error belongs to.
type Kind int

const (
	// KindConnection means the WebSocket connection could not be established.
	KindConnection Kind = iota
	// KindConnectionTimeout means the connection attempt exceeded its deadline.
	KindConnectionTimeout
	// KindCommandTimeout means a command did not receive a reply in time.
	KindCommandTimeout
	// KindProtocol means the browser returned a CDP protocol-level error.
	KindProtocol
	// KindConnectionClosed means the WebSocket connection closed unexpectedly.
	KindConnectionClosed
	// KindInvalidResponse means a message from the browser failed to parse.
	KindInvalidResponse
	// KindReconnectFailed means every reconnect attempt was exhausted.
	KindReconnectFailed
	// KindInternal covers transport-internal failures, e.g. a dead worker.
	KindInternal
)

// Error is the error type every exported cdp operation returns.
type Error struct {
	Kind Kind

	// Connection, Protocol, InvalidResponse, Internal
	Message string
	// CommandTimeout
	Method string
	// Protocol
	Code int64
	// ReconnectFailed
	Attempts  int
	LastError string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConnection:
		return fmt.Sprintf("CDP connection error: %s", e.Message)
	case KindConnectionTimeout:
		return "CDP connection timed out"
	case KindCommandTimeout:
		return fmt.Sprintf("CDP command timed out: %s", e.Method)
	case KindProtocol:
		return fmt.Sprintf("CDP protocol error (%d): %s", e.Code, e.Message)
	case KindConnectionClosed:
		return "CDP connection closed"
	case KindInvalidResponse:
		return fmt.Sprintf("CDP invalid response: %s", e.Message)
	case KindReconnectFailed:
		return fmt.Sprintf("CDP reconnection failed after %d attempts: %s", e.Attempts, e.LastError)
	case KindInternal:
		return fmt.Sprintf("CDP internal error: %s", e.Message)
	default:
		return "CDP unknown error"
	}
}

// ExitCode maps the error kind to the process exit code it should cause.
func (e *Error) ExitCode() exitcodes.ExitCode {
	switch e.Kind {
	case KindConnection, KindConnectionClosed, KindReconnectFailed:
		return exitcodes.ConnectionError
	case KindConnectionTimeout, KindCommandTimeout:
		return exitcodes.TimeoutError
	case KindProtocol:
		return exitcodes.ProtocolError
	default:
		return exitcodes.GeneralError
	}
}

// AsErrext wraps e with its exit code and an actionable hint, ready for
// errext.Fprint at the CLI boundary.
func (e *Error) AsErrext() error {
	err := errext.WithExitCodeIfNone(e, e.ExitCode())
	switch e.Kind {
	case KindConnection, KindConnectionClosed:
		err = errext.WithHint(err, "is Chrome running with --remote-debugging-port?")
	case KindReconnectFailed:
		err = errext.WithHint(err, "the browser did not come back after repeated reconnect attempts")
	case KindConnectionTimeout:
		err = errext.WithHint(err, "check the host/port and that nothing is blocking the connection")
	}
	return err
}

func errConnection(msg string) *Error { return &Error{Kind: KindConnection, Message: msg} }

func errConnectionTimeout() *Error { return &Error{Kind: KindConnectionTimeout} }

func errCommandTimeout(method string) *Error {
	return &Error{Kind: KindCommandTimeout, Method: method}
}

func errProtocol(code int64, msg string) *Error {
	return &Error{Kind: KindProtocol, Code: code, Message: msg}
}

func errConnectionClosed() *Error { return &Error{Kind: KindConnectionClosed} }

func errInvalidResponse(msg string) *Error {
	return &Error{Kind: KindInvalidResponse, Message: msg}
}

func errReconnectFailed(attempts int, lastErr string) *Error {
	return &Error{Kind: KindReconnectFailed, Attempts: attempts, LastError: lastErr}
}

func errInternal(msg string) *Error { return &Error{Kind: KindInternal, Message: msg} }
