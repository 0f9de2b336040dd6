// Package chrome resolves a reachable Chrome DevTools Protocol endpoint and
// queries its discovery HTTP surface (/json/version, /json/list).
package chrome

import (
	"fmt"

	"github.com/Nunley-Media-Group/chrome-cli/errext"
	"github.com/Nunley-Media-Group/chrome-cli/errext/exitcodes"
)

// Kind discriminates the family a chrome.Error belongs to.
type Kind int

const (
	// KindHTTPError means the discovery HTTP request itself failed.
	KindHTTPError Kind = iota
	// KindParseError means a discovery response body failed to parse.
	KindParseError
	// KindNoActivePort means the DevToolsActivePort sidecar file is missing or unreadable.
	KindNoActivePort
	// KindNotRunning means no Chrome instance could be discovered at all.
	KindNotRunning
	// KindStaleSession means the on-disk session hint no longer points at a live Chrome.
	KindStaleSession
	// KindNoPageTargets means target selection found no "page" target to default to.
	KindNoPageTargets
	// KindTargetNotFound means an explicit --tab value matched no target.
	KindTargetNotFound
)

// Error is the error type every exported chrome operation returns.
type Error struct {
	Kind    Kind
	Message string
	Tab     string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPError:
		return fmt.Sprintf("chrome HTTP error: %s", e.Message)
	case KindParseError:
		return fmt.Sprintf("chrome parse error: %s", e.Message)
	case KindNoActivePort:
		return "DevToolsActivePort file not found"
	case KindNotRunning:
		return fmt.Sprintf("no running Chrome instance found with remote debugging: %s", e.Message)
	case KindStaleSession:
		return fmt.Sprintf("stale session: %s", e.Message)
	case KindNoPageTargets:
		return "no page targets found"
	case KindTargetNotFound:
		return fmt.Sprintf("target not found: %s", e.Tab)
	default:
		return "chrome unknown error"
	}
}

// ExitCode maps the error kind to the process exit code it should cause.
func (e *Error) ExitCode() exitcodes.ExitCode {
	switch e.Kind {
	case KindNoPageTargets, KindTargetNotFound:
		return exitcodes.TargetError
	case KindHTTPError, KindNotRunning, KindStaleSession, KindNoActivePort:
		return exitcodes.ConnectionError
	default:
		return exitcodes.GeneralError
	}
}

// AsErrext wraps e with its exit code and an actionable hint.
func (e *Error) AsErrext() error {
	err := errext.WithExitCodeIfNone(e, e.ExitCode())
	switch e.Kind {
	case KindNotRunning, KindStaleSession, KindNoActivePort:
		err = errext.WithHint(err, "start Chrome with --remote-debugging-port, or pass --ws-url/--port explicitly")
	case KindTargetNotFound:
		err = errext.WithHint(err, "run the targets command to list available tabs")
	}
	return err
}

func errHTTP(msg string) *Error           { return &Error{Kind: KindHTTPError, Message: msg} }
func errParse(msg string) *Error          { return &Error{Kind: KindParseError, Message: msg} }
func errNoActivePort() *Error             { return &Error{Kind: KindNoActivePort} }
func errNotRunning(msg string) *Error     { return &Error{Kind: KindNotRunning, Message: msg} }
func errStaleSession(msg string) *Error   { return &Error{Kind: KindStaleSession, Message: msg} }
func errNoPageTargets() *Error            { return &Error{Kind: KindNoPageTargets} }
func errTargetNotFound(tab string) *Error { return &Error{Kind: KindTargetNotFound, Tab: tab} }
