// Package errext attaches hints and process exit codes to ordinary Go
// errors without requiring every caller to define its own error type.
package errext

import (
	"errors"
	"fmt"

	"github.com/Nunley-Media-Group/chrome-cli/errext/exitcodes"
)

// HasHint is implemented by errors carrying a user-facing hint.
type HasHint interface {
	error
	Hint() string
}

// HasExitCode is implemented by errors that dictate the process exit code.
type HasExitCode interface {
	error
	ExitCode() exitcodes.ExitCode
}

// AbortReason classifies why an Exception aborted execution. It exists so
// Exception implementations can report a reason beyond the stack trace
// text; chrome-cli itself never produces one.
type AbortReason int

// Exception is an error carrying a formatted stack trace, printed instead
// of Error() by Format and Fprint.
type Exception interface {
	error
	StackTrace() string
}

type hintedError struct {
	err  error
	hint string
}

func (e hintedError) Error() string {
	return e.err.Error()
}

func (e hintedError) Unwrap() error {
	return e.err
}

func (e hintedError) Hint() string {
	var prev HasHint
	if errors.As(e.err, &prev) {
		return fmt.Sprintf("%s (%s)", e.hint, prev.Hint())
	}
	return e.hint
}

// WithHint wraps err with an additional hint. If err already carries a
// hint, the new hint is prepended and the old one kept in parentheses.
// WithHint(nil, ...) returns nil.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return hintedError{err: err, hint: hint}
}

type exitCodeError struct {
	err      error
	exitCode exitcodes.ExitCode
}

func (e exitCodeError) Error() string {
	return e.err.Error()
}

func (e exitCodeError) Unwrap() error {
	return e.err
}

func (e exitCodeError) ExitCode() exitcodes.ExitCode {
	return e.exitCode
}

// WithExitCodeIfNone attaches an exit code to err, unless err (or
// something it wraps) already carries one. WithExitCodeIfNone(nil, ...)
// returns nil.
func WithExitCodeIfNone(err error, exitCode exitcodes.ExitCode) error {
	if err == nil {
		return nil
	}
	var existing HasExitCode
	if errors.As(err, &existing) {
		return err
	}
	return exitCodeError{err: err, exitCode: exitCode}
}
