// Package diag holds the diagnostic context and error taxonomy shared
// across the runfiles materializer, replacing file-scope globals and
// exit-from-anywhere macros with values threaded explicitly through
// the call stack.
package diag

import (
	"errors"
	"fmt"
	"syscall"
)

// Kind classifies an Error so callers can branch on the failure
// category without string-matching messages. ExitCode does not
// consult it: every non-nil error maps to exit status 1.
type Kind string

const (
	ArgumentError     Kind = "ARGUMENT"
	ParseError        Kind = "PARSE"
	MissingInput      Kind = "MISSING_INPUT"
	FilesystemError   Kind = "FILESYSTEM"
	WindowsBusy       Kind = "WINDOWS_BUSY"
	LinkAlgorithmError Kind = "LINK_ALGORITHM"
)

// Context is the immutable set of facts needed to render a diagnostic
// line. It is built once in main and never mutated.
type Context struct {
	Argv0  string
	Input  string
	Output string
}

// Error is the structured error type returned by every exported
// function in this module. It carries enough information to render
// the exact stderr line spec'd for failures, including an errno suffix
// when the wrapped error originated at a syscall boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and message to an existing error, returning nil
// if err is nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Is supports errors.Is by comparing Kind, mirroring how callers
// usually want to branch ("is this a FilesystemError") rather than
// comparing exact messages.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// KindOf returns the Kind of err, or "" if err is not (or does not
// wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Diagnostic renders the exact stderr line for a failing run:
//
//	<argv0> (args <INPUT> <RUNFILES>): <message>[: <strerror> [<errno>]]
//
// This is the single point that produces the mandated diagnostic text;
// it intentionally does not go through the structured logger so that
// the line stays byte-stable for scripts that grep it.
func (e *Error) Diagnostic(ctx Context) string {
	line := fmt.Sprintf("%s (args %s %s): %s", ctx.Argv0, ctx.Input, ctx.Output, e.Message)
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return fmt.Sprintf("%s: %s [%d]", line, errno.Error(), int(errno))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", line, e.Err)
	}
	return line
}

// ExitCode maps a (possibly nil) error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
