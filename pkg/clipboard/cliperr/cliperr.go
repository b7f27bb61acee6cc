// Package cliperr defines the error taxonomy shared by every clipboard
// mechanism. Errors carry a Kind; callers classify them with errors.Is
// against the Kind sentinels (for example errors.Is(err, cliperr.ErrTimeoutExceeded))
// or with errors.As into *Error.
package cliperr

import (
	"errors"
	"fmt"
)

// Kind classifies a clipboard failure.
type Kind string

const (
	KindUnsupportedEnvironment Kind = "unsupported environment"
	KindInvalidArgument        Kind = "invalid argument"
	KindMechanismFailure       Kind = "mechanism failure"
	KindExitCode               Kind = "exit code"
	KindSpawnFailure           Kind = "spawn failure"
	KindNetworkFetch           Kind = "network fetch failure"
	KindTimeoutExceeded        Kind = "timeout exceeded"
	KindValidation             Kind = "validation failure"
)

// Kind sentinels. They only match on kind, so errors.Is(err, ErrSpawnFailure)
// is true for every spawn failure regardless of the command involved.
var (
	ErrUnsupportedEnvironment = &Error{Kind: KindUnsupportedEnvironment}
	ErrInvalidArgument        = &Error{Kind: KindInvalidArgument}
	ErrMechanismFailure       = &Error{Kind: KindMechanismFailure}
	ErrExitCode               = &Error{Kind: KindExitCode}
	ErrSpawnFailure           = &Error{Kind: KindSpawnFailure}
	ErrNetworkFetch           = &Error{Kind: KindNetworkFetch}
	ErrTimeoutExceeded        = &Error{Kind: KindTimeoutExceeded}
	ErrValidation             = &Error{Kind: KindValidation}
)

// Error is a classified clipboard failure.
type Error struct {
	Kind Kind
	// Op is the public operation that failed (copy, read, cut...).
	Op string
	// Mechanism names the tier that produced the failure, if any.
	Mechanism string
	// Message is a human readable description.
	Message string
	// Code is the process exit code for KindExitCode.
	Code int
	// Err is the underlying platform error.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := "clipboard"
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.Mechanism != "" {
		msg += " [" + e.Mechanism + "]"
	}
	msg += ": " + string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Kind == KindExitCode {
		msg += fmt.Sprintf(" (exit code %d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func Unsupported(message string) *Error {
	return New(KindUnsupportedEnvironment, message, nil)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, fmt.Sprintf(format, args...), nil)
}

func Mechanism(mechanism, message string, cause error) *Error {
	e := New(KindMechanismFailure, message, cause)
	e.Mechanism = mechanism
	return e
}

func ExitCode(command string, code int) *Error {
	e := New(KindExitCode, command+" exited with a non-zero status", nil)
	e.Mechanism = "os-process"
	e.Code = code
	return e
}

func Spawn(message string, cause error) *Error {
	e := New(KindSpawnFailure, message, cause)
	e.Mechanism = "os-process"
	return e
}

func NetworkFetch(message string, cause error) *Error {
	return New(KindNetworkFetch, message, cause)
}

func Timeout(message string) *Error {
	return New(KindTimeoutExceeded, message, nil)
}

func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

// KindOf reports the kind of err, or "" when err carries no *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// WithOp returns err with the operation name stamped on its *Error when it
// has none. The *Error found in err is never modified, so sentinels and
// errors shared between calls stay intact. The kind is never changed.
func WithOp(err error, op string) error {
	var e *Error
	if !errors.As(err, &e) || e.Op != "" {
		return err
	}
	if err == error(e) {
		c := *e
		c.Op = op
		return &c
	}
	// Keep the outer wrapping in the chain.
	return &Error{Kind: e.Kind, Op: op, Mechanism: e.Mechanism, Code: e.Code, Err: err}
}
