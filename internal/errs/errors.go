// Package errs defines the error taxonomy shared by the editor and terminal
// cores.
//
// Every failure that crosses a collaborator boundary is reported as an
// *Error carrying one of the kind sentinels below. Callers classify with
// errors.Is against the kind and reach the cause with errors.Unwrap:
//
//	if errors.Is(err, errs.ErrIO) {
//	    // surface to the user, state is unchanged
//	}
package errs

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrIO marks file read or write failures.
	ErrIO = errors.New("io error")

	// ErrSpawn marks terminal process creation failures.
	ErrSpawn = errors.New("spawn error")

	// ErrBackendCall marks a failed call to the process backend.
	ErrBackendCall = errors.New("backend call error")

	// ErrPattern marks an invalid search pattern.
	ErrPattern = errors.New("invalid pattern")

	// ErrTimeout marks a collaborator call that exceeded its deadline.
	ErrTimeout = errors.New("call timed out")
)

// Error is an operation failure of a given kind.
type Error struct {
	Op     string // Operation name (e.g., "open", "save", "spawn")
	Target string // Target of the operation (file path, terminal key)
	Kind   error  // One of the kind sentinels
	Err    error  // Underlying error
}

// New creates an Error. A context deadline in err promotes the kind to
// ErrTimeout so callers can tell a hung collaborator from a failed one.
func New(kind error, op, target string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrTimeout
	}
	return &Error{Op: op, Target: target, Kind: kind, Err: err}
}

// IO creates an ErrIO error.
func IO(op, target string, err error) *Error {
	return New(ErrIO, op, target, err)
}

// Spawn creates an ErrSpawn error.
func Spawn(target string, err error) *Error {
	return New(ErrSpawn, "spawn", target, err)
}

// Backend creates an ErrBackendCall error.
func Backend(op, target string, err error) *Error {
	return New(ErrBackendCall, op, target, err)
}

// Pattern creates an ErrPattern error.
func Pattern(pattern string, err error) *Error {
	return New(ErrPattern, "compile", pattern, err)
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Kind != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Kind)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the error kind as well as anything in the wrapped chain.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return e == t
	}
	if e.Kind != nil && e.Kind == target {
		return true
	}
	return errors.Is(e.Err, target)
}

// KindOf returns the kind sentinel of err, or nil if err is not an *Error.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
