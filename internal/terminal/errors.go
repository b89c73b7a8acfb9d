package terminal

import "errors"

// Common errors.
var (
	ErrSessionNotFound = errors.New("terminal session not found")
	ErrSessionClosed   = errors.New("terminal session closed")
	ErrInvalidSize     = errors.New("invalid terminal size")
	ErrShellNotFound   = errors.New("shell not available")
	ErrUnknownShell    = errors.New("unknown shell type")
)
