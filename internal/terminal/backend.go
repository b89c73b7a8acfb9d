package terminal

import (
	"context"
	"math"
)

// Backend creates and drives shell processes.
//
// Every call may block and takes a context carrying the call deadline.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Spawn starts a shell and returns its id.
	Spawn(ctx context.Context, req SpawnRequest) (string, error)

	// Write sends input to the process.
	Write(ctx context.Context, id string, data []byte) error

	// Resize changes the terminal size of the process.
	Resize(ctx context.Context, id string, cols, rows int) error

	// Close terminates the process. Closing an unknown id is not an error.
	Close(ctx context.Context, id string) error

	// Subscribe delivers the process's events to handler until cancel is
	// called. Events produced before the subscription are held for it.
	// handler runs on a backend goroutine and must not block.
	Subscribe(id string, handler func(Event)) (cancel func(), err error)

	// AvailableShells lists the shells that can be spawned.
	AvailableShells(ctx context.Context) ([]ShellType, error)

	// DefaultShell returns the platform's preferred shell.
	DefaultShell(ctx context.Context) (ShellType, error)
}

// MaxSize is the largest column or row count a pty accepts.
const MaxSize = math.MaxUint16

// ValidSize reports whether cols and rows fit a pty window.
func ValidSize(cols, rows int) bool {
	return cols >= 1 && rows >= 1 && cols <= MaxSize && rows <= MaxSize
}

// SpawnRequest describes a shell to start.
type SpawnRequest struct {
	Shell ShellType
	Cols  int
	Rows  int

	// Dir is the working directory. Empty means the current one.
	Dir string

	// Env holds extra KEY=VALUE pairs.
	Env []string
}

// EventKind identifies a backend event.
type EventKind int

// Event kinds.
const (
	// EventOutput carries bytes the process wrote.
	EventOutput EventKind = iota
	// EventClosed reports that the process exited.
	EventClosed
	// EventError reports a read failure; no further events follow.
	EventError
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventOutput:
		return "output"
	case EventClosed:
		return "closed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a notification from a backend process.
type Event struct {
	ID   string
	Kind EventKind
	Data []byte
	Err  error
}
