package terminal

// Status is the lifecycle state of a Session.
type Status int

// Session states.
const (
	StatusSpawning Status = iota
	StatusReady
	StatusClosed
	StatusErrored
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSpawning:
		return "spawning"
	case StatusReady:
		return "ready"
	case StatusClosed:
		return "closed"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusErrored
}

// Session is one shell process shown as a terminal tab. Its fields are
// owned by the Multiplexer's loop.
type Session struct {
	key   string
	id    string
	shell ShellType
	cols  int
	rows  int

	status Status
	err    error

	scrollback *Scrollback

	// pending holds input written while spawning.
	pending       [][]byte
	resizePending bool

	writer      *writer
	unsubscribe func()
}

func newSession(key string, shell ShellType, cols, rows, scrollback int) *Session {
	return &Session{
		key:        key,
		shell:      shell,
		cols:       cols,
		rows:       rows,
		status:     StatusSpawning,
		scrollback: NewScrollback(scrollback),
	}
}

// Key returns the local tab key.
func (s *Session) Key() string {
	return s.key
}

// ID returns the backend id, empty until the session is Ready.
func (s *Session) ID() string {
	return s.id
}

// Shell returns the shell type.
func (s *Session) Shell() ShellType {
	return s.shell
}

// Size returns the requested terminal size.
func (s *Session) Size() (cols, rows int) {
	return s.cols, s.rows
}

// Status returns the lifecycle state.
func (s *Session) Status() Status {
	return s.status
}

// Err returns the error that moved the session to Errored.
func (s *Session) Err() error {
	return s.err
}

// Output returns the retained output.
func (s *Session) Output() []byte {
	return s.scrollback.Bytes()
}

// PendingWrites returns the number of writes waiting for the spawn.
func (s *Session) PendingWrites() int {
	return len(s.pending)
}

// teardown releases the subscription and the writer.
func (s *Session) teardown() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.writer != nil {
		s.writer.stop()
		s.writer = nil
	}
	s.pending = nil
}
