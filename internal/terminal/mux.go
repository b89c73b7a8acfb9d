package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/dollspace-gay/AuroraHeart/internal/errs"
	"github.com/dollspace-gay/AuroraHeart/internal/loop"
)

// Defaults for new sessions and backend calls.
const (
	DefaultCols        = 80
	DefaultRows        = 24
	DefaultCallTimeout = 10 * time.Second
)

// Options configures a Multiplexer.
type Options struct {
	// Backend runs the shell processes. Required.
	Backend Backend

	// Poster is the owning loop. Required.
	Poster loop.Poster

	// Logger receives session lifecycle logs. Nil discards them.
	Logger *slog.Logger

	// DefaultShell is used when Spawn is given no shell. Empty means the
	// platform default until RefreshShells loads the backend's.
	DefaultShell ShellType

	Cols            int
	Rows            int
	CallTimeout     time.Duration
	ScrollbackBytes int

	// Dir is the working directory of new shells.
	Dir string
}

// Listener is notified of multiplexer changes on the loop.
type Listener interface {
	// TabsChanged is called after sessions are added or removed or the
	// active session moves.
	TabsChanged(m *Multiplexer)
	// Output is called with each chunk a Ready session produced.
	Output(s *Session, data []byte)
	// Exited is called when a session's process ended on its own.
	Exited(s *Session)
	// Error is called with every surfaced session error.
	Error(s *Session, err error)
}

// ListenerFuncs adapts optional functions to a Listener.
type ListenerFuncs struct {
	OnTabsChanged func(m *Multiplexer)
	OnOutput      func(s *Session, data []byte)
	OnExited      func(s *Session)
	OnError       func(s *Session, err error)
}

func (f ListenerFuncs) TabsChanged(m *Multiplexer) {
	if f.OnTabsChanged != nil {
		f.OnTabsChanged(m)
	}
}

func (f ListenerFuncs) Output(s *Session, data []byte) {
	if f.OnOutput != nil {
		f.OnOutput(s, data)
	}
}

func (f ListenerFuncs) Exited(s *Session) {
	if f.OnExited != nil {
		f.OnExited(s)
	}
}

func (f ListenerFuncs) Error(s *Session, err error) {
	if f.OnError != nil {
		f.OnError(s, err)
	}
}

// Multiplexer is the ordered set of terminal sessions with one active tab.
//
// All methods must be called on the owning loop.
type Multiplexer struct {
	opts   Options
	logger *slog.Logger

	sessions  []*Session
	activeKey string
	nextKey   int

	shells       []ShellType
	defaultShell ShellType

	listeners []Listener
}

// NewMultiplexer creates an empty multiplexer.
func NewMultiplexer(opts Options) *Multiplexer {
	if opts.Cols <= 0 {
		opts.Cols = DefaultCols
	}
	if opts.Rows <= 0 {
		opts.Rows = DefaultRows
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	def := opts.DefaultShell
	if def == "" {
		def = PlatformDefaultShell(runtime.GOOS)
	}
	return &Multiplexer{
		opts:         opts,
		logger:       logger.With("component", "terminal"),
		defaultShell: def,
	}
}

// AddListener registers l for change notifications.
func (m *Multiplexer) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

// RefreshShells loads the available and default shells from the backend.
// done, if non-nil, runs on the loop with the first error.
func (m *Multiplexer) RefreshShells(done func(error)) {
	go func() {
		ctx, cancel := m.callContext()
		defer cancel()

		shells, err := m.opts.Backend.AvailableShells(ctx)
		var def ShellType
		if err == nil {
			def, err = m.opts.Backend.DefaultShell(ctx)
		}
		m.opts.Poster.Post(func() {
			if err != nil {
				err = errs.Backend("shells", "", err)
				m.logger.Warn("shell discovery failed", "error", err)
			} else {
				m.shells = shells
				if m.opts.DefaultShell == "" {
					m.defaultShell = def
				}
			}
			if done != nil {
				done(err)
			}
		})
	}()
}

// AvailableShells returns the shells loaded by RefreshShells.
func (m *Multiplexer) AvailableShells() []ShellType {
	out := make([]ShellType, len(m.shells))
	copy(out, m.shells)
	return out
}

// DefaultShell returns the shell used when Spawn is given none.
func (m *Multiplexer) DefaultShell() ShellType {
	return m.defaultShell
}

// Spawn requests a new shell and makes it the active tab. The session is
// Spawning until the backend returns its id. Zero cols or rows use the
// configured size and larger ones are clamped to MaxSize; an empty shell
// uses the default shell.
func (m *Multiplexer) Spawn(shell ShellType, cols, rows int) *Session {
	if shell == "" {
		shell = m.defaultShell
	}
	if cols <= 0 {
		cols = m.opts.Cols
	}
	if rows <= 0 {
		rows = m.opts.Rows
	}
	cols, rows = min(cols, MaxSize), min(rows, MaxSize)

	key := fmt.Sprintf("term-%d", m.nextKey)
	m.nextKey++

	s := newSession(key, shell, cols, rows, m.opts.ScrollbackBytes)
	m.sessions = append(m.sessions, s)
	m.activeKey = key
	m.logger.Debug("spawning terminal", "tab", key, "shell", shell)
	m.changed()

	req := SpawnRequest{Shell: shell, Cols: cols, Rows: rows, Dir: m.opts.Dir}
	go func() {
		ctx, cancel := m.callContext()
		defer cancel()
		id, err := m.opts.Backend.Spawn(ctx, req)
		m.opts.Poster.Post(func() { m.spawned(s, id, err) })
	}()
	return s
}

// spawned runs on the loop when the backend answers a Spawn.
func (m *Multiplexer) spawned(s *Session, id string, err error) {
	if err != nil {
		if s.status == StatusClosed {
			return
		}
		m.fail(s, errs.Spawn(s.key, err), "Failed to spawn terminal")
		return
	}

	if s.status == StatusClosed {
		// Closed while spawning: release the process now that it exists.
		m.release(s.key, id)
		return
	}

	s.id = id
	cancel, err := m.opts.Backend.Subscribe(id, func(ev Event) {
		m.opts.Poster.Post(func() { m.handle(s, ev) })
	})
	if err != nil {
		m.release(s.key, id)
		m.fail(s, errs.Backend("subscribe", s.key, err), "Failed to attach terminal")
		return
	}
	s.unsubscribe = cancel
	s.status = StatusReady
	m.logger.Info("terminal ready", "tab", s.key, "id", id, "shell", s.shell)

	s.writer = newWriter(
		func(data []byte) error {
			ctx, cancel := m.callContext()
			defer cancel()
			return m.opts.Backend.Write(ctx, id, data)
		},
		func(err error) {
			m.opts.Poster.Post(func() { m.callFailed(s, "write", err) })
		},
	)
	for _, data := range s.pending {
		s.writer.enqueue(data)
	}
	s.pending = nil

	if s.resizePending {
		s.resizePending = false
		m.resize(s)
	}
	m.changed()
}

// handle runs on the loop for each backend event. Events for a session
// that is no longer Ready are dropped.
func (m *Multiplexer) handle(s *Session, ev Event) {
	if s.status != StatusReady {
		return
	}

	switch ev.Kind {
	case EventOutput:
		_, _ = s.scrollback.Write(ev.Data)
		for _, l := range m.listeners {
			l.Output(s, ev.Data)
		}

	case EventClosed:
		s.status = StatusClosed
		s.teardown()
		m.logger.Info("terminal exited", "tab", s.key, "id", s.id)
		for _, l := range m.listeners {
			l.Exited(s)
		}
		m.remove(s.key)

	case EventError:
		m.fail(s, errs.Backend("read", s.key, ev.Err), "Terminal error")
		// The process may still be alive without a reader.
		m.release(s.key, s.id)
	}
}

// Write sends data to the session's process. Input written while the
// session is Spawning is held and delivered once it is Ready.
func (m *Multiplexer) Write(key string, data []byte) error {
	s, ok := m.Session(key)
	if !ok {
		return ErrSessionNotFound
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	switch s.status {
	case StatusSpawning:
		s.pending = append(s.pending, buf)
		return nil
	case StatusReady:
		s.writer.enqueue(buf)
		return nil
	default:
		return ErrSessionClosed
	}
}

// Resize changes the session's terminal size. It is best effort: failures
// are reported to listeners. A resize while Spawning is applied once Ready.
func (m *Multiplexer) Resize(key string, cols, rows int) error {
	if !ValidSize(cols, rows) {
		return ErrInvalidSize
	}
	s, ok := m.Session(key)
	if !ok {
		return ErrSessionNotFound
	}

	s.cols, s.rows = cols, rows
	switch s.status {
	case StatusSpawning:
		s.resizePending = true
	case StatusReady:
		m.resize(s)
	default:
		return ErrSessionClosed
	}
	return nil
}

func (m *Multiplexer) resize(s *Session) {
	id, cols, rows := s.id, s.cols, s.rows
	go func() {
		ctx, cancel := m.callContext()
		defer cancel()
		if err := m.opts.Backend.Resize(ctx, id, cols, rows); err != nil {
			m.opts.Poster.Post(func() { m.callFailed(s, "resize", err) })
		}
	}()
}

// Close removes the session's tab and terminates its process. Closing an
// unknown or already closed key does nothing. A session closed while
// Spawning releases its process as soon as the backend returns the id.
func (m *Multiplexer) Close(key string) {
	s, ok := m.Session(key)
	if !ok {
		return
	}

	switch s.status {
	case StatusSpawning:
		s.status = StatusClosed
		s.pending = nil
	case StatusReady:
		s.status = StatusClosed
		s.teardown()
		m.release(s.key, s.id)
	}

	m.logger.Debug("terminal closed", "tab", key)
	m.remove(key)
}

// CloseAll closes every session.
func (m *Multiplexer) CloseAll() {
	for len(m.sessions) > 0 {
		m.Close(m.sessions[len(m.sessions)-1].key)
	}
}

// release terminates a backend process without waiting.
func (m *Multiplexer) release(key, id string) {
	go func() {
		ctx, cancel := m.callContext()
		defer cancel()
		if err := m.opts.Backend.Close(ctx, id); err != nil {
			m.logger.Warn("terminal close failed", "tab", key, "id", id, "error", err)
		}
	}()
}

// fail moves s to Errored and writes msg into its own output.
func (m *Multiplexer) fail(s *Session, err error, msg string) {
	s.status = StatusErrored
	s.err = err
	s.teardown()

	m.logger.Error(msg, "tab", s.key, "id", s.id, "error", err)
	line := []byte(fmt.Sprintf("\r\n%s: %v\r\n", msg, err))
	_, _ = s.scrollback.Write(line)
	for _, l := range m.listeners {
		l.Output(s, line)
		l.Error(s, err)
	}
	m.changed()
}

// callFailed surfaces a failed write or resize. The call is not retried.
func (m *Multiplexer) callFailed(s *Session, op string, err error) {
	if s.status != StatusReady {
		return
	}
	err = errs.Backend(op, s.key, err)
	m.logger.Warn("terminal call failed", "tab", s.key, "id", s.id, "op", op, "error", err)
	for _, l := range m.listeners {
		l.Error(s, err)
	}
}

// remove drops the tab for key. Removing the active tab activates the next
// tab, else the previous one, else none.
func (m *Multiplexer) remove(key string) {
	idx := m.index(key)
	if idx < 0 {
		return
	}
	m.sessions = append(m.sessions[:idx], m.sessions[idx+1:]...)

	if m.activeKey == key {
		switch {
		case idx < len(m.sessions):
			m.activeKey = m.sessions[idx].key
		case idx > 0:
			m.activeKey = m.sessions[idx-1].key
		default:
			m.activeKey = ""
		}
	}
	m.changed()
}

// Activate makes the session for key active.
func (m *Multiplexer) Activate(key string) error {
	if m.index(key) < 0 {
		return ErrSessionNotFound
	}
	m.activeKey = key
	m.changed()
	return nil
}

// Next activates the following tab, wrapping around.
func (m *Multiplexer) Next() {
	m.step(1)
}

// Previous activates the preceding tab, wrapping around.
func (m *Multiplexer) Previous() {
	m.step(-1)
}

func (m *Multiplexer) step(delta int) {
	n := len(m.sessions)
	if n == 0 {
		return
	}
	idx := m.index(m.activeKey)
	if idx < 0 {
		idx = 0
	} else {
		idx = (idx + delta + n) % n
	}
	m.activeKey = m.sessions[idx].key
	m.changed()
}

// Active returns the active session, or nil.
func (m *Multiplexer) Active() *Session {
	s, _ := m.Session(m.activeKey)
	return s
}

// ActiveKey returns the active tab key, empty if there is none.
func (m *Multiplexer) ActiveKey() string {
	return m.activeKey
}

// Session returns the session for key.
func (m *Multiplexer) Session(key string) (*Session, bool) {
	if idx := m.index(key); idx >= 0 {
		return m.sessions[idx], true
	}
	return nil, false
}

// Sessions returns the sessions in tab order.
func (m *Multiplexer) Sessions() []*Session {
	out := make([]*Session, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// Len returns the number of tabs.
func (m *Multiplexer) Len() int {
	return len(m.sessions)
}

func (m *Multiplexer) index(key string) int {
	if key == "" {
		return -1
	}
	for i, s := range m.sessions {
		if s.key == key {
			return i
		}
	}
	return -1
}

func (m *Multiplexer) changed() {
	for _, l := range m.listeners {
		l.TabsChanged(m)
	}
}

func (m *Multiplexer) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.opts.CallTimeout)
}
