// Package ptybackend runs terminal shells on pseudo-terminals.
package ptybackend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dollspace-gay/AuroraHeart/internal/terminal"
)

// Options configures a Backend.
type Options struct {
	// Logger receives process lifecycle logs. Nil discards them.
	Logger *slog.Logger

	// Env holds extra KEY=VALUE pairs for every shell.
	Env []string

	// LookPath resolves shell executables. Nil means exec.LookPath.
	LookPath terminal.LookPathFunc
}

// Backend implements terminal.Backend with one pty per shell.
type Backend struct {
	mu    sync.Mutex
	procs map[string]*process

	goos     string
	env      []string
	lookPath terminal.LookPathFunc
	logger   *slog.Logger
}

// Ensure Backend implements terminal.Backend.
var _ terminal.Backend = (*Backend)(nil)

// New creates a backend for the running platform.
func New(opts Options) *Backend {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	return &Backend{
		procs:    make(map[string]*process),
		goos:     runtime.GOOS,
		env:      opts.Env,
		lookPath: lookPath,
		logger:   logger.With("component", "pty"),
	}
}

// Spawn starts a shell on a new pty.
func (b *Backend) Spawn(ctx context.Context, req terminal.SpawnRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !terminal.ValidSize(req.Cols, req.Rows) {
		return "", terminal.ErrInvalidSize
	}

	name, args, err := terminal.Command(req.Shell, b.goos)
	if err != nil {
		return "", err
	}
	path, err := b.lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", terminal.ErrShellNotFound, name, err)
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = req.Dir
	cmd.Env = append(os.Environ(), b.env...)
	cmd.Env = append(cmd.Env, req.Env...)
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(req.Cols),
		Rows: uint16(req.Rows),
	})
	if err != nil {
		return "", fmt.Errorf("start pty: %w", err)
	}

	p := &process{
		id:   uuid.New().String(),
		cmd:  cmd,
		pty:  ptmx,
		done: make(chan struct{}),
	}

	b.mu.Lock()
	b.procs[p.id] = p
	b.mu.Unlock()

	b.logger.Info("shell started", "id", p.id, "shell", req.Shell, "pid", cmd.Process.Pid)
	go b.readLoop(p)
	return p.id, nil
}

// Write sends input to the shell.
func (b *Backend) Write(ctx context.Context, id string, data []byte) error {
	p, err := b.get(id)
	if err != nil {
		return err
	}
	return withContext(ctx, func() error {
		_, err := p.pty.Write(data)
		return err
	})
}

// Resize changes the pty size.
func (b *Backend) Resize(ctx context.Context, id string, cols, rows int) error {
	if !terminal.ValidSize(cols, rows) {
		return terminal.ErrInvalidSize
	}
	p, err := b.get(id)
	if err != nil {
		return err
	}
	return withContext(ctx, func() error {
		return pty.Setsize(p.pty, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	})
}

// Close kills the shell and waits for its reader to finish.
func (b *Backend) Close(ctx context.Context, id string) error {
	b.mu.Lock()
	p, ok := b.procs[id]
	delete(b.procs, id)
	b.mu.Unlock()
	if !ok {
		return nil
	}

	p.terminate()
	select {
	case <-p.done:
		b.logger.Info("shell closed", "id", id)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe delivers the shell's events to handler. Events produced before
// the call are replayed first, in order. A shell that exited before anyone
// subscribed stays registered until its closed event is replayed here.
func (b *Backend) Subscribe(id string, handler func(terminal.Event)) (func(), error) {
	p, err := b.get(id)
	if err != nil {
		return nil, err
	}
	if p.subscribe(handler) {
		b.forget(p)
	}
	return p.unsubscribe, nil
}

// AvailableShells lists the shells found on this machine.
func (b *Backend) AvailableShells(ctx context.Context) ([]terminal.ShellType, error) {
	return terminal.DetectShells(b.goos, b.lookPath), nil
}

// DefaultShell returns the platform's preferred shell.
func (b *Backend) DefaultShell(ctx context.Context) (terminal.ShellType, error) {
	return terminal.PlatformDefaultShell(b.goos), nil
}

// Shutdown closes every shell in parallel.
func (b *Backend) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	ids := make([]string, 0, len(b.procs))
	for id := range b.procs {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			return b.Close(ctx, id)
		})
	}
	return g.Wait()
}

// Count returns the number of registered shells, including exited ones
// whose closed event has not been delivered yet.
func (b *Backend) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.procs)
}

func (b *Backend) get(id string) (*process, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.procs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", terminal.ErrSessionNotFound, id)
	}
	return p, nil
}

// readLoop forwards pty output until the shell exits.
func (b *Backend) readLoop(p *process) {
	defer close(p.done)

	held := false
	buf := make([]byte, 4096)
	for {
		n, err := p.pty.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			p.deliver(terminal.Event{ID: p.id, Kind: terminal.EventOutput, Data: data})
		}
		if err == nil {
			continue
		}

		switch {
		case p.isTerminated():
		case errors.Is(err, io.EOF), errors.Is(err, syscall.EIO), errors.Is(err, os.ErrClosed):
			// Linux reports EIO once the shell side of the pty is gone.
			held = p.deliver(terminal.Event{ID: p.id, Kind: terminal.EventClosed})
		default:
			b.logger.Warn("pty read failed", "id", p.id, "error", err)
			held = p.deliver(terminal.Event{ID: p.id, Kind: terminal.EventError, Err: err})
		}
		break
	}

	_ = p.cmd.Wait()
	_ = p.pty.Close()

	// A held final event keeps the entry until Subscribe replays it or
	// Close releases it.
	if !held {
		b.forget(p)
	}
}

// forget drops p from the table if it is still registered.
func (b *Backend) forget(p *process) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.procs[p.id] == p {
		delete(b.procs, p.id)
	}
}

// withContext runs fn, returning early with the context error if ctx ends
// first. fn keeps running in that case.
func withContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
