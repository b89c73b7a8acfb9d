package ptybackend

import (
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/dollspace-gay/AuroraHeart/internal/terminal"
)

// process is one shell and its pty.
type process struct {
	id   string
	cmd  *exec.Cmd
	pty  *os.File
	done chan struct{}

	terminated atomic.Bool

	// deliverMu serializes event delivery with subscription changes so
	// the backlog replays before newer events.
	deliverMu sync.Mutex
	handler   func(terminal.Event)
	backlog   []terminal.Event
	detached  bool
}

// deliver hands ev to the subscriber, or holds it until one arrives. It
// reports whether ev was held.
func (p *process) deliver(ev terminal.Event) bool {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	switch {
	case p.detached:
		return false
	case p.handler == nil:
		p.backlog = append(p.backlog, ev)
		return true
	default:
		p.handler(ev)
		return false
	}
}

// subscribe replays the backlog to handler and attaches it. It reports
// whether the replay included the closed event.
func (p *process) subscribe(handler func(terminal.Event)) bool {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.handler = handler
	p.detached = false
	closed := false
	for _, ev := range p.backlog {
		handler(ev)
		closed = closed || ev.Kind == terminal.EventClosed
	}
	p.backlog = nil
	return closed
}

func (p *process) unsubscribe() {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.handler = nil
	p.detached = true
	p.backlog = nil
}

// terminate kills the shell and closes the pty, which ends the reader.
func (p *process) terminate() {
	if p.terminated.Swap(true) {
		return
	}
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.pty.Close()
}

func (p *process) isTerminated() bool {
	return p.terminated.Load()
}
