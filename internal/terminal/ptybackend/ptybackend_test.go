package ptybackend

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dollspace-gay/AuroraHeart/internal/terminal"
)

type eventLog struct {
	mu     sync.Mutex
	output bytes.Buffer
	kinds  []terminal.EventKind
}

func (l *eventLog) handle(ev terminal.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.kinds = append(l.kinds, ev.Kind)
	if ev.Kind == terminal.EventOutput {
		l.output.Write(ev.Data)
	}
}

func (l *eventLog) wait(t *testing.T, what string, cond func(l *eventLog) bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		l.mu.Lock()
		ok := cond(l)
		l.mu.Unlock()
		if ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func spawnSh(t *testing.T, b *Backend) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("pty shells are not supported on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	id, err := b.Spawn(context.Background(), terminal.SpawnRequest{Shell: terminal.ShellSh, Cols: 80, Rows: 24})
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	return id
}

func TestBackendEchoAndExit(t *testing.T) {
	b := New(Options{})
	id := spawnSh(t, b)
	t.Cleanup(func() { _ = b.Shutdown(context.Background()) })

	log := &eventLog{}
	cancel, err := b.Subscribe(id, log.handle)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	ctx := context.Background()
	if err := b.Write(ctx, id, []byte("echo aurora-$((20+22))\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	log.wait(t, "echo output", func(l *eventLog) bool {
		return bytes.Contains(l.output.Bytes(), []byte("aurora-42"))
	})

	if err := b.Resize(ctx, id, 100, 30); err != nil {
		t.Errorf("Resize failed: %v", err)
	}

	if err := b.Write(ctx, id, []byte("exit\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	log.wait(t, "closed event", func(l *eventLog) bool {
		return len(l.kinds) > 0 && l.kinds[len(l.kinds)-1] == terminal.EventClosed
	})

	deadline := time.Now().Add(5 * time.Second)
	for b.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if b.Count() != 0 {
		t.Errorf("expected the exited shell to be released, got %d", b.Count())
	}
}

func TestBackendReplaysShellThatExitedBeforeSubscribe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("pty shells are not supported on windows")
	}
	script := filepath.Join(t.TempDir(), "quick.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho quick-exit\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	b := New(Options{LookPath: func(string) (string, error) { return script, nil }})
	t.Cleanup(func() { _ = b.Shutdown(context.Background()) })

	id, err := b.Spawn(context.Background(), terminal.SpawnRequest{Shell: terminal.ShellSh, Cols: 80, Rows: 24})
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}

	p, err := b.get(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	select {
	case <-p.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the script to exit")
	}
	if b.Count() != 1 {
		t.Fatalf("expected the exited shell to stay registered, got %d", b.Count())
	}

	log := &eventLog{}
	cancel, err := b.Subscribe(id, log.handle)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	log.mu.Lock()
	output, kinds := log.output.String(), append([]terminal.EventKind(nil), log.kinds...)
	log.mu.Unlock()
	if !strings.Contains(output, "quick-exit") {
		t.Errorf("expected replayed output, got %q", output)
	}
	if len(kinds) == 0 || kinds[len(kinds)-1] != terminal.EventClosed {
		t.Errorf("expected the closed event last, got %v", kinds)
	}
	if b.Count() != 0 {
		t.Errorf("expected the shell to be released after replay, got %d", b.Count())
	}
	if _, err := b.Subscribe(id, log.handle); !errors.Is(err, terminal.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on a second subscribe, got %v", err)
	}
}

func TestBackendRejectsOversizedWindow(t *testing.T) {
	b := New(Options{LookPath: func(string) (string, error) { return "", exec.ErrNotFound }})
	ctx := context.Background()

	_, err := b.Spawn(ctx, terminal.SpawnRequest{Shell: terminal.ShellSh, Cols: terminal.MaxSize + 1, Rows: 24})
	if !errors.Is(err, terminal.ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize from Spawn, got %v", err)
	}
	if err := b.Resize(ctx, "any", 80, terminal.MaxSize+1); !errors.Is(err, terminal.ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize from Resize, got %v", err)
	}
}

func TestBackendClose(t *testing.T) {
	b := New(Options{})
	id := spawnSh(t, b)

	log := &eventLog{}
	cancel, err := b.Subscribe(id, log.handle)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := b.Close(ctx, id); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := b.Close(ctx, id); err != nil {
		t.Errorf("expected closing twice to succeed, got %v", err)
	}
	if b.Count() != 0 {
		t.Errorf("expected no live shells, got %d", b.Count())
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	for _, k := range log.kinds {
		if k != terminal.EventOutput {
			t.Errorf("expected no %s event after an explicit close", k)
		}
	}

	if err := b.Write(ctx, id, []byte("x")); !errors.Is(err, terminal.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestBackendSpawnUnknownShell(t *testing.T) {
	b := New(Options{LookPath: func(string) (string, error) { return "", exec.ErrNotFound }})

	_, err := b.Spawn(context.Background(), terminal.SpawnRequest{Shell: terminal.ShellZsh, Cols: 80, Rows: 24})
	if !errors.Is(err, terminal.ErrShellNotFound) {
		t.Errorf("expected ErrShellNotFound, got %v", err)
	}
}

func TestBackendShells(t *testing.T) {
	b := New(Options{LookPath: func(string) (string, error) { return "", exec.ErrNotFound }})
	b.goos = "linux"

	shells, err := b.AvailableShells(context.Background())
	if err != nil {
		t.Fatalf("AvailableShells failed: %v", err)
	}
	if len(shells) != 1 || shells[0] != terminal.ShellBash {
		t.Errorf("expected [bash], got %v", shells)
	}

	def, _ := b.DefaultShell(context.Background())
	if def != terminal.ShellBash {
		t.Errorf("expected bash, got %s", def)
	}
}

func TestProcessReplaysBacklog(t *testing.T) {
	p := &process{id: "p"}
	p.deliver(terminal.Event{Kind: terminal.EventOutput, Data: []byte("a")})
	p.deliver(terminal.Event{Kind: terminal.EventOutput, Data: []byte("b")})

	var got []string
	p.subscribe(func(ev terminal.Event) { got = append(got, string(ev.Data)) })
	p.deliver(terminal.Event{Kind: terminal.EventOutput, Data: []byte("c")})
	p.unsubscribe()
	p.deliver(terminal.Event{Kind: terminal.EventOutput, Data: []byte("d")})

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %q at %d, got %q", want[i], i, got[i])
		}
	}
}
