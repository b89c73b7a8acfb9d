package editor

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dollspace-gay/AuroraHeart/internal/debounce"
	"github.com/dollspace-gay/AuroraHeart/internal/loop"
)

// manualClock hands out timers that only fire when told to.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) AfterFunc(_ time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every timer that is still armed.
func (c *manualClock) fire() {
	c.mu.Lock()
	timers := c.timers
	c.timers = nil
	c.mu.Unlock()

	for _, t := range timers {
		if !t.stopped {
			t.f()
		}
	}
}

var inline = loop.PosterFunc(func(fn func()) bool {
	fn()
	return true
})

func newTestDocument(content string) (*Document, *manualClock) {
	clock := &manualClock{}
	doc := NewDocument("/src/main.go", content, DocumentOptions{
		Poster:    inline,
		AfterFunc: clock.AfterFunc,
	})
	return doc, clock
}

func TestDocumentEditCommitsAfterDebounce(t *testing.T) {
	doc, clock := newTestDocument("a")

	doc.Edit("ab")
	doc.Edit("abc")

	if !doc.IsModified() {
		t.Error("expected document to be modified")
	}
	if !doc.IsEditing() {
		t.Error("expected a pending commit")
	}
	if doc.History().UndoCount() != 0 {
		t.Errorf("expected no undo entries before the debounce fires, got %d", doc.History().UndoCount())
	}

	clock.fire()

	if doc.IsEditing() {
		t.Error("expected no pending commit after firing")
	}
	if doc.History().UndoCount() != 1 {
		t.Fatalf("expected 1 undo entry, got %d", doc.History().UndoCount())
	}

	if err := doc.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if doc.Content() != "a" {
		t.Errorf("expected %q, got %q", "a", doc.Content())
	}
}

func TestDocumentUndoRedoRoundTrip(t *testing.T) {
	doc, clock := newTestDocument("one")

	doc.Edit("two")
	clock.fire()
	doc.Edit("three")
	clock.fire()

	if err := doc.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if doc.Content() != "two" {
		t.Errorf("expected %q after undo, got %q", "two", doc.Content())
	}
	if !doc.IsModified() {
		t.Error("expected undo to mark the document modified")
	}

	if err := doc.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if doc.Content() != "three" {
		t.Errorf("expected %q after redo, got %q", "three", doc.Content())
	}

	_ = doc.Undo()
	_ = doc.Undo()
	if doc.Content() != "one" {
		t.Errorf("expected %q, got %q", "one", doc.Content())
	}
	if err := doc.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
	if doc.Content() != "one" {
		t.Errorf("expected empty undo to be a no-op, got %q", doc.Content())
	}
}

func TestDocumentUndoFlushesPendingEdit(t *testing.T) {
	doc, _ := newTestDocument("base")

	doc.Edit("typed")
	if err := doc.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}

	if doc.Content() != "base" {
		t.Errorf("expected %q, got %q", "base", doc.Content())
	}
	if doc.IsEditing() {
		t.Error("expected the pending commit to be consumed")
	}

	if err := doc.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if doc.Content() != "typed" {
		t.Errorf("expected %q, got %q", "typed", doc.Content())
	}
}

func TestDocumentEditClearsRedo(t *testing.T) {
	doc, clock := newTestDocument("v1")

	doc.Edit("v2")
	clock.fire()
	_ = doc.Undo()

	if doc.History().RedoCount() != 1 {
		t.Fatalf("expected 1 redo entry, got %d", doc.History().RedoCount())
	}

	doc.Edit("v3")
	clock.fire()
	if doc.History().RedoCount() != 0 {
		t.Errorf("expected redo stack to be cleared by a committed edit, got %d", doc.History().RedoCount())
	}
	if err := doc.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestDocumentRevertedEditKeepsRedo(t *testing.T) {
	doc, clock := newTestDocument("v1")

	doc.Edit("v2")
	clock.fire()
	_ = doc.Undo()

	doc.Edit("v1 typo")
	doc.Edit("v1")
	clock.fire()
	if doc.History().RedoCount() != 1 {
		t.Fatalf("expected the redo entry to survive a reverted edit, got %d", doc.History().RedoCount())
	}
	if err := doc.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if doc.Content() != "v2" {
		t.Errorf("expected %q, got %q", "v2", doc.Content())
	}
}

func TestDocumentRedoAfterPendingEdit(t *testing.T) {
	doc, clock := newTestDocument("v1")

	doc.Edit("v2")
	clock.fire()
	_ = doc.Undo()

	doc.Edit("v3")
	if err := doc.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("expected the pending edit to commit and clear redo, got %v", err)
	}
	if doc.Content() != "v3" {
		t.Errorf("expected %q, got %q", "v3", doc.Content())
	}
}

func TestDocumentUnchangedCommitSkipped(t *testing.T) {
	doc, clock := newTestDocument("same")

	doc.Edit("other")
	doc.Edit("same")
	clock.fire()

	if doc.History().UndoCount() != 0 {
		t.Errorf("expected no snapshot when content returns to the committed text, got %d", doc.History().UndoCount())
	}
}

func TestDocumentHistoryLimit(t *testing.T) {
	doc, clock := newTestDocument("0")

	for i := 1; i <= DefaultUndoLimit+10; i++ {
		doc.Edit(fmt.Sprint(i))
		clock.fire()
	}

	if doc.History().UndoCount() != DefaultUndoLimit {
		t.Fatalf("expected %d undo entries, got %d", DefaultUndoLimit, doc.History().UndoCount())
	}

	for doc.History().CanUndo() {
		_ = doc.Undo()
	}
	// The oldest ten snapshots were evicted.
	if doc.Content() != "10" {
		t.Errorf("expected oldest surviving snapshot %q, got %q", "10", doc.Content())
	}
	if doc.History().RedoCount() != DefaultUndoLimit {
		t.Errorf("expected %d redo entries, got %d", DefaultUndoLimit, doc.History().RedoCount())
	}
}

func TestDocumentVersion(t *testing.T) {
	doc, _ := newTestDocument("x")

	v := doc.Version()
	doc.Edit("x")
	if doc.Version() != v {
		t.Errorf("expected version unchanged for identical content, got %d", doc.Version())
	}
	doc.Edit("y")
	if doc.Version() != v+1 {
		t.Errorf("expected version %d, got %d", v+1, doc.Version())
	}
}

func TestDocumentCloseCancelsCommit(t *testing.T) {
	doc, clock := newTestDocument("a")

	doc.Edit("b")
	doc.close()
	clock.fire()

	if doc.History().UndoCount() != 0 {
		t.Errorf("expected no commit after close, got %d", doc.History().UndoCount())
	}
	if err := doc.Undo(); !errors.Is(err, ErrDocumentClosed) {
		t.Errorf("expected ErrDocumentClosed, got %v", err)
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for _, s := range []string{"a", "b", "c", "d"} {
		h.Push(s)
	}

	if h.UndoCount() != 3 {
		t.Fatalf("expected 3 entries, got %d", h.UndoCount())
	}

	var got []string
	cur := "e"
	for h.CanUndo() {
		prev, err := h.Undo(cur)
		if err != nil {
			t.Fatalf("Undo failed: %v", err)
		}
		got = append(got, prev)
		cur = prev
	}

	want := []string{"d", "c", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %q at %d, got %q", want[i], i, got[i])
		}
	}
}
