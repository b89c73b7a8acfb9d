package editor

import (
	"context"
	"path/filepath"
	"time"

	"github.com/dollspace-gay/AuroraHeart/internal/debounce"
	"github.com/dollspace-gay/AuroraHeart/internal/loop"
)

// DefaultDebounce is the quiet period after which edits are committed to
// the undo history.
const DefaultDebounce = 300 * time.Millisecond

// DocumentOptions configures a Document.
type DocumentOptions struct {
	// Poster runs the debounce commit. Required.
	Poster loop.Poster

	// Debounce is the commit delay. Zero means DefaultDebounce.
	Debounce time.Duration

	// UndoLimit bounds each history stack. Zero means DefaultUndoLimit.
	UndoLimit int

	// AfterFunc replaces the commit timer source, for tests.
	AfterFunc debounce.AfterFunc
}

// Document is one open file buffer.
//
// Edits replace the whole content and are grouped into undo snapshots by a
// debounce timer: the content at the last commit is pushed onto the undo
// stack once typing pauses. All methods must be called on the owning loop.
type Document struct {
	// Path is the document's key in the workspace.
	Path string

	// Name is the display name.
	Name string

	content   string
	committed string // content at the last commit
	modified  bool
	version   uint64

	history  *History
	debounce *debounce.Debouncer

	// save state
	saving     bool
	saveCancel context.CancelFunc
	saveQueue  []func(error)

	closed bool
}

// NewDocument creates an unmodified document holding content.
func NewDocument(path, content string, opts DocumentOptions) *Document {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	d := &Document{
		Path:      path,
		Name:      filepath.Base(path),
		content:   content,
		committed: content,
		history:   NewHistory(opts.UndoLimit),
	}

	var dopts []debounce.Option
	if opts.AfterFunc != nil {
		dopts = append(dopts, debounce.WithAfterFunc(opts.AfterFunc))
	}
	d.debounce = debounce.New(opts.Debounce, opts.Poster, d.commit, dopts...)
	return d
}

// Content returns the buffer.
func (d *Document) Content() string {
	return d.content
}

// Version increases on every content change.
func (d *Document) Version() uint64 {
	return d.version
}

// IsModified returns true if the document has unsaved changes.
func (d *Document) IsModified() bool {
	return d.modified
}

// IsEditing returns true while an edit is waiting to be committed.
func (d *Document) IsEditing() bool {
	return d.debounce.IsPending()
}

// IsClosed returns true once the document's tab was closed.
func (d *Document) IsClosed() bool {
	return d.closed
}

// History returns the document's undo history.
func (d *Document) History() *History {
	return d.history
}

// Edit replaces the content and schedules a commit. The redo stack is
// cleared when the commit lands, so an edit reverted before then keeps it.
func (d *Document) Edit(content string) {
	if d.closed {
		return
	}
	d.setContent(content)
	d.modified = true
	d.debounce.Call()
}

// Flush commits a pending edit immediately.
func (d *Document) Flush() {
	d.debounce.Flush()
}

// Undo restores the most recent snapshot. A pending edit is committed
// first so it can itself be undone.
func (d *Document) Undo() error {
	if d.closed {
		return ErrDocumentClosed
	}
	d.debounce.Flush()

	prev, err := d.history.Undo(d.content)
	if err != nil {
		return err
	}
	d.restore(prev)
	return nil
}

// Redo reapplies the most recently undone snapshot.
func (d *Document) Redo() error {
	if d.closed {
		return ErrDocumentClosed
	}
	d.debounce.Flush()

	next, err := d.history.Redo(d.content)
	if err != nil {
		return err
	}
	d.restore(next)
	return nil
}

func (d *Document) restore(content string) {
	d.setContent(content)
	d.committed = content
	d.modified = true
}

func (d *Document) setContent(content string) {
	if content != d.content {
		d.version++
	}
	d.content = content
}

// commit runs on the loop when the debounce fires.
func (d *Document) commit() {
	if d.closed || d.content == d.committed {
		return
	}
	d.history.Push(d.committed)
	d.committed = d.content
}

// close cancels the pending commit and any in-flight save.
func (d *Document) close() {
	if d.closed {
		return
	}
	d.closed = true
	d.debounce.Cancel()
	if d.saveCancel != nil {
		d.saveCancel()
	}
	queued := d.saveQueue
	d.saveQueue = nil
	for _, done := range queued {
		if done != nil {
			done(ErrDocumentClosed)
		}
	}
}
