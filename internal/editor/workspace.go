package editor

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dollspace-gay/AuroraHeart/internal/debounce"
	"github.com/dollspace-gay/AuroraHeart/internal/errs"
	"github.com/dollspace-gay/AuroraHeart/internal/files"
	"github.com/dollspace-gay/AuroraHeart/internal/loop"
	"github.com/dollspace-gay/AuroraHeart/internal/search"
)

// DefaultCallTimeout bounds each file collaborator call.
const DefaultCallTimeout = 10 * time.Second

// Options configures a Workspace.
type Options struct {
	// FS reads and writes documents. Required.
	FS files.FS

	// Poster is the owning loop. Required.
	Poster loop.Poster

	// Logger receives surfaced errors. Nil discards them.
	Logger *slog.Logger

	Debounce    time.Duration
	UndoLimit   int
	CallTimeout time.Duration

	// AfterFunc replaces the debounce timer source, for tests.
	AfterFunc debounce.AfterFunc
}

// Listener is notified of workspace changes on the loop.
type Listener interface {
	// TabsChanged is called after tabs open, close or the active tab moves.
	TabsChanged(w *Workspace)
	// Error is called with every surfaced collaborator error.
	Error(err error)
}

// Workspace is the ordered set of open documents with one active tab and
// a search engine bound to the active document.
//
// All methods must be called on the owning loop. Collaborator calls run on
// their own goroutines and post their completion back to it.
type Workspace struct {
	opts   Options
	logger *slog.Logger

	docs   []*Document
	active int

	search    *search.Engine
	listeners []Listener
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(opts Options) *Workspace {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Workspace{
		opts:   opts,
		logger: logger.With("component", "workspace"),
		active: -1,
		search: search.NewEngine(),
	}
}

// AddListener registers l for change notifications.
func (w *Workspace) AddListener(l Listener) {
	w.listeners = append(w.listeners, l)
}

// Open opens the document at path, or activates it if it is already open.
// done, if non-nil, runs on the loop with the document or an ErrIO error;
// on error the workspace is unchanged.
func (w *Workspace) Open(path string, done func(*Document, error)) {
	path = filepath.Clean(path)
	if idx := w.Index(path); idx >= 0 {
		w.setActive(idx)
		complete(done, w.docs[idx], nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.opts.CallTimeout)
	go func() {
		defer cancel()
		content, err := w.opts.FS.ReadFile(ctx, path)
		w.opts.Poster.Post(func() {
			if err != nil {
				w.fail(ioError("open", path, err), func(err error) { complete(done, nil, err) })
				return
			}
			complete(done, w.adopt(path, content), nil)
		})
	}()
}

// OpenPicked asks picker for a file and opens it as Open does. The
// picker's content is used directly without reading the file again.
func (w *Workspace) OpenPicked(picker files.Picker, done func(*Document, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.CallTimeout)
	go func() {
		defer cancel()
		path, content, err := picker.Pick(ctx)
		w.opts.Poster.Post(func() {
			if err != nil {
				w.fail(ioError("open", path, err), func(err error) { complete(done, nil, err) })
				return
			}
			complete(done, w.adopt(filepath.Clean(path), content), nil)
		})
	}()
}

// adopt activates the document for path, creating it unless an open that
// completed earlier already did.
func (w *Workspace) adopt(path, content string) *Document {
	if idx := w.Index(path); idx >= 0 {
		w.setActive(idx)
		return w.docs[idx]
	}

	doc := NewDocument(path, content, DocumentOptions{
		Poster:    w.opts.Poster,
		Debounce:  w.opts.Debounce,
		UndoLimit: w.opts.UndoLimit,
		AfterFunc: w.opts.AfterFunc,
	})
	w.docs = append(w.docs, doc)
	w.logger.Debug("document opened", "path", path)
	w.setActive(len(w.docs) - 1)
	return doc
}

// Save writes the document at index. done, if non-nil, runs on the loop
// with nil or an ErrIO error. The modified flag is cleared only if the
// buffer did not change while the write was in flight. A save requested
// while another is running is queued behind it and writes the content
// current at that time.
func (w *Workspace) Save(index int, done func(error)) {
	doc, err := w.doc(index)
	if err != nil {
		if done != nil {
			done(err)
		}
		return
	}

	if doc.saving {
		doc.saveQueue = append(doc.saveQueue, done)
		return
	}
	w.startSave(doc, []func(error){done})
}

// SaveActive saves the active document.
func (w *Workspace) SaveActive(done func(error)) {
	w.Save(w.active, done)
}

func (w *Workspace) startSave(doc *Document, waiters []func(error)) {
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.CallTimeout)
	doc.saving = true
	doc.saveCancel = cancel

	content, version := doc.content, doc.version
	go func() {
		err := w.opts.FS.WriteFile(ctx, doc.Path, content)
		w.opts.Poster.Post(func() {
			cancel()
			w.finishSave(doc, version, err, waiters)
		})
	}()
}

func (w *Workspace) finishSave(doc *Document, version uint64, err error, waiters []func(error)) {
	doc.saving = false
	doc.saveCancel = nil

	if doc.closed {
		notify(waiters, ErrDocumentClosed)
		return
	}

	if err != nil {
		w.fail(ioError("save", doc.Path, err), func(err error) { notify(waiters, err) })
	} else {
		if doc.version == version {
			doc.modified = false
		}
		w.logger.Debug("document saved", "path", doc.Path)
		notify(waiters, nil)
	}

	if len(doc.saveQueue) > 0 {
		queued := doc.saveQueue
		doc.saveQueue = nil
		w.startSave(doc, queued)
	}
}

// CloseTab closes the document at index, dropping its history and
// canceling its pending commit and in-flight save. Closing the active tab
// activates the tab now at the same index, or the new last tab.
func (w *Workspace) CloseTab(index int) error {
	doc, err := w.doc(index)
	if err != nil {
		return err
	}

	doc.close()
	w.docs = append(w.docs[:index], w.docs[index+1:]...)

	switch {
	case len(w.docs) == 0:
		w.active = -1
	case index == w.active:
		w.active = min(index, len(w.docs)-1)
	case index < w.active:
		w.active--
	}

	w.logger.Debug("document closed", "path", doc.Path)
	w.changed()
	return nil
}

// CloseActive closes the active tab.
func (w *Workspace) CloseActive() error {
	return w.CloseTab(w.active)
}

// CloseAll closes every tab.
func (w *Workspace) CloseAll() {
	for len(w.docs) > 0 {
		_ = w.CloseTab(len(w.docs) - 1)
	}
}

// Activate makes the tab at index active.
func (w *Workspace) Activate(index int) error {
	if _, err := w.doc(index); err != nil {
		return err
	}
	w.setActive(index)
	return nil
}

// Next activates the following tab, wrapping around.
func (w *Workspace) Next() {
	if len(w.docs) == 0 {
		return
	}
	w.setActive((w.active + 1) % len(w.docs))
}

// Previous activates the preceding tab, wrapping around.
func (w *Workspace) Previous() {
	if len(w.docs) == 0 {
		return
	}
	idx := w.active - 1
	if idx < 0 {
		idx = len(w.docs) - 1
	}
	w.setActive(idx)
}

// Undo undoes in the active document.
func (w *Workspace) Undo() error {
	doc := w.Active()
	if doc == nil {
		return ErrNoActiveDocument
	}
	return doc.Undo()
}

// Redo redoes in the active document.
func (w *Workspace) Redo() error {
	doc := w.Active()
	if doc == nil {
		return ErrNoActiveDocument
	}
	return doc.Redo()
}

// Edit replaces the active document's content.
func (w *Workspace) Edit(content string) error {
	doc := w.Active()
	if doc == nil {
		return ErrNoActiveDocument
	}
	doc.Edit(content)
	return nil
}

// Search returns the engine bound to the active document.
func (w *Workspace) Search() *search.Engine {
	return w.search
}

// Active returns the active document, or nil.
func (w *Workspace) Active() *Document {
	if w.active < 0 {
		return nil
	}
	return w.docs[w.active]
}

// ActiveIndex returns the active tab index, or -1.
func (w *Workspace) ActiveIndex() int {
	return w.active
}

// Documents returns the open documents in tab order.
func (w *Workspace) Documents() []*Document {
	out := make([]*Document, len(w.docs))
	copy(out, w.docs)
	return out
}

// Len returns the number of open documents.
func (w *Workspace) Len() int {
	return len(w.docs)
}

// Index returns the tab index of path, or -1.
func (w *Workspace) Index(path string) int {
	path = filepath.Clean(path)
	for i, doc := range w.docs {
		if doc.Path == path {
			return i
		}
	}
	return -1
}

// DirtyDocuments returns all documents with unsaved changes.
func (w *Workspace) DirtyDocuments() []*Document {
	var dirty []*Document
	for _, doc := range w.docs {
		if doc.IsModified() {
			dirty = append(dirty, doc)
		}
	}
	return dirty
}

func (w *Workspace) doc(index int) (*Document, error) {
	if index < 0 || index >= len(w.docs) {
		if len(w.docs) == 0 {
			return nil, ErrNoActiveDocument
		}
		return nil, ErrTabIndex
	}
	return w.docs[index], nil
}

func (w *Workspace) setActive(index int) {
	w.active = index
	w.changed()
}

// changed rebinds the search engine and notifies listeners.
func (w *Workspace) changed() {
	if doc := w.Active(); doc != nil {
		if w.search.Buffer() != search.Buffer(doc) {
			w.search.Attach(doc)
		}
	} else {
		w.search.Attach(nil)
	}
	for _, l := range w.listeners {
		l.TabsChanged(w)
	}
}

// fail logs err, tells listeners and hands it to report.
func (w *Workspace) fail(err error, report func(error)) {
	var e *errs.Error
	if errors.As(err, &e) {
		w.logger.Warn("file operation failed", "op", e.Op, "path", e.Target, "error", e.Err)
	} else {
		w.logger.Warn("file operation failed", "error", err)
	}
	for _, l := range w.listeners {
		l.Error(err)
	}
	report(err)
}

// ioError keeps errors the collaborator already classified.
func ioError(op, path string, err error) error {
	if errs.KindOf(err) != nil {
		return err
	}
	return errs.IO(op, path, err)
}

func complete(done func(*Document, error), doc *Document, err error) {
	if done != nil {
		done(doc, err)
	}
}

func notify(waiters []func(error), err error) {
	for _, done := range waiters {
		if done != nil {
			done(err)
		}
	}
}
