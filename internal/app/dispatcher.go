package app

import (
	"errors"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/dollspace-gay/AuroraHeart/internal/editor"
	"github.com/dollspace-gay/AuroraHeart/internal/input"
	"github.com/dollspace-gay/AuroraHeart/internal/search"
	"github.com/dollspace-gay/AuroraHeart/internal/terminal"
)

// Focus is the pane that receives unbound keys.
type Focus int

const (
	FocusEditor Focus = iota
	FocusTerminal
)

func (f Focus) String() string {
	if f == FocusTerminal {
		return "terminal"
	}
	return "editor"
}

// Handler runs an action and reports whether it applied.
type Handler func() bool

// Dispatcher routes key presses to workspace and terminal operations.
// It runs on the loop.
type Dispatcher struct {
	workspace *editor.Workspace
	terminals *terminal.Multiplexer
	keymap    *input.Keymap
	handlers  map[input.Action]Handler
	logger    *slog.Logger

	focus       Focus
	replacement string

	// OnFind is called for the find action; nil leaves it unhandled.
	OnFind func()

	// OnError receives failures of asynchronous actions such as save.
	OnError func(error)
}

// NewDispatcher creates a dispatcher with the built-in handlers.
func NewDispatcher(ws *editor.Workspace, terms *terminal.Multiplexer, keymap *input.Keymap, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Dispatcher{
		workspace: ws,
		terminals: terms,
		keymap:    keymap,
		logger:    logger.With("component", "dispatcher"),
	}
	d.handlers = map[input.Action]Handler{
		input.ActionUndo:         d.undo,
		input.ActionRedo:         d.redo,
		input.ActionSave:         d.save,
		input.ActionCloseTab:     d.closeTab,
		input.ActionNextTab:      d.withDocs(ws.Next),
		input.ActionPrevTab:      d.withDocs(ws.Previous),
		input.ActionFind:         d.find,
		input.ActionFindNext:     d.withMatches(func(e *search.Engine) { e.Next() }),
		input.ActionFindPrevious: d.withMatches(func(e *search.Engine) { e.Previous() }),
		input.ActionReplace:      d.withMatches(func(e *search.Engine) { e.ReplaceCurrent(d.replacement) }),
		input.ActionReplaceAll:   d.withMatches(func(e *search.Engine) { e.ReplaceAll(d.replacement) }),
		input.ActionNewTerminal:  d.newTerminal,
		input.ActionCloseTerm:    d.closeTerminal,
		input.ActionNextTerm:     d.withTerminals(terms.Next),
		input.ActionPrevTerm:     d.withTerminals(terms.Previous),
		input.ActionToggleFocus:  d.toggleFocus,
	}
	return d
}

// SetKeymap replaces the keymap.
func (d *Dispatcher) SetKeymap(k *input.Keymap) {
	d.keymap = k
}

// Keymap returns the keymap in use.
func (d *Dispatcher) Keymap() *input.Keymap {
	return d.keymap
}

// SetFocus selects the pane that receives unbound keys.
func (d *Dispatcher) SetFocus(f Focus) {
	d.focus = f
}

// Focus returns the focused pane.
func (d *Dispatcher) Focus() Focus {
	return d.focus
}

// SetReplacement sets the text used by the replace actions.
func (d *Dispatcher) SetReplacement(text string) {
	d.replacement = text
}

// Find runs a query against the active document.
func (d *Dispatcher) Find(query string, opts search.Options) error {
	e := d.workspace.Search()
	e.Recompute(query, opts)
	return e.Err()
}

// HandleKey handles a terminal key event and reports whether it was
// consumed.
func (d *Dispatcher) HandleKey(ev *tcell.EventKey) bool {
	c, ok := input.FromEvent(ev)
	if !ok {
		return false
	}
	return d.HandleChord(c)
}

// HandleChord runs the chord's action. With the terminal focused, editor
// and search actions are skipped, and chords that run nothing go to the
// active shell.
func (d *Dispatcher) HandleChord(c input.Chord) bool {
	if action, ok := d.keymap.Lookup(c); ok && d.applies(action) && d.Run(action) {
		return true
	}
	if d.focus == FocusTerminal {
		return d.sendToTerminal(c)
	}
	return false
}

// Run executes an action and reports whether it applied.
func (d *Dispatcher) Run(action input.Action) bool {
	h, ok := d.handlers[action]
	if !ok {
		d.logger.Debug("no handler", "action", action)
		return false
	}
	return h()
}

func (d *Dispatcher) applies(action input.Action) bool {
	if d.focus == FocusEditor {
		return true
	}
	switch action.Scope() {
	case "editor", "search":
		return false
	}
	return true
}

func (d *Dispatcher) toggleFocus() bool {
	if d.focus == FocusEditor && d.terminals.Len() > 0 {
		d.focus = FocusTerminal
	} else {
		d.focus = FocusEditor
	}
	return true
}

func (d *Dispatcher) undo() bool {
	return d.history(d.workspace.Undo(), editor.ErrNothingToUndo)
}

func (d *Dispatcher) redo() bool {
	return d.history(d.workspace.Redo(), editor.ErrNothingToRedo)
}

// history treats an empty stack as handled so the key does not fall
// through to the focused pane.
func (d *Dispatcher) history(err, empty error) bool {
	switch {
	case err == nil, errors.Is(err, empty):
		return true
	default:
		return false
	}
}

func (d *Dispatcher) save() bool {
	if d.workspace.Active() == nil {
		return false
	}
	d.workspace.SaveActive(func(err error) {
		if err != nil && d.OnError != nil {
			d.OnError(err)
		}
	})
	return true
}

func (d *Dispatcher) closeTab() bool {
	return d.workspace.CloseActive() == nil
}

func (d *Dispatcher) find() bool {
	if d.OnFind == nil {
		return false
	}
	d.OnFind()
	return true
}

func (d *Dispatcher) newTerminal() bool {
	d.terminals.Spawn("", 0, 0)
	d.focus = FocusTerminal
	return true
}

func (d *Dispatcher) closeTerminal() bool {
	key := d.terminals.ActiveKey()
	if key == "" {
		return false
	}
	d.terminals.Close(key)
	if d.terminals.Len() == 0 {
		d.focus = FocusEditor
	}
	return true
}

func (d *Dispatcher) withDocs(fn func()) Handler {
	return func() bool {
		if d.workspace.Len() == 0 {
			return false
		}
		fn()
		return true
	}
}

func (d *Dispatcher) withMatches(fn func(*search.Engine)) Handler {
	return func() bool {
		e := d.workspace.Search()
		if e.Buffer() == nil || e.Len() == 0 {
			return false
		}
		fn(e)
		return true
	}
}

func (d *Dispatcher) withTerminals(fn func()) Handler {
	return func() bool {
		if d.terminals.Len() == 0 {
			return false
		}
		fn()
		return true
	}
}

func (d *Dispatcher) sendToTerminal(c input.Chord) bool {
	key := d.terminals.ActiveKey()
	if key == "" {
		return false
	}
	data, ok := terminalBytes(c)
	if !ok {
		return false
	}
	if err := d.terminals.Write(key, data); err != nil {
		d.logger.Debug("terminal input dropped", "tab", key, "error", err)
		return false
	}
	return true
}
