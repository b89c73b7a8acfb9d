package input

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Action names a command the dispatcher knows how to run.
type Action string

// Editor and terminal actions.
const (
	ActionUndo         Action = "editor.undo"
	ActionRedo         Action = "editor.redo"
	ActionSave         Action = "editor.save"
	ActionCloseTab     Action = "editor.closeTab"
	ActionNextTab      Action = "editor.nextTab"
	ActionPrevTab      Action = "editor.previousTab"
	ActionFind         Action = "search.find"
	ActionFindNext     Action = "search.next"
	ActionFindPrevious Action = "search.previous"
	ActionReplace      Action = "search.replace"
	ActionReplaceAll   Action = "search.replaceAll"
	ActionNewTerminal  Action = "terminal.new"
	ActionCloseTerm    Action = "terminal.close"
	ActionNextTerm     Action = "terminal.next"
	ActionPrevTerm     Action = "terminal.previous"
	ActionToggleFocus  Action = "view.toggleFocus"
)

// Scope returns the part of the action name before the first dot.
func (a Action) Scope() string {
	scope, _, _ := strings.Cut(string(a), ".")
	return scope
}

// ErrUnknownAction is returned when binding an action nobody handles.
var ErrUnknownAction = errors.New("unknown action")

// defaultBindings are the built-in shortcuts.
var defaultBindings = []struct {
	action Action
	chords []string
}{
	{ActionUndo, []string{"Ctrl+Z"}},
	{ActionRedo, []string{"Ctrl+Y", "Ctrl+Shift+Z"}},
	{ActionSave, []string{"Ctrl+S"}},
	{ActionCloseTab, []string{"Ctrl+W"}},
	{ActionNextTab, []string{"Ctrl+Tab", "Ctrl+PageDown"}},
	{ActionPrevTab, []string{"Ctrl+Shift+Tab", "Ctrl+PageUp"}},
	{ActionFind, []string{"Ctrl+F"}},
	{ActionFindNext, []string{"F3"}},
	{ActionFindPrevious, []string{"Shift+F3"}},
	{ActionReplace, []string{"Ctrl+H"}},
	{ActionReplaceAll, []string{"Ctrl+Alt+Enter"}},
	{ActionNewTerminal, []string{"Ctrl+Shift+T"}},
	{ActionCloseTerm, []string{"Ctrl+Shift+W"}},
	{ActionNextTerm, []string{"Alt+Right"}},
	{ActionPrevTerm, []string{"Alt+Left"}},
	{ActionToggleFocus, []string{"F6"}},
}

// Keymap maps chords to actions. Each chord triggers at most one action;
// an action may have several chords.
type Keymap struct {
	bindings map[Chord]Action
	known    map[Action]bool
}

// NewKeymap returns an empty keymap that accepts the given actions.
func NewKeymap(actions ...Action) *Keymap {
	k := &Keymap{
		bindings: make(map[Chord]Action),
		known:    make(map[Action]bool),
	}
	for _, a := range actions {
		k.known[a] = true
	}
	return k
}

// DefaultKeymap returns the built-in shortcuts.
func DefaultKeymap() *Keymap {
	k := NewKeymap()
	for _, b := range defaultBindings {
		k.known[b.action] = true
		for _, spec := range b.chords {
			k.bindings[MustParse(spec)] = b.action
		}
	}
	return k
}

// Bind adds chords for an action, taking them from any other action.
func (k *Keymap) Bind(action Action, chords ...Chord) error {
	if !k.known[action] {
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	for _, c := range chords {
		k.bindings[c] = action
	}
	return nil
}

// Unbind removes every chord of an action.
func (k *Keymap) Unbind(action Action) {
	for c, a := range k.bindings {
		if a == action {
			delete(k.bindings, c)
		}
	}
}

// Apply replaces the chords of each listed action. An empty list unbinds
// the action. Nothing changes if any entry is invalid.
func (k *Keymap) Apply(overrides map[string][]string) error {
	parsed := make(map[Action][]Chord, len(overrides))
	var errs []error
	for name, specs := range overrides {
		action := Action(name)
		if !k.known[action] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownAction, name))
			continue
		}
		chords := make([]Chord, 0, len(specs))
		for _, spec := range specs {
			c, err := Parse(spec)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			chords = append(chords, c)
		}
		parsed[action] = chords
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	// Deterministic order so later actions win chord conflicts the same
	// way every time.
	actions := make([]Action, 0, len(parsed))
	for a := range parsed {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })

	for _, a := range actions {
		k.Unbind(a)
	}
	for _, a := range actions {
		for _, c := range parsed[a] {
			k.bindings[c] = a
		}
	}
	return nil
}

// Lookup returns the action bound to a chord.
func (k *Keymap) Lookup(c Chord) (Action, bool) {
	a, ok := k.bindings[c]
	return a, ok
}

// Chords returns the chords of an action, sorted by their string form.
func (k *Keymap) Chords(action Action) []Chord {
	var out []Chord
	for c, a := range k.bindings {
		if a == action {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Actions returns every known action, sorted.
func (k *Keymap) Actions() []Action {
	out := make([]Action, 0, len(k.known))
	for a := range k.known {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (k *Keymap) Clone() *Keymap {
	c := NewKeymap()
	for a := range k.known {
		c.known[a] = true
	}
	for ch, a := range k.bindings {
		c.bindings[ch] = a
	}
	return c
}
