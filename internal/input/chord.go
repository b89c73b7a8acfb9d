// Package input turns key presses into editor actions.
package input

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// Parse errors.
var (
	ErrEmptyChord   = errors.New("empty key chord")
	ErrInvalidChord = errors.New("invalid key chord")
)

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModMeta

	ModNone Modifier = 0
)

// Has reports whether m contains mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// String renders m as "Ctrl+Alt+Shift+Meta" in that order.
func (m Modifier) String() string {
	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

// Chord is one key with its modifiers. Key is a lowercase character or a
// named key such as "Tab" or "F5". Chords are comparable and usable as map
// keys.
type Chord struct {
	Mod Modifier
	Key string
}

// String renders the chord the way Parse accepts it.
func (c Chord) String() string {
	key := c.Key
	if utf8.RuneCountInString(key) == 1 {
		key = strings.ToUpper(key)
	}
	if c.Mod == ModNone {
		return key
	}
	return c.Mod.String() + "+" + key
}

// namedKeys maps lowercase spellings to canonical key names.
var namedKeys = map[string]string{
	"tab":       "Tab",
	"enter":     "Enter",
	"return":    "Enter",
	"esc":       "Escape",
	"escape":    "Escape",
	"backspace": "Backspace",
	"delete":    "Delete",
	"del":       "Delete",
	"insert":    "Insert",
	"home":      "Home",
	"end":       "End",
	"pageup":    "PageUp",
	"pgup":      "PageUp",
	"pagedown":  "PageDown",
	"pgdn":      "PageDown",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"space":     "Space",
	"f1":        "F1",
	"f2":        "F2",
	"f3":        "F3",
	"f4":        "F4",
	"f5":        "F5",
	"f6":        "F6",
	"f7":        "F7",
	"f8":        "F8",
	"f9":        "F9",
	"f10":       "F10",
	"f11":       "F11",
	"f12":       "F12",
}

// Parse reads a chord such as "Ctrl+Shift+Z", "ctrl+tab" or "F3".
// Modifier and key names are case-insensitive; an uppercase letter with
// no Shift is the same as its lowercase form.
func Parse(spec string) (Chord, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Chord{}, ErrEmptyChord
	}

	parts := strings.Split(spec, "+")
	// "Ctrl++" binds the plus key.
	if strings.HasSuffix(spec, "++") {
		parts = append(parts[:len(parts)-2], "+")
	}

	var c Chord
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "ctrl", "control", "c":
			c.Mod |= ModCtrl
		case "alt", "option", "a":
			c.Mod |= ModAlt
		case "shift", "s":
			c.Mod |= ModShift
		case "meta", "cmd", "super", "m":
			c.Mod |= ModMeta
		default:
			return Chord{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidChord, p, spec)
		}
	}

	key := strings.TrimSpace(parts[len(parts)-1])
	if key == "" {
		key = "+"
	}
	if utf8.RuneCountInString(key) == 1 {
		r, _ := utf8.DecodeRuneInString(key)
		c.Key = string(unicode.ToLower(r))
		return c, nil
	}
	name, ok := namedKeys[strings.ToLower(key)]
	if !ok {
		return Chord{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidChord, key, spec)
	}
	c.Key = name
	return c, nil
}

// MustParse is Parse for chords known at compile time.
func MustParse(spec string) Chord {
	c, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return c
}

// tcellKeys maps tcell's special keys to key names.
var tcellKeys = map[tcell.Key]string{
	tcell.KeyTab:        "Tab",
	tcell.KeyEnter:      "Enter",
	tcell.KeyEscape:     "Escape",
	tcell.KeyBackspace:  "Backspace",
	tcell.KeyBackspace2: "Backspace",
	tcell.KeyDelete:     "Delete",
	tcell.KeyInsert:     "Insert",
	tcell.KeyHome:       "Home",
	tcell.KeyEnd:        "End",
	tcell.KeyPgUp:       "PageUp",
	tcell.KeyPgDn:       "PageDown",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyF1:         "F1",
	tcell.KeyF2:         "F2",
	tcell.KeyF3:         "F3",
	tcell.KeyF4:         "F4",
	tcell.KeyF5:         "F5",
	tcell.KeyF6:         "F6",
	tcell.KeyF7:         "F7",
	tcell.KeyF8:         "F8",
	tcell.KeyF9:         "F9",
	tcell.KeyF10:        "F10",
	tcell.KeyF11:        "F11",
	tcell.KeyF12:        "F12",
}

// FromEvent converts a tcell key event. It reports false for keys that
// have no chord form.
func FromEvent(ev *tcell.EventKey) (Chord, bool) {
	mod := convertMod(ev.Modifiers())
	k := ev.Key()

	switch {
	case k == tcell.KeyRune:
		r := ev.Rune()
		if r == ' ' {
			return Chord{Mod: mod, Key: "Space"}, true
		}
		if unicode.IsUpper(r) {
			mod |= ModShift
			r = unicode.ToLower(r)
		}
		return Chord{Mod: mod, Key: string(r)}, true

	case k == tcell.KeyBacktab:
		return Chord{Mod: mod | ModShift, Key: "Tab"}, true

	case k == tcell.KeyCtrlSpace:
		return Chord{Mod: mod | ModCtrl, Key: "Space"}, true
	}

	if name, ok := tcellKeys[k]; ok {
		return Chord{Mod: mod, Key: name}, true
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return Chord{Mod: mod | ModCtrl, Key: string(rune('a' + k - tcell.KeyCtrlA))}, true
	}
	return Chord{}, false
}

func convertMod(m tcell.ModMask) Modifier {
	var mod Modifier
	if m&tcell.ModShift != 0 {
		mod |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mod |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mod |= ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mod |= ModMeta
	}
	return mod
}
