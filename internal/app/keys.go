package app

import (
	"unicode/utf8"

	"github.com/dollspace-gay/AuroraHeart/internal/input"
)

// xtermKeys are the bytes an xterm-256color shell expects for named keys.
var xtermKeys = map[string]string{
	"Enter":     "\r",
	"Tab":       "\t",
	"Backspace": "\x7f",
	"Escape":    "\x1b",
	"Space":     " ",
	"Up":        "\x1b[A",
	"Down":      "\x1b[B",
	"Right":     "\x1b[C",
	"Left":      "\x1b[D",
	"Home":      "\x1b[H",
	"End":       "\x1b[F",
	"Insert":    "\x1b[2~",
	"Delete":    "\x1b[3~",
	"PageUp":    "\x1b[5~",
	"PageDown":  "\x1b[6~",
	"F1":        "\x1bOP",
	"F2":        "\x1bOQ",
	"F3":        "\x1bOR",
	"F4":        "\x1bOS",
	"F5":        "\x1b[15~",
	"F6":        "\x1b[17~",
	"F7":        "\x1b[18~",
	"F8":        "\x1b[19~",
	"F9":        "\x1b[20~",
	"F10":       "\x1b[21~",
	"F11":       "\x1b[23~",
	"F12":       "\x1b[24~",
}

// terminalBytes encodes a chord as shell input. It reports false for
// chords a terminal cannot receive.
func terminalBytes(c input.Chord) ([]byte, bool) {
	if seq, ok := xtermKeys[c.Key]; ok {
		if c.Key == "Tab" && c.Mod.Has(input.ModShift) {
			seq = "\x1b[Z"
		}
		return prefixAlt(c, []byte(seq)), true
	}

	r, size := utf8.DecodeRuneInString(c.Key)
	if r == utf8.RuneError || size != len(c.Key) {
		return nil, false
	}

	if c.Mod.Has(input.ModCtrl) {
		switch {
		case r >= 'a' && r <= 'z':
			return prefixAlt(c, []byte{byte(r-'a') + 1}), true
		case r == '@' || r == ' ':
			return prefixAlt(c, []byte{0}), true
		case r == '[':
			return prefixAlt(c, []byte{0x1b}), true
		}
		return nil, false
	}

	if c.Mod.Has(input.ModShift) && r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	return prefixAlt(c, []byte(string(r))), true
}

// prefixAlt sends Alt as a leading escape, the xterm meta convention.
func prefixAlt(c input.Chord, b []byte) []byte {
	if !c.Mod.Has(input.ModAlt) {
		return b
	}
	return append([]byte{0x1b}, b...)
}
