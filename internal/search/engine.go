package search

import (
	"sort"
	"strings"
)

// Buffer is the text an Engine searches. editor.Document implements it.
type Buffer interface {
	Content() string
	// Version changes whenever Content changes.
	Version() uint64
	// Edit replaces the whole content as one undoable change.
	Edit(content string)
}

// Engine maintains the match set of a query over one buffer.
//
// The match set is recomputed when the query or options change, when the
// engine is attached to another buffer, and lazily when the buffer's
// version moves. Engine is not safe for concurrent use; it lives on the
// same loop as the buffer it searches.
type Engine struct {
	buf     Buffer
	version uint64

	query string
	opts  Options

	matches []Match
	current int
	err     error
}

// NewEngine creates an engine with no buffer and an empty query.
func NewEngine() *Engine {
	return &Engine{current: -1}
}

// Attach binds the engine to buf, keeping the query and options. A nil buf
// detaches it.
func (e *Engine) Attach(buf Buffer) {
	e.buf = buf
	e.recompute()
	e.resetCurrent()
}

// Buffer returns the attached buffer.
func (e *Engine) Buffer() Buffer {
	return e.buf
}

// Recompute sets the query and options and rebuilds the match set. The
// current pointer moves to the first match, or -1 if there is none.
func (e *Engine) Recompute(query string, opts Options) {
	e.query = query
	e.opts = opts
	e.recompute()
	e.resetCurrent()
}

// Clear drops the query.
func (e *Engine) Clear() {
	e.Recompute("", e.opts)
}

// Query returns the current query.
func (e *Engine) Query() string {
	return e.query
}

// Options returns the current options.
func (e *Engine) Options() Options {
	return e.opts
}

// Err returns the pattern error of the last computation, if any.
func (e *Engine) Err() error {
	e.sync()
	return e.err
}

// Matches returns the match set.
func (e *Engine) Matches() []Match {
	e.sync()
	out := make([]Match, len(e.matches))
	copy(out, e.matches)
	return out
}

// Len returns the number of matches.
func (e *Engine) Len() int {
	e.sync()
	return len(e.matches)
}

// Current returns the index of the current match, or -1.
func (e *Engine) Current() int {
	e.sync()
	return e.current
}

// CurrentMatch returns the current match.
func (e *Engine) CurrentMatch() (Match, bool) {
	e.sync()
	if e.current < 0 {
		return Match{}, false
	}
	return e.matches[e.current], true
}

// Next advances to the following match, wrapping around.
func (e *Engine) Next() {
	e.sync()
	n := len(e.matches)
	if n == 0 {
		return
	}
	e.current = (e.current + 1) % n
}

// Previous moves to the preceding match, wrapping around.
func (e *Engine) Previous() {
	e.sync()
	n := len(e.matches)
	if n == 0 {
		return
	}
	if e.current <= 0 {
		e.current = n - 1
		return
	}
	e.current--
}

// ReplaceCurrent replaces the current match with text. Afterwards the
// pointer stays on the same index, or becomes -1 if the replaced match was
// the last one. It reports whether a replacement happened.
func (e *Engine) ReplaceCurrent(text string) bool {
	e.sync()
	if e.buf == nil || e.current < 0 {
		return false
	}

	idx := e.current
	wasLast := idx == len(e.matches)-1
	m := e.matches[idx]

	content := e.buf.Content()
	e.buf.Edit(content[:m.Offset] + text + content[m.End():])
	e.recompute()

	switch {
	case wasLast || len(e.matches) == 0:
		e.current = -1
	case idx >= len(e.matches):
		e.current = len(e.matches) - 1
	default:
		e.current = idx
	}
	return true
}

// ReplaceAll replaces every match with text in a single edit and returns
// the number of replacements. Matches are applied from the highest offset
// down so lower offsets stay valid; a match overlapping one already
// replaced is skipped.
func (e *Engine) ReplaceAll(text string) int {
	e.sync()
	if e.buf == nil || len(e.matches) == 0 {
		return 0
	}

	ordered := make([]Match, len(e.matches))
	copy(ordered, e.matches)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Offset > ordered[j].Offset
	})

	content := e.buf.Content()
	var tail []string
	limit := len(content)
	for _, m := range ordered {
		if m.End() > limit {
			continue
		}
		tail = append(tail, content[m.End():limit], text)
		limit = m.Offset
	}

	var b strings.Builder
	b.Grow(len(content))
	b.WriteString(content[:limit])
	for i := len(tail) - 1; i >= 0; i-- {
		b.WriteString(tail[i])
	}

	e.buf.Edit(b.String())
	e.recompute()
	e.current = -1
	return len(tail) / 2
}

// sync recomputes if the buffer changed behind the engine's back. The
// pointer is kept, clamped to the new match set.
func (e *Engine) sync() {
	if e.buf == nil || e.buf.Version() == e.version {
		return
	}
	e.recompute()
	if e.current >= len(e.matches) {
		e.current = len(e.matches) - 1
	}
}

func (e *Engine) recompute() {
	e.matches = nil
	e.err = nil
	if e.buf == nil {
		e.version = 0
		return
	}
	e.version = e.buf.Version()
	e.matches, e.err = Find(e.buf.Content(), e.query, e.opts)
}

func (e *Engine) resetCurrent() {
	if len(e.matches) > 0 {
		e.current = 0
	} else {
		e.current = -1
	}
}
