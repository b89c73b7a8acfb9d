package terminal

// DefaultScrollbackBytes is the output kept per session for replay.
const DefaultScrollbackBytes = 256 * 1024

// Scrollback keeps the most recent output of a session up to a byte limit.
type Scrollback struct {
	buf      []byte
	maxBytes int
}

// NewScrollback creates a scrollback buffer.
func NewScrollback(maxBytes int) *Scrollback {
	if maxBytes <= 0 {
		maxBytes = DefaultScrollbackBytes
	}
	return &Scrollback{maxBytes: maxBytes}
}

// Write appends data, dropping the oldest bytes beyond the limit.
func (s *Scrollback) Write(data []byte) (int, error) {
	s.buf = append(s.buf, data...)
	if excess := len(s.buf) - s.maxBytes; excess > 0 {
		s.buf = append(s.buf[:0], s.buf[excess:]...)
	}
	return len(data), nil
}

// Bytes returns a copy of the retained output.
func (s *Scrollback) Bytes() []byte {
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

// Len returns the retained byte count.
func (s *Scrollback) Len() int {
	return len(s.buf)
}

// Reset drops all retained output.
func (s *Scrollback) Reset() {
	s.buf = s.buf[:0]
}
