package editor

import "errors"

// DefaultUndoLimit is the depth of each history stack.
const DefaultUndoLimit = 50

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// History holds the undo and redo stacks of one document as whole-buffer
// snapshots. It is owned by the loop and does no locking.
type History struct {
	undoStack []string
	redoStack []string

	maxEntries int
}

// NewHistory creates a history keeping at most maxEntries per stack.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultUndoLimit
	}
	return &History{
		maxEntries: maxEntries,
	}
}

// Push records the state before an edit and clears the redo stack.
func (h *History) Push(prev string) {
	h.undoStack = h.push(h.undoStack, prev)
	h.redoStack = nil
}

// Undo pops the most recent snapshot. current is saved for Redo.
func (h *History) Undo(current string) (string, error) {
	if len(h.undoStack) == 0 {
		return "", ErrNothingToUndo
	}

	entry := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = h.push(h.redoStack, current)
	return entry, nil
}

// Redo pops the most recently undone snapshot. current is saved for Undo.
func (h *History) Redo(current string) (string, error) {
	if len(h.redoStack) == 0 {
		return "", ErrNothingToRedo
	}

	entry := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = h.push(h.undoStack, current)
	return entry, nil
}

// push appends and evicts the oldest entries beyond the limit.
func (h *History) push(stack []string, content string) []string {
	stack = append(stack, content)
	if len(stack) > h.maxEntries {
		excess := len(stack) - h.maxEntries
		stack = stack[excess:]
	}
	return stack
}

// CanUndo returns true if there are entries to undo.
func (h *History) CanUndo() bool {
	return len(h.undoStack) > 0
}

// CanRedo returns true if there are entries to redo.
func (h *History) CanRedo() bool {
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo entries.
func (h *History) UndoCount() int {
	return len(h.undoStack)
}

// RedoCount returns the number of redo entries.
func (h *History) RedoCount() int {
	return len(h.redoStack)
}

// MaxEntries returns the per-stack limit.
func (h *History) MaxEntries() int {
	return h.maxEntries
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}
