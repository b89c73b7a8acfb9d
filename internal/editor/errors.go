package editor

import "errors"

// Workspace errors.
var (
	ErrNoActiveDocument = errors.New("no active document")
	ErrTabIndex         = errors.New("tab index out of range")
	ErrDocumentClosed   = errors.New("document closed")
)
