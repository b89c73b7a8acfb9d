// Package editor holds the open documents of a project.
//
// A Document is one file buffer with a modification flag and bounded
// snapshot undo/redo history. Edits are committed to history by a per
// document debounce timer, so a burst of keystrokes becomes one undo step.
//
// A Workspace is the ordered set of documents shown as tabs. It reads and
// writes through a files.FS collaborator and keeps a search.Engine bound to
// the active document.
//
// Everything here is owned by a single loop.Loop: methods are called on the
// loop and collaborator completions are posted back onto it, so no locking
// is needed.
package editor
