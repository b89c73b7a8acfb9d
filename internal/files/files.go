// Package files is the file-system collaborator of the editor core.
//
// The FS interface lets the workspace read and write buffers, list directory
// contents and build the project tree without knowing whether the bytes live
// on disk (OSFS) or in memory (MemFS, used by tests and scratch workspaces).
// Every method takes a context; the OS implementation abandons a call whose
// context expires rather than blocking the caller.
package files

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// Read failure causes. They are wrapped in an errs.ErrIO error.
var (
	ErrNotFound    = errors.New("file not found")
	ErrIsDirectory = errors.New("path is a directory, not a file")
	ErrPermission  = errors.New("permission denied")
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

// FS is the file collaborator.
type FS interface {
	// ReadFile returns the UTF-8 content of the file at path.
	ReadFile(ctx context.Context, path string) (string, error)

	// WriteFile replaces the file content, creating parent directories.
	WriteFile(ctx context.Context, path, content string) error

	// ReadDir returns the unfiltered children of a directory.
	ReadDir(ctx context.Context, path string) ([]Entry, error)
}

// Picker is the openFile() collaborator: it asks the user for a file and
// returns its path and content.
type Picker interface {
	Pick(ctx context.Context) (path, content string, err error)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(ctx context.Context) (string, string, error)

// Pick calls f(ctx).
func (f PickerFunc) Pick(ctx context.Context) (string, string, error) {
	return f(ctx)
}

// Entry is one directory child.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
}

// Filter decides which entries appear in listings and trees.
type Filter struct {
	// Ignore lists names that are always skipped.
	Ignore []string

	// ShowHidden keeps dot-prefixed names.
	ShowHidden bool
}

// DefaultFilter skips hidden entries, build output and dependency folders.
func DefaultFilter() Filter {
	return Filter{Ignore: []string{"target", "node_modules"}}
}

// Keep reports whether the entry passes the filter.
func (f Filter) Keep(e Entry) bool {
	if !f.ShowHidden && strings.HasPrefix(e.Name, ".") {
		return false
	}
	for _, name := range f.Ignore {
		if e.Name == name {
			return false
		}
	}
	return true
}

// SortEntries orders directories first, then names case-insensitively.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

// DirectoryContents lists, filters and sorts the children of path.
func DirectoryContents(ctx context.Context, fsys FS, path string, filter Filter) ([]Entry, error) {
	entries, err := fsys.ReadDir(ctx, path)
	if err != nil {
		return nil, err
	}

	kept := entries[:0]
	for _, e := range entries {
		if filter.Keep(e) {
			kept = append(kept, e)
		}
	}
	SortEntries(kept)
	return kept, nil
}

// call runs fn on its own goroutine and returns early with the context error
// if ctx ends first. The abandoned goroutine finishes in the background.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
