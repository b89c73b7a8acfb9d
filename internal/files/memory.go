package files

import (
	"context"
	"io/fs"
	"path"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dollspace-gay/AuroraHeart/internal/errs"
)

// MemFS implements FS in memory. Paths are slash-separated.
//
// MemFS is safe for concurrent use.
type MemFS struct {
	mu     sync.RWMutex
	files  map[string]string
	dirs   map[string]bool
	faults map[string]error
	writes int
}

// NewMemFS creates an empty in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{
		files:  make(map[string]string),
		dirs:   map[string]bool{"/": true},
		faults: make(map[string]error),
	}
}

// Ensure MemFS implements FS.
var _ FS = (*MemFS)(nil)

// AddFile stores content at filePath, creating parent directories.
func (m *MemFS) AddFile(filePath, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filePath = cleanPath(filePath)
	m.files[filePath] = content
	m.mkdirAllLocked(path.Dir(filePath))
}

// Content returns the stored content of filePath.
func (m *MemFS) Content(filePath string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.files[cleanPath(filePath)]
	return c, ok
}

// Fail makes every operation on filePath return err until cleared with nil.
func (m *MemFS) Fail(filePath string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filePath = cleanPath(filePath)
	if err == nil {
		delete(m.faults, filePath)
		return
	}
	m.faults[filePath] = err
}

// Writes returns how many successful WriteFile calls have been made.
func (m *MemFS) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// ReadFile returns the content of filePath.
func (m *MemFS) ReadFile(ctx context.Context, filePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errs.IO("read", filePath, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	filePath = cleanPath(filePath)
	if err := m.faults[filePath]; err != nil {
		return "", errs.IO("read", filePath, err)
	}

	content, ok := m.files[filePath]
	if !ok {
		if m.dirs[filePath] {
			return "", errs.IO("read", filePath, ErrIsDirectory)
		}
		return "", errs.IO("read", filePath, &fs.PathError{Op: "read", Path: filePath, Err: ErrNotFound})
	}
	if !utf8.ValidString(content) {
		return "", errs.IO("read", filePath, ErrInvalidUTF8)
	}
	return content, nil
}

// WriteFile stores content at filePath.
func (m *MemFS) WriteFile(ctx context.Context, filePath, content string) error {
	if err := ctx.Err(); err != nil {
		return errs.IO("write", filePath, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	filePath = cleanPath(filePath)
	if err := m.faults[filePath]; err != nil {
		return errs.IO("write", filePath, err)
	}
	if m.dirs[filePath] {
		return errs.IO("write", filePath, ErrIsDirectory)
	}

	m.mkdirAllLocked(path.Dir(filePath))
	m.files[filePath] = content
	m.writes++
	return nil
}

// ReadDir lists the direct children of dirPath.
func (m *MemFS) ReadDir(ctx context.Context, dirPath string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.IO("list", dirPath, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	dirPath = cleanPath(dirPath)
	if err := m.faults[dirPath]; err != nil {
		return nil, errs.IO("list", dirPath, err)
	}
	if !m.dirs[dirPath] {
		return nil, errs.IO("list", dirPath, ErrNotFound)
	}

	seen := make(map[string]bool)
	var entries []Entry
	add := func(p string, isDir bool) {
		if p == dirPath || path.Dir(p) != dirPath || seen[p] {
			return
		}
		seen[p] = true
		entries = append(entries, Entry{Name: path.Base(p), Path: p, IsDir: isDir})
	}
	for p := range m.files {
		add(p, false)
	}
	for p := range m.dirs {
		add(p, true)
	}
	return entries, nil
}

func (m *MemFS) mkdirAllLocked(dirPath string) {
	for dirPath != "/" && dirPath != "." && !m.dirs[dirPath] {
		m.dirs[dirPath] = true
		dirPath = path.Dir(dirPath)
	}
}

func cleanPath(p string) string {
	p = path.Clean("/" + strings.TrimPrefix(p, "/"))
	return p
}
