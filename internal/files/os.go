package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/dollspace-gay/AuroraHeart/internal/errs"
)

// OSFS implements FS using the operating system's file system.
type OSFS struct{}

// NewOSFS creates an OS-backed file system.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Ensure OSFS implements FS.
var _ FS = (*OSFS)(nil)

// ReadFile reads the file at path as UTF-8 text.
func (f *OSFS) ReadFile(ctx context.Context, path string) (string, error) {
	content, err := call(ctx, func() (string, error) {
		info, err := os.Stat(path)
		if err != nil {
			return "", classify(err)
		}
		if info.IsDir() {
			return "", ErrIsDirectory
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", classify(err)
		}
		if !utf8.Valid(data) {
			return "", ErrInvalidUTF8
		}
		return string(data), nil
	})
	if err != nil {
		return "", errs.IO("read", path, err)
	}
	return content, nil
}

// WriteFile writes content to path, creating parent directories if needed.
func (f *OSFS) WriteFile(ctx context.Context, path, content string) error {
	_, err := call(ctx, func() (struct{}, error) {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return struct{}{}, classify(err)
			}
		}
		return struct{}{}, classify(os.WriteFile(path, []byte(content), 0o644))
	})
	if err != nil {
		return errs.IO("write", path, err)
	}
	return nil
}

// ReadDir lists the children of path.
func (f *OSFS) ReadDir(ctx context.Context, path string) ([]Entry, error) {
	entries, err := call(ctx, func() ([]Entry, error) {
		dirEntries, err := os.ReadDir(path)
		if err != nil {
			return nil, classify(err)
		}
		result := make([]Entry, 0, len(dirEntries))
		for _, de := range dirEntries {
			result = append(result, Entry{
				Name:  de.Name(),
				Path:  filepath.Join(path, de.Name()),
				IsDir: de.IsDir(),
			})
		}
		return result, nil
	})
	if err != nil {
		return nil, errs.IO("list", path, err)
	}
	return entries, nil
}

// classify maps OS errors onto the package causes, keeping the original in
// the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermission, err)
	default:
		return err
	}
}
