package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dollspace-gay/AuroraHeart/internal/errs"
)

func TestOSFSReadWrite(t *testing.T) {
	dir := t.TempDir()
	fsys := NewOSFS()
	ctx := context.Background()

	path := filepath.Join(dir, "nested", "deeper", "main.go")
	if err := fsys.WriteFile(ctx, path, "package main\n"); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := fsys.ReadFile(ctx, path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got != "package main\n" {
		t.Errorf("expected written content, got %q", got)
	}
}

func TestOSFSReadErrors(t *testing.T) {
	dir := t.TempDir()
	fsys := NewOSFS()
	ctx := context.Background()

	binary := filepath.Join(dir, "blob.bin")
	if err := os.WriteFile(binary, []byte{0xff, 0xfe, 0xfd}, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		path  string
		cause error
	}{
		{"missing", filepath.Join(dir, "nope.txt"), ErrNotFound},
		{"directory", dir, ErrIsDirectory},
		{"invalid utf8", binary, ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fsys.ReadFile(ctx, tt.path)
			if !errors.Is(err, errs.ErrIO) {
				t.Errorf("expected ErrIO, got %v", err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("expected cause %v, got %v", tt.cause, err)
			}
		})
	}
}

func TestOSFSCanceledContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := NewOSFS().ReadFile(ctx, "/etc/hostname")
	if !errors.Is(err, errs.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestDirectoryContentsFilterAndOrder(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/proj/zeta.go", "")
	m.AddFile("/proj/Alpha.go", "")
	m.AddFile("/proj/.hidden", "")
	m.AddFile("/proj/src/lib.go", "")
	m.AddFile("/proj/node_modules/x/index.js", "")
	m.AddFile("/proj/target/debug/app", "")
	m.AddFile("/proj/docs/readme.md", "")

	entries, err := DirectoryContents(context.Background(), m, "/proj", DefaultFilter())
	if err != nil {
		t.Fatalf("DirectoryContents failed: %v", err)
	}

	want := []string{"docs", "src", "Alpha.go", "zeta.go"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(entries), entries)
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("entry %d: expected %q, got %q", i, name, entries[i].Name)
		}
	}
}

func TestTree(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/proj/a/b/c.txt", "c")
	m.AddFile("/proj/top.txt", "t")

	root, err := Tree(context.Background(), m, "/proj", TreeOptions{Filter: DefaultFilter()})
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}

	var paths []string
	root.Walk(func(n *Node, _ int) { paths = append(paths, n.Path) })

	want := []string{"/proj", "/proj/a", "/proj/a/b", "/proj/a/b/c.txt", "/proj/top.txt"}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("node %d: expected %q, got %q", i, want[i], paths[i])
		}
	}

	shallow, err := Tree(context.Background(), m, "/proj", TreeOptions{MaxDepth: 1})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range shallow.Children {
		if len(c.Children) != 0 {
			t.Errorf("expected depth-limited tree, %s has children", c.Path)
		}
	}
}

func TestMemFSFaults(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/a.txt", "hello")
	boom := errors.New("disk on fire")
	m.Fail("/a.txt", boom)

	ctx := context.Background()
	if _, err := m.ReadFile(ctx, "/a.txt"); !errors.Is(err, boom) || !errors.Is(err, errs.ErrIO) {
		t.Errorf("expected injected IO error, got %v", err)
	}
	if err := m.WriteFile(ctx, "/a.txt", "x"); !errors.Is(err, boom) {
		t.Errorf("expected injected write error, got %v", err)
	}

	m.Fail("/a.txt", nil)
	if err := m.WriteFile(ctx, "a.txt", "bye"); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if c, _ := m.Content("/a.txt"); c != "bye" {
		t.Errorf("expected 'bye', got %q", c)
	}
	if m.Writes() != 1 {
		t.Errorf("expected 1 write, got %d", m.Writes())
	}
}

func TestMemFSNotFound(t *testing.T) {
	m := NewMemFS()
	_, err := m.ReadFile(context.Background(), "/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
