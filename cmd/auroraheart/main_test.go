package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dollspace-gay/AuroraHeart/internal/hook"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPosition(t *testing.T) {
	content := "héllo\nwörld foo\nbar"
	tests := []struct {
		name   string
		offset int
		line   int
		col    int
		text   string
	}{
		{"start", 0, 1, 1, "héllo"},
		{"multibyte column", strings.Index(content, "llo"), 1, 3, "héllo"},
		{"second line", strings.Index(content, "foo"), 2, 7, "wörld foo"},
		{"last line", strings.Index(content, "bar"), 3, 1, "bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, col := position(content, tt.offset)
			if line != tt.line || col != tt.col {
				t.Errorf("expected %d:%d, got %d:%d", tt.line, tt.col, line, col)
			}
			if got := lineAt(content, tt.offset); got != tt.text {
				t.Errorf("expected line %q, got %q", tt.text, got)
			}
		})
	}
}

func TestTreeCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "")
	writeFile(t, filepath.Join(dir, "a", "c.txt"), "")
	writeFile(t, filepath.Join(dir, ".hidden"), "")
	writeFile(t, filepath.Join(dir, "node_modules", "x.js"), "")

	out, err := execute(t, "tree", "-w", dir)
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}

	want := filepath.Base(dir) + "/\n  a/\n    c.txt\n  b.txt\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestTreeCommandDepth(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "c.txt"), "")

	out, err := execute(t, "tree", "-w", dir, "--depth", "1")
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if strings.Contains(out, "c.txt") {
		t.Errorf("expected depth 1 to stop before c.txt, got %q", out)
	}
}

func TestFindCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "foo bar Foo\nfoo")

	out, err := execute(t, "find", "-w", dir, path, "foo")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	for _, want := range []string{":1:1: foo bar Foo", ":1:9: foo bar Foo", ":2:1: foo", "3 match(es)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}

	out, err = execute(t, "find", "-w", dir, "--case-sensitive", "--replace", "baz", "--write", path, "foo")
	if err != nil {
		t.Fatalf("find --replace failed: %v", err)
	}
	if !strings.Contains(out, "replaced 2 match(es)") {
		t.Errorf("expected 2 replacements, got %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "baz bar Foo\nbaz" {
		t.Errorf("expected file to be rewritten, got %q", data)
	}
}

func TestFindCommandInvalidRegex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "foo")

	if _, err := execute(t, "find", "-w", dir, "--regex", path, "("); err == nil {
		t.Error("expected an error for an invalid pattern")
	}
}

func TestHooksCommandNoPlugins(t *testing.T) {
	out, err := execute(t, "hooks", "-w", t.TempDir(), "session-start")
	if err != nil {
		t.Fatalf("hooks failed: %v", err)
	}
	if out != "no session-start hooks\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestHooksCommandUnknownType(t *testing.T) {
	if _, err := execute(t, "hooks", "-w", t.TempDir(), "never"); err == nil {
		t.Error("expected an error for an unknown hook type")
	}
}

func TestHookFlagsEvent(t *testing.T) {
	f := &hookFlags{tool: "grep", toolID: "t1", input: `{"q":"x"}`, output: "done", isError: true, messages: 3}

	tests := []struct {
		typ  hook.Type
		key  string
		want string
	}{
		{hook.SessionStart, "AURORA_PROJECT_ROOT", "/root"},
		{hook.SessionEnd, "AURORA_MESSAGE_COUNT", "3"},
		{hook.BeforeToolCall, "AURORA_TOOL_INPUT", `{"q":"x"}`},
		{hook.AfterToolCall, "AURORA_TOOL_ERROR", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			ev := f.event(tt.typ, "/root")
			if ev.Type() != tt.typ {
				t.Errorf("expected %s event, got %s", tt.typ, ev.Type())
			}
			if got := ev.Env()[tt.key]; got != tt.want {
				t.Errorf("expected %s=%q, got %q", tt.key, tt.want, got)
			}
		})
	}
}

func TestToolInputFallsBackToString(t *testing.T) {
	f := &hookFlags{input: "not json"}
	if got, ok := f.toolInput().(string); !ok || got != "not json" {
		t.Errorf("expected raw string input, got %#v", f.toolInput())
	}
}

func TestProjectCommand(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		language string
	}{
		{"rust", []string{"Cargo.toml", "src/main.rs"}, "rust"},
		{"extensions", []string{"a.py", "b.py", "c.go"}, "python"},
		{"empty", nil, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, filepath.Join(dir, f), "")
			}

			out, err := execute(t, "project", "-w", dir)
			if err != nil {
				t.Fatalf("project failed: %v", err)
			}
			if !strings.Contains(out, "name:     "+filepath.Base(dir)+"\n") {
				t.Errorf("expected project name %q, got %q", filepath.Base(dir), out)
			}
			if !strings.Contains(out, "language: "+tt.language+"\n") {
				t.Errorf("expected language %q, got %q", tt.language, out)
			}
		})
	}
}
