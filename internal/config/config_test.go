package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	if err := os.MkdirAll(Dir(root), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(Path(root), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Agent.Model != "claude-sonnet-4" {
		t.Errorf("expected model claude-sonnet-4, got %q", cfg.Agent.Model)
	}
	if cfg.Agent.MaxTokens != 200000 {
		t.Errorf("expected max tokens 200000, got %d", cfg.Agent.MaxTokens)
	}
	if cfg.Editor.TabSize != 4 || !cfg.Editor.UseSpaces || !cfg.Editor.ShowLineNumbers {
		t.Errorf("unexpected editor defaults: %+v", cfg.Editor)
	}
	if cfg.Editor.UndoLimit != 50 {
		t.Errorf("expected undo limit 50, got %d", cfg.Editor.UndoLimit)
	}
	if cfg.Editor.Debounce.Std() != 300*time.Millisecond {
		t.Errorf("expected debounce 300ms, got %s", cfg.Editor.Debounce)
	}
	if cfg.Terminal.CallTimeout.Std() != 10*time.Second {
		t.Errorf("expected terminal timeout 10s, got %s", cfg.Terminal.CallTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadFile(Path(root))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Editor.TabSize != 4 {
		t.Errorf("expected default tab size, got %d", cfg.Editor.TabSize)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[project]
name = "demo"
language = "go"

[editor]
tab_size = 2
debounce = "150ms"

[terminal]
default_shell = "zsh"

[keybindings]
"editor.undo" = ["Ctrl+U"]
`)

	cfg, err := LoadFile(Path(root))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Project.Name != "demo" || cfg.Project.Language != "go" {
		t.Errorf("unexpected project: %+v", cfg.Project)
	}
	if cfg.Editor.TabSize != 2 {
		t.Errorf("expected tab size 2, got %d", cfg.Editor.TabSize)
	}
	if cfg.Editor.Debounce.Std() != 150*time.Millisecond {
		t.Errorf("expected debounce 150ms, got %s", cfg.Editor.Debounce)
	}
	if !cfg.Editor.UseSpaces {
		t.Error("expected unset use_spaces to keep its default")
	}
	if cfg.Terminal.DefaultShell != "zsh" {
		t.Errorf("expected zsh, got %q", cfg.Terminal.DefaultShell)
	}
	if got := cfg.Keybindings["editor.undo"]; len(got) != 1 || got[0] != "Ctrl+U" {
		t.Errorf("expected [Ctrl+U], got %v", got)
	}
}

func TestLoadParseError(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[editor\ntab_size = 2\n")

	_, err := LoadFile(Path(root))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Path != Path(root) {
		t.Errorf("expected path %q, got %q", Path(root), pe.Path)
	}
	if pe.Line < 1 {
		t.Errorf("expected a line number, got %d", pe.Line)
	}
}

func TestLoadBadDuration(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[editor]\ndebounce = \"soon\"\n")

	_, err := LoadFile(Path(root))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Root = root
	cfg.Project.Name = "aurora"
	cfg.Editor.UndoLimit = 75
	cfg.Keybindings = map[string][]string{"editor.save": {"Ctrl+S"}}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := LoadFile(Path(root))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got.Project.Name != "aurora" {
		t.Errorf("expected name aurora, got %q", got.Project.Name)
	}
	if got.Editor.UndoLimit != 75 {
		t.Errorf("expected undo limit 75, got %d", got.Editor.UndoLimit)
	}
	if got.Editor.Debounce != cfg.Editor.Debounce {
		t.Errorf("expected debounce %s, got %s", cfg.Editor.Debounce, got.Editor.Debounce)
	}
	if len(got.Keybindings["editor.save"]) != 1 {
		t.Errorf("expected keybinding to survive, got %v", got.Keybindings)
	}
}

func TestSaveWithoutRoot(t *testing.T) {
	if err := Default().Save(); !errors.Is(err, ErrNoRoot) {
		t.Errorf("expected ErrNoRoot, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"tab size", func(c *Config) { c.Editor.TabSize = 0 }, "editor.tab_size"},
		{"undo limit", func(c *Config) { c.Editor.UndoLimit = -1 }, "editor.undo_limit"},
		{"debounce", func(c *Config) { c.Editor.Debounce = 0 }, "editor.debounce"},
		{"cols", func(c *Config) { c.Terminal.Cols = 0 }, "terminal.cols"},
		{"rows too large", func(c *Config) { c.Terminal.Rows = 70000 }, "terminal.rows"},
		{"terminal timeout", func(c *Config) { c.Terminal.CallTimeout = 0 }, "terminal.call_timeout"},
		{"hooks timeout", func(c *Config) { c.Hooks.Timeout = 0 }, "hooks.timeout"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, ve.Key)
			}
		})
	}
}

func TestPluginsDir(t *testing.T) {
	cfg := Default()
	cfg.Root = "/work"

	if got := cfg.PluginsDir(); got != filepath.Join("/work", DirName, "plugins") {
		t.Errorf("expected default plugins dir, got %q", got)
	}
	cfg.Hooks.PluginsDir = "/opt/plugins"
	if got := cfg.PluginsDir(); got != "/opt/plugins" {
		t.Errorf("expected absolute dir kept, got %q", got)
	}
}

func TestEnvLoader(t *testing.T) {
	env := map[string]string{
		"AURORA_LOG_LEVEL":        "debug",
		"AURORA_UNDO_LIMIT":       "20",
		"AURORA_DEBOUNCE":         "1s",
		"AURORA_HOOKS_ENABLED":    "off",
		"AURORA_DEFAULT_SHELL":    "fish",
		"AURORA_TERMINAL_TIMEOUT": "2s",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := NewEnvLoader(EnvPrefix).WithLookup(lookup).Apply(cfg); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %q", cfg.Logging.Level)
	}
	if cfg.Editor.UndoLimit != 20 {
		t.Errorf("expected undo limit 20, got %d", cfg.Editor.UndoLimit)
	}
	if cfg.Editor.Debounce.Std() != time.Second {
		t.Errorf("expected debounce 1s, got %s", cfg.Editor.Debounce)
	}
	if cfg.Hooks.Enabled {
		t.Error("expected hooks disabled")
	}
	if cfg.Terminal.DefaultShell != "fish" {
		t.Errorf("expected fish, got %q", cfg.Terminal.DefaultShell)
	}
	if cfg.Terminal.CallTimeout.Std() != 2*time.Second {
		t.Errorf("expected terminal timeout 2s, got %s", cfg.Terminal.CallTimeout)
	}
	if cfg.Editor.TabSize != 4 {
		t.Errorf("expected unset variable to keep default, got %d", cfg.Editor.TabSize)
	}
}

func TestEnvLoaderInvalidValue(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"AURORA_TAB_SIZE", "wide"},
		{"AURORA_HOOKS_TIMEOUT", "later"},
		{"AURORA_HOOKS_ENABLED", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				if k == tt.key {
					return tt.value, true
				}
				return "", false
			}
			if err := NewEnvLoader(EnvPrefix).WithLookup(lookup).Apply(Default()); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadAppliesEnvironment(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[editor]\ntab_size = 2\n")
	t.Setenv("AURORA_TAB_SIZE", "8")

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Editor.TabSize != 8 {
		t.Errorf("expected environment to win, got %d", cfg.Editor.TabSize)
	}
	if cfg.Root != root {
		t.Errorf("expected root %q, got %q", root, cfg.Root)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("2m30s")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if d.Std() != 150*time.Second {
		t.Errorf("expected 150s, got %s", d)
	}
	text, _ := d.MarshalText()
	if string(text) != "2m30s" {
		t.Errorf("expected 2m30s, got %s", text)
	}
}
