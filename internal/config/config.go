// Package config loads and saves project configuration.
//
// Configuration lives in <project>/.AuroraHeart/config.toml. A missing file
// yields the defaults. Environment variables prefixed with AURORA_ override
// file values, and a Watcher reloads the file when it changes on disk.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Directory and file names inside a project.
const (
	DirName  = ".AuroraHeart"
	FileName = "config.toml"
)

// Config is the project configuration.
type Config struct {
	Project     ProjectConfig       `toml:"project"`
	Agent       AgentConfig         `toml:"agent"`
	Editor      EditorConfig        `toml:"editor"`
	Terminal    TerminalConfig      `toml:"terminal"`
	Files       FilesConfig         `toml:"files"`
	Hooks       HooksConfig         `toml:"hooks"`
	Logging     LoggingConfig       `toml:"logging"`
	Keybindings map[string][]string `toml:"keybindings,omitempty"`

	// Root is the project directory the configuration was loaded for.
	Root string `toml:"-"`
}

// ProjectConfig describes the project.
type ProjectConfig struct {
	Name     string `toml:"name,omitempty"`
	Language string `toml:"language,omitempty"`
}

// AgentConfig is read and written for the agent but not interpreted here.
type AgentConfig struct {
	Model             string   `toml:"model"`
	MaxTokens         int      `toml:"max_tokens"`
	EnabledDirectives []string `toml:"enabled_directives"`
}

// EditorConfig controls document editing.
type EditorConfig struct {
	TabSize         int      `toml:"tab_size"`
	UseSpaces       bool     `toml:"use_spaces"`
	ShowLineNumbers bool     `toml:"show_line_numbers"`
	UndoLimit       int      `toml:"undo_limit"`
	Debounce        Duration `toml:"debounce"`
}

// TerminalConfig controls terminal sessions.
type TerminalConfig struct {
	DefaultShell    string   `toml:"default_shell,omitempty"`
	Cols            int      `toml:"cols"`
	Rows            int      `toml:"rows"`
	CallTimeout     Duration `toml:"call_timeout"`
	ScrollbackBytes int      `toml:"scrollback_bytes"`
}

// FilesConfig controls the file collaborator and file tree.
type FilesConfig struct {
	CallTimeout Duration `toml:"call_timeout"`
	Ignore      []string `toml:"ignore"`
	ShowHidden  bool     `toml:"show_hidden"`
}

// HooksConfig controls hook scripts.
type HooksConfig struct {
	Enabled    bool     `toml:"enabled"`
	Timeout    Duration `toml:"timeout"`
	PluginsDir string   `toml:"plugins_dir,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			Model:     "claude-sonnet-4",
			MaxTokens: 200000,
		},
		Editor: EditorConfig{
			TabSize:         4,
			UseSpaces:       true,
			ShowLineNumbers: true,
			UndoLimit:       50,
			Debounce:        Duration(300 * time.Millisecond),
		},
		Terminal: TerminalConfig{
			Cols:            80,
			Rows:            24,
			CallTimeout:     Duration(10 * time.Second),
			ScrollbackBytes: 256 * 1024,
		},
		Files: FilesConfig{
			CallTimeout: Duration(10 * time.Second),
			Ignore:      []string{"target", "node_modules"},
		},
		Hooks: HooksConfig{
			Enabled: true,
			Timeout: Duration(30 * time.Second),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the configuration directory of a project.
func Dir(root string) string {
	return filepath.Join(root, DirName)
}

// Path returns the configuration file of a project.
func Path(root string) string {
	return filepath.Join(root, DirName, FileName)
}

// PluginsDir returns the plugin directory, relative paths resolved against
// the configuration directory.
func (c *Config) PluginsDir() string {
	dir := c.Hooks.PluginsDir
	if dir == "" {
		dir = "plugins"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(Dir(c.Root), dir)
}

// Load reads the configuration of the project at root and applies
// environment overrides. A missing file yields the defaults.
func Load(root string) (*Config, error) {
	cfg, err := LoadFile(Path(root))
	if err != nil {
		return nil, err
	}
	cfg.Root = root

	if err := NewEnvLoader(EnvPrefix).Apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads one configuration file over the defaults, without
// environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := Parse(data, cfg); err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg. Keys absent from data keep their
// current values.
func Parse(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		pe := &ParseError{Path: "<data>", Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return pe
	}
	return nil
}

// Save writes the configuration to its project, creating the directory.
func (c *Config) Save() error {
	if c.Root == "" {
		return ErrNoRoot
	}
	if err := os.MkdirAll(Dir(c.Root), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(Path(c.Root), data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, key, msg string) {
		if !ok {
			errs = append(errs, &ValidationError{Key: key, Message: msg})
		}
	}

	check(c.Editor.TabSize > 0, "editor.tab_size", "must be positive")
	check(c.Editor.UndoLimit > 0, "editor.undo_limit", "must be positive")
	check(c.Editor.Debounce > 0, "editor.debounce", "must be positive")
	check(c.Terminal.Cols > 0 && c.Terminal.Cols <= math.MaxUint16, "terminal.cols", "must be between 1 and 65535")
	check(c.Terminal.Rows > 0 && c.Terminal.Rows <= math.MaxUint16, "terminal.rows", "must be between 1 and 65535")
	check(c.Terminal.CallTimeout > 0, "terminal.call_timeout", "must be positive")
	check(c.Files.CallTimeout > 0, "files.call_timeout", "must be positive")
	check(c.Hooks.Timeout > 0, "hooks.timeout", "must be positive")
	check(validLevel(c.Logging.Level), "logging.level", "must be one of debug, info, warn, error")

	return errors.Join(errs...)
}

func validLevel(level string) bool {
	switch strings.ToLower(level) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
