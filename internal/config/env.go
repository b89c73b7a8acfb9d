package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AURORA_"

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// setter applies one environment value to a configuration.
type setter func(cfg *Config, value string) error

// EnvLoader applies environment variable overrides.
type EnvLoader struct {
	prefix  string
	lookup  LookupFunc
	mapping map[string]setter
}

// NewEnvLoader creates a loader reading the process environment.
// The prefix should include the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		lookup:  os.LookupEnv,
		mapping: defaultEnvMapping(),
	}
}

// WithLookup replaces the environment source.
func (l *EnvLoader) WithLookup(lookup LookupFunc) *EnvLoader {
	l.lookup = lookup
	return l
}

// Keys returns the recognized variable names, sorted.
func (l *EnvLoader) Keys() []string {
	keys := make([]string, 0, len(l.mapping))
	for k := range l.mapping {
		keys = append(keys, l.prefix+k)
	}
	sort.Strings(keys)
	return keys
}

// Apply overrides cfg with every variable that is set. Empty values are
// treated as set.
func (l *EnvLoader) Apply(cfg *Config) error {
	for _, name := range l.Keys() {
		val, ok := l.lookup(name)
		if !ok {
			continue
		}
		set := l.mapping[strings.TrimPrefix(name, l.prefix)]
		if err := set(cfg, val); err != nil {
			return fmt.Errorf("environment %s: %w", name, err)
		}
	}
	return nil
}

func defaultEnvMapping() map[string]setter {
	return map[string]setter{
		"LOG_LEVEL":        setString(func(c *Config) *string { return &c.Logging.Level }),
		"LOG_FILE":         setString(func(c *Config) *string { return &c.Logging.File }),
		"MODEL":            setString(func(c *Config) *string { return &c.Agent.Model }),
		"DEFAULT_SHELL":    setString(func(c *Config) *string { return &c.Terminal.DefaultShell }),
		"PLUGINS_DIR":      setString(func(c *Config) *string { return &c.Hooks.PluginsDir }),
		"TAB_SIZE":         setInt(func(c *Config) *int { return &c.Editor.TabSize }),
		"UNDO_LIMIT":       setInt(func(c *Config) *int { return &c.Editor.UndoLimit }),
		"DEBOUNCE":         setDuration(func(c *Config) *Duration { return &c.Editor.Debounce }),
		"TERMINAL_TIMEOUT": setDuration(func(c *Config) *Duration { return &c.Terminal.CallTimeout }),
		"FILES_TIMEOUT":    setDuration(func(c *Config) *Duration { return &c.Files.CallTimeout }),
		"HOOKS_TIMEOUT":    setDuration(func(c *Config) *Duration { return &c.Hooks.Timeout }),
		"HOOKS_ENABLED":    setBool(func(c *Config) *bool { return &c.Hooks.Enabled }),
	}
}

func setString(field func(*Config) *string) setter {
	return func(cfg *Config, value string) error {
		*field(cfg) = value
		return nil
	}
}

func setInt(field func(*Config) *int) setter {
	return func(cfg *Config, value string) error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		*field(cfg) = n
		return nil
	}
}

func setDuration(field func(*Config) *Duration) setter {
	return func(cfg *Config, value string) error {
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid duration %q", value)
		}
		*field(cfg) = Duration(d)
		return nil
	}
}

func setBool(field func(*Config) *bool) setter {
	return func(cfg *Config, value string) error {
		b, ok := parseBool(value)
		if !ok {
			return fmt.Errorf("invalid boolean %q", value)
		}
		*field(cfg) = b
		return nil
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, true
	case "false", "no", "off", "0":
		return false, true
	}
	return false, false
}
