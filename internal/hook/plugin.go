package hook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ManifestName is the manifest file inside a plugin directory.
const ManifestName = "plugin.toml"

// Type is a lifecycle event a hook can handle.
type Type int

const (
	SessionStart Type = iota
	SessionEnd
	BeforeToolCall
	AfterToolCall
)

// Types lists every hook type in lifecycle order.
var Types = []Type{SessionStart, SessionEnd, BeforeToolCall, AfterToolCall}

// String returns the script base name for the type.
func (t Type) String() string {
	switch t {
	case SessionStart:
		return "session-start"
	case SessionEnd:
		return "session-end"
	case BeforeToolCall:
		return "before-tool-call"
	case AfterToolCall:
		return "after-tool-call"
	default:
		return "unknown"
	}
}

// ParseType parses a script base name.
func ParseType(name string) (Type, error) {
	for _, t := range Types {
		if t.String() == strings.ToLower(name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Manifest is the content of plugin.toml.
type Manifest struct {
	Plugin Info `toml:"plugin"`
}

// Info describes a plugin.
type Info struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
	Author      string `toml:"author,omitempty"`

	// Enabled defaults to true when absent.
	Enabled *bool `toml:"enabled,omitempty"`
}

// Hook is one script bound to a lifecycle event.
type Hook struct {
	Plugin string
	Type   Type
	Script string
}

// Name identifies the hook in logs.
func (h Hook) Name() string {
	return h.Plugin + "/" + h.Type.String()
}

// Plugin is a loaded plugin directory.
type Plugin struct {
	Info  Info
	Dir   string
	Hooks []Hook
}

// Enabled reports whether the plugin's hooks should run.
func (p *Plugin) Enabled() bool {
	return p.Info.Enabled == nil || *p.Info.Enabled
}

// LoadPlugin reads the plugin in dir.
func LoadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifest, dir, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifest, dir, err)
	}
	if m.Plugin.Name == "" {
		return nil, fmt.Errorf("%w: %s: missing plugin.name", ErrManifest, dir)
	}

	p := &Plugin{Info: m.Plugin, Dir: dir}
	hooksDir := filepath.Join(dir, "hooks")
	for _, t := range Types {
		for _, ext := range []string{".sh", ".lua"} {
			script := filepath.Join(hooksDir, t.String()+ext)
			if info, err := os.Stat(script); err == nil && !info.IsDir() {
				p.Hooks = append(p.Hooks, Hook{Plugin: p.Info.Name, Type: t, Script: script})
			}
		}
	}
	return p, nil
}

// LoadPlugins reads every plugin directory under root, sorted by name.
// A missing root yields no plugins. Broken plugins are skipped and reported
// in the joined error.
func LoadPlugins(root string) ([]*Plugin, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var plugins []*Plugin
	var errs []error
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p, err := LoadPlugin(filepath.Join(root, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		plugins = append(plugins, p)
	}

	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Info.Name < plugins[j].Info.Name
	})
	return plugins, errors.Join(errs...)
}
