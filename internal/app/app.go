// Package app wires the editor and terminal cores into one application.
//
// The Application owns the loop every core runs on. Collaborator goroutines
// (file I/O, pty calls, hooks, the config watcher) post their results back
// to it, so the workspace, the multiplexer and the dispatcher never need
// locks.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dollspace-gay/AuroraHeart/internal/config"
	"github.com/dollspace-gay/AuroraHeart/internal/editor"
	"github.com/dollspace-gay/AuroraHeart/internal/files"
	"github.com/dollspace-gay/AuroraHeart/internal/hook"
	"github.com/dollspace-gay/AuroraHeart/internal/input"
	"github.com/dollspace-gay/AuroraHeart/internal/logx"
	"github.com/dollspace-gay/AuroraHeart/internal/loop"
	"github.com/dollspace-gay/AuroraHeart/internal/project"
	"github.com/dollspace-gay/AuroraHeart/internal/terminal"
	"github.com/dollspace-gay/AuroraHeart/internal/terminal/ptybackend"
)

// ShutdownTimeout bounds teardown work after the loop stops.
const ShutdownTimeout = 5 * time.Second

// Options configures the application.
type Options struct {
	// WorkspacePath is the project directory. Empty means the project
	// containing the current directory.
	WorkspacePath string

	// ConfigPath overrides <workspace>/.AuroraHeart/config.toml.
	ConfigPath string

	// LogLevel overrides the configured level when set.
	LogLevel string

	// Files are opened once the loop starts.
	Files []string

	// InitialMessage is passed to session-start hooks.
	InitialMessage string

	// Console receives text logs. Nil means stderr.
	Console io.Writer

	// FS replaces the OS file system.
	FS files.FS

	// Backend replaces the pty backend.
	Backend terminal.Backend

	// Watch enables live config reload.
	Watch bool
}

// Application is the running editor.
type Application struct {
	opts   Options
	root   string
	cfg    *config.Config
	logger *logx.Logger
	log    *slog.Logger

	loop       *loop.Loop
	fs         files.FS
	backend    terminal.Backend
	workspace  *editor.Workspace
	terminals  *terminal.Multiplexer
	hooks      *hook.Runner
	dispatcher *Dispatcher
	watcher    *config.Watcher

	// injections is loop-owned.
	injections []string

	running      atomic.Bool
	teardownOnce sync.Once
}

// New loads configuration and builds every component. Nothing runs until
// Run.
func New(opts Options) (*Application, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = files.NewOSFS()
	}

	root, err := ResolveRoot(context.Background(), fsys, opts.WorkspacePath)
	if err != nil {
		return nil, &InitError{Component: "workspace", Err: err}
	}

	cfg, err := LoadConfig(root, opts.ConfigPath)
	if err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}

	logger, err := logx.New(logx.Options{
		Level:   cfg.Logging.Level,
		Console: opts.Console,
		File:    cfg.Logging.File,
	})
	if err != nil {
		return nil, &InitError{Component: "logging", Err: err}
	}

	a := &Application{
		opts:   opts,
		root:   root,
		cfg:    cfg,
		logger: logger,
		log:    logger.Component("app"),
	}

	a.loop = loop.New(loop.WithPanicHandler(func(v any, stack []byte) {
		a.log.Error("panic on loop", "value", v, "stack", string(stack))
	}))

	a.fs = fsys
	a.describeProject(cfg)
	a.backend = opts.Backend
	if a.backend == nil {
		a.backend = ptybackend.New(ptybackend.Options{Logger: logger.Logger})
	}

	a.workspace = editor.NewWorkspace(editor.Options{
		FS:          a.fs,
		Poster:      a.loop,
		Logger:      logger.Logger,
		Debounce:    cfg.Editor.Debounce.Std(),
		UndoLimit:   cfg.Editor.UndoLimit,
		CallTimeout: cfg.Files.CallTimeout.Std(),
	})

	a.terminals = terminal.NewMultiplexer(terminal.Options{
		Backend:         a.backend,
		Poster:          a.loop,
		Logger:          logger.Logger,
		DefaultShell:    a.configuredShell(cfg),
		Cols:            cfg.Terminal.Cols,
		Rows:            cfg.Terminal.Rows,
		CallTimeout:     cfg.Terminal.CallTimeout.Std(),
		ScrollbackBytes: cfg.Terminal.ScrollbackBytes,
		Dir:             root,
	})

	a.hooks = a.loadHooks(cfg)

	keymap := input.DefaultKeymap()
	if err := keymap.Apply(cfg.Keybindings); err != nil {
		a.log.Warn("ignoring keybindings", "error", err)
	}
	a.dispatcher = NewDispatcher(a.workspace, a.terminals, keymap, logger.Logger)

	a.workspace.AddListener(workspaceErrors{a.log})
	a.terminals.AddListener(terminal.ListenerFuncs{
		OnError: func(s *terminal.Session, err error) {
			a.log.Warn("terminal error", "tab", s.Key(), "error", err)
		},
	})

	return a, nil
}

// LoadConfig reads the configuration for root. A non-empty path replaces
// the project file; environment overrides apply either way.
func LoadConfig(root, path string) (*config.Config, error) {
	if path == "" {
		return config.Load(root)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Root = root
	if err := config.NewEnvLoader(config.EnvPrefix).Apply(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ResolveRoot returns the absolute workspace directory. An empty path
// means the project containing the current directory, or the current
// directory itself outside any project.
func ResolveRoot(ctx context.Context, fsys files.FS, path string) (string, error) {
	if path != "" {
		return filepath.Abs(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := project.FindRoot(ctx, fsys, wd)
	if err != nil {
		return wd, nil
	}
	return root, nil
}

// describeProject fills the project name and language the configuration
// leaves empty.
func (a *Application) describeProject(cfg *config.Config) {
	if cfg.Project.Name == "" {
		cfg.Project.Name = project.Name(a.root)
	}
	if cfg.Project.Language != "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Files.CallTimeout.Std())
	defer cancel()
	lang, err := project.DetectLanguage(ctx, a.fs, a.root)
	if err != nil {
		a.log.Debug("project language unknown", "error", err)
		return
	}
	cfg.Project.Language = lang.String()
}

func (a *Application) configuredShell(cfg *config.Config) terminal.ShellType {
	if cfg.Terminal.DefaultShell == "" {
		return ""
	}
	shell, err := terminal.ParseShell(cfg.Terminal.DefaultShell)
	if err != nil {
		a.log.Warn("ignoring default shell", "error", err)
		return ""
	}
	return shell
}

func (a *Application) loadHooks(cfg *config.Config) *hook.Runner {
	opts := hook.Options{
		Logger:  a.logger.Logger,
		Timeout: cfg.Hooks.Timeout.Std(),
		Dir:     a.root,
	}
	if !cfg.Hooks.Enabled {
		return hook.NewRunner(nil, opts)
	}

	plugins, err := hook.LoadPlugins(cfg.PluginsDir())
	if err != nil {
		a.log.Warn("some plugins failed to load", "error", err)
	}
	return hook.NewRunner(plugins, opts)
}

// Run runs the loop until ctx is canceled or Shutdown is called, then
// tears everything down. Session-start hooks fire in the background once
// the loop is up.
func (a *Application) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	if a.opts.Watch {
		w, err := config.Watch(a.root, a.configChanged, config.WithErrorHandler(func(err error) {
			a.log.Warn("config reload failed", "error", err)
		}))
		if err != nil {
			a.log.Warn("config watcher unavailable", "error", err)
		} else {
			a.watcher = w
		}
	}

	a.loop.Post(func() {
		a.terminals.RefreshShells(nil)
		for _, f := range a.opts.Files {
			a.workspace.Open(a.resolve(f), nil)
		}
	})

	go func() {
		results := a.hooks.Fire(ctx, hook.SessionStartEvent{
			ProjectRoot:    a.root,
			InitialMessage: a.opts.InitialMessage,
		})
		a.loop.Post(func() {
			a.injections = append(a.injections, hook.Injections(results)...)
		})
	}()

	a.log.Info("application started",
		"workspace", a.root,
		"project", a.cfg.Project.Name,
		"language", a.cfg.Project.Language)
	err := a.loop.Run(ctx)
	a.teardown()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown asks a running application to stop. Run returns once teardown
// is complete. Calling Shutdown on an application that never ran releases
// its resources directly.
func (a *Application) Shutdown() {
	if !a.running.Load() {
		a.teardown()
		return
	}
	a.loop.Stop()
}

// teardown runs after the loop has stopped, so it may touch loop-owned
// state directly.
func (a *Application) teardown() {
	a.teardownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if a.watcher != nil {
			_ = a.watcher.Close()
		}

		for _, doc := range a.workspace.DirtyDocuments() {
			a.log.Warn("discarding unsaved changes", "path", doc.Path)
		}
		a.terminals.CloseAll()
		a.workspace.CloseAll()

		a.hooks.Fire(ctx, hook.SessionEndEvent{})

		if s, ok := a.backend.(interface{ Shutdown(context.Context) error }); ok {
			if err := s.Shutdown(ctx); err != nil {
				a.log.Warn("terminal shutdown incomplete", "error", err)
			}
		}

		a.log.Info("application stopped")
		_ = a.logger.Close()
	})
}

// Do runs fn on the loop and waits for it.
func (a *Application) Do(ctx context.Context, fn func()) error {
	if !a.loop.IsRunning() {
		return ErrNotRunning
	}
	return a.loop.Do(ctx, fn)
}

// configChanged runs on the watcher goroutine.
func (a *Application) configChanged(cfg *config.Config) {
	a.loop.Post(func() { a.applyConfig(cfg) })
}

// applyConfig takes the settings that can change live: the log level and
// the keymap. Everything else applies to components created later.
func (a *Application) applyConfig(cfg *config.Config) {
	if cfg.Project.Name == "" {
		cfg.Project.Name = a.cfg.Project.Name
	}
	if cfg.Project.Language == "" {
		cfg.Project.Language = a.cfg.Project.Language
	}
	a.cfg = cfg
	level := cfg.Logging.Level
	if a.opts.LogLevel != "" {
		level = a.opts.LogLevel
	}
	a.logger.SetLevel(level)

	keymap := input.DefaultKeymap()
	if err := keymap.Apply(cfg.Keybindings); err != nil {
		a.log.Warn("ignoring keybindings", "error", err)
		return
	}
	a.dispatcher.SetKeymap(keymap)
	a.log.Info("config reloaded")
}

// resolve makes path absolute against the workspace root.
func (a *Application) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.root, path)
}

// Loop returns the application loop.
func (a *Application) Loop() *loop.Loop { return a.loop }

// Config returns the current configuration. Loop-owned once running.
func (a *Application) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *Application) Logger() *logx.Logger { return a.logger }

// Root returns the absolute workspace path.
func (a *Application) Root() string { return a.root }

// Workspace returns the document workspace. Loop-owned.
func (a *Application) Workspace() *editor.Workspace { return a.workspace }

// Terminals returns the terminal multiplexer. Loop-owned.
func (a *Application) Terminals() *terminal.Multiplexer { return a.terminals }

// Dispatcher returns the key dispatcher. Loop-owned.
func (a *Application) Dispatcher() *Dispatcher { return a.dispatcher }

// Hooks returns the hook runner.
func (a *Application) Hooks() *hook.Runner { return a.hooks }

// Injections returns the prompt text produced by hooks so far. Loop-owned.
func (a *Application) Injections() []string {
	return append([]string(nil), a.injections...)
}

type workspaceErrors struct {
	log *slog.Logger
}

func (workspaceErrors) TabsChanged(*editor.Workspace) {}

func (l workspaceErrors) Error(err error) {
	l.log.Debug("workspace error surfaced", "error", err)
}
