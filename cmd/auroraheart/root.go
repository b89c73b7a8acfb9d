package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dollspace-gay/AuroraHeart/internal/app"
	"github.com/dollspace-gay/AuroraHeart/internal/config"
	"github.com/dollspace-gay/AuroraHeart/internal/files"
)

// globalFlags are shared by every command.
type globalFlags struct {
	workspace string
	config    string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "auroraheart [files...]",
		Short: "Editor sessions and terminal multiplexing for AuroraHeart",
		Long: `AuroraHeart keeps open documents with undo and search, and multiplexes
shell sessions, on one event loop.

Run without a subcommand to start the core headless: the given files are
opened, hooks fire, and the configuration is watched until interrupted.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options()
			if err != nil {
				return err
			}
			opts.Watch = true
			opts.Files, err = absPaths(args)
			if err != nil {
				return err
			}

			a, err := app.New(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}

	root.PersistentFlags().StringVarP(&g.workspace, "workspace", "w", "", "Project directory (default: the project containing the current directory)")
	root.PersistentFlags().StringVarP(&g.config, "config", "c", "", "Configuration file (default: <workspace>/.AuroraHeart/config.toml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newShellsCmd(g),
		newFindCmd(g),
		newTermCmd(g),
		newTreeCmd(g),
		newHooksCmd(g),
		newProjectCmd(g),
	)
	return root
}

func (g *globalFlags) options() (app.Options, error) {
	workspace, err := app.ResolveRoot(context.Background(), files.NewOSFS(), g.workspace)
	if err != nil {
		return app.Options{}, err
	}
	return app.Options{
		WorkspacePath: workspace,
		ConfigPath:    g.config,
		LogLevel:      g.logLevel,
	}, nil
}

// loadConfig loads the configuration the flags select, without starting an
// application.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	opts, err := g.options()
	if err != nil {
		return nil, err
	}
	cfg, err := app.LoadConfig(opts.WorkspacePath, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	return cfg, nil
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// withApp starts an application, runs fn against it and shuts it down.
func withApp(ctx context.Context, opts app.Options, fn func(ctx context.Context, a *app.Application) error) error {
	a, err := app.New(opts)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(runCtx) }()

	if err := waitRunning(ctx, a); err != nil {
		cancel()
		<-errCh
		return err
	}

	fnErr := fn(ctx, a)
	a.Shutdown()
	return errors.Join(fnErr, <-errCh)
}

func waitRunning(ctx context.Context, a *app.Application) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for !a.Loop().IsRunning() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// call runs fn on the loop, passing a callback that fn's async operation
// completes, and waits for that callback.
func call[T any](ctx context.Context, a *app.Application, fn func(done func(T, error))) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	if err := a.Do(ctx, func() {
		fn(func(v T, err error) { ch <- result{v, err} })
	}); err != nil {
		var zero T
		return zero, err
	}
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
