package hook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dollspace-gay/AuroraHeart/internal/errs"
)

// DefaultTimeout bounds a single hook run.
const DefaultTimeout = 30 * time.Second

// DefaultParallelism bounds how many hooks of one event run at once.
const DefaultParallelism = 4

// Result is the outcome of one hook.
type Result struct {
	Hook     Hook
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	Err      error
}

// Success reports whether the hook ran and exited zero.
func (r Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Injection returns the hook's output as prompt text, if it printed any.
func (r Result) Injection() (string, bool) {
	if strings.TrimSpace(r.Stdout) == "" {
		return "", false
	}
	return r.Stdout, true
}

// Injections collects the prompt text of every result, in order.
func Injections(results []Result) []string {
	var out []string
	for _, r := range results {
		if s, ok := r.Injection(); ok {
			out = append(out, s)
		}
	}
	return out
}

// Options configures a Runner.
type Options struct {
	Logger      *slog.Logger
	Timeout     time.Duration
	Parallelism int

	// Dir is the working directory of shell hooks.
	Dir string

	// Env holds extra KEY=VALUE pairs for every hook.
	Env []string
}

// Runner runs the hooks of enabled plugins.
type Runner struct {
	hooks       map[Type][]Hook
	timeout     time.Duration
	parallelism int
	dir         string
	env         []string
	logger      *slog.Logger
}

// NewRunner collects the hooks of the enabled plugins.
func NewRunner(plugins []*Plugin, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	r := &Runner{
		hooks:       make(map[Type][]Hook),
		timeout:     timeout,
		parallelism: parallelism,
		dir:         opts.Dir,
		env:         opts.Env,
		logger:      logger.With("component", "hooks"),
	}
	for _, p := range plugins {
		if !p.Enabled() {
			r.logger.Debug("plugin disabled", "plugin", p.Info.Name)
			continue
		}
		for _, h := range p.Hooks {
			r.Add(h)
		}
	}
	return r
}

// Add registers a hook.
func (r *Runner) Add(h Hook) {
	r.hooks[h.Type] = append(r.hooks[h.Type], h)
}

// Has reports whether any hook handles t.
func (r *Runner) Has(t Type) bool {
	return len(r.hooks[t]) > 0
}

// Hooks returns the hooks for t in registration order.
func (r *Runner) Hooks(t Type) []Hook {
	return append([]Hook(nil), r.hooks[t]...)
}

// Fire runs every hook for the event. Hooks run in parallel and results
// come back in registration order. Failures are logged and reported in
// the results, never returned.
func (r *Runner) Fire(ctx context.Context, ev Event) []Result {
	hooks := r.hooks[ev.Type()]
	if len(hooks) == 0 {
		return nil
	}

	env := environ(ev.Env())
	results := make([]Result, len(hooks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, h := range hooks {
		g.Go(func() error {
			results[i] = r.run(ctx, h, env)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.Success() {
			r.logger.Debug("hook ran", "hook", res.Hook.Name(), "duration", res.Duration)
			continue
		}
		r.logger.Warn("hook failed", "hook", res.Hook.Name(), "exit", res.ExitCode, "error", res.Err)
	}
	return results
}

func (r *Runner) run(ctx context.Context, h Hook, env []string) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	var res Result
	switch filepath.Ext(h.Script) {
	case ".lua":
		res = runLua(ctx, h, env)
	default:
		res = r.runShell(ctx, h, env)
	}
	res.Hook = h
	res.Duration = time.Since(start)

	if res.Err == nil && res.ExitCode != 0 {
		res.Err = fmt.Errorf("%w: exit status %d", ErrHookFailed, res.ExitCode)
	}
	if res.Err != nil && ctx.Err() != nil {
		res.Err = errs.New(ErrHookFailed, "hook", h.Name(), ctx.Err())
	}
	return res
}

func (r *Runner) runShell(ctx context.Context, h Hook, env []string) Result {
	name, args := shellCommand(runtime.GOOS, h.Script)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), r.env...)
	cmd.Env = append(cmd.Env, env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Err = fmt.Errorf("%w: %v", ErrHookFailed, err)
	}
	return res
}

func shellCommand(goos, script string) (string, []string) {
	if goos == "windows" {
		return "powershell", []string{"-NoProfile", "-File", script}
	}
	return "bash", []string{script}
}

// environ flattens env into sorted KEY=VALUE pairs.
func environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
