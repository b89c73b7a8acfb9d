package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dollspace-gay/AuroraHeart/internal/hook"
	"github.com/dollspace-gay/AuroraHeart/internal/logx"
)

type hookFlags struct {
	message  string
	messages int
	chars    int
	tool     string
	toolID   string
	input    string
	output   string
	isError  bool
}

func newHooksCmd(g *globalFlags) *cobra.Command {
	f := &hookFlags{}
	cmd := &cobra.Command{
		Use:   "hooks <type>",
		Short: "Fire the plugin hooks of one type and print their results",
		Long: `Fire the plugin hooks of one type and print their results.

Types: session-start, session-end, before-tool-call, after-tool-call.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := hook.ParseType(args[0])
			if err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			logger, err := logx.New(logx.Options{Level: cfg.Logging.Level, Console: cmd.ErrOrStderr(), File: cfg.Logging.File})
			if err != nil {
				return err
			}
			defer logger.Close()

			plugins, err := hook.LoadPlugins(cfg.PluginsDir())
			if err != nil {
				logger.Warn("some plugins failed to load", "error", err)
			}
			runner := hook.NewRunner(plugins, hook.Options{
				Logger:  logger.Logger,
				Timeout: cfg.Hooks.Timeout.Std(),
				Dir:     cfg.Root,
			})

			results := runner.Fire(cmd.Context(), f.event(t, cfg.Root))
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "no %s hooks\n", t)
				return nil
			}
			failed := 0
			for _, r := range results {
				status := "ok"
				if !r.Success() {
					status = fmt.Sprintf("failed (exit %d)", r.ExitCode)
					failed++
				}
				fmt.Fprintf(out, "%s: %s in %s\n", r.Hook.Name(), status, r.Duration.Round(time.Millisecond))
				if s := strings.TrimRight(r.Stdout, "\n"); s != "" {
					fmt.Fprintln(out, indent(s))
				}
				if r.Err != nil {
					fmt.Fprintln(out, indent(r.Err.Error()))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d hooks failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.message, "message", "", "Initial message for session-start")
	cmd.Flags().IntVar(&f.messages, "messages", 0, "Message count for session-end")
	cmd.Flags().IntVar(&f.chars, "chars", 0, "Total characters for session-end")
	cmd.Flags().StringVar(&f.tool, "tool", "", "Tool name for tool-call hooks")
	cmd.Flags().StringVar(&f.toolID, "tool-id", "", "Tool call id for tool-call hooks")
	cmd.Flags().StringVar(&f.input, "input", "", "Tool input as JSON")
	cmd.Flags().StringVar(&f.output, "output", "", "Tool output for after-tool-call")
	cmd.Flags().BoolVar(&f.isError, "error", false, "Mark the tool output as an error")
	return cmd
}

func (f *hookFlags) event(t hook.Type, root string) hook.Event {
	call := hook.ToolCallEvent{ToolName: f.tool, ToolID: f.toolID, Input: f.toolInput()}
	switch t {
	case hook.SessionEnd:
		return hook.SessionEndEvent{MessageCount: f.messages, TotalChars: f.chars}
	case hook.BeforeToolCall:
		return call
	case hook.AfterToolCall:
		return hook.ToolResultEvent{ToolCallEvent: call, Output: f.output, IsError: f.isError}
	default:
		return hook.SessionStartEvent{ProjectRoot: root, InitialMessage: f.message}
	}
}

// toolInput decodes --input as JSON, falling back to the raw string.
func (f *hookFlags) toolInput() any {
	if f.input == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(f.input), &v); err != nil {
		return f.input
	}
	return v
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
