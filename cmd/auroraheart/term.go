package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dollspace-gay/AuroraHeart/internal/app"
	"github.com/dollspace-gay/AuroraHeart/internal/terminal"
)

func newTermCmd(g *globalFlags) *cobra.Command {
	var shellName string
	cmd := &cobra.Command{
		Use:   "term",
		Short: "Run a shell session, relaying standard input line by line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var shell terminal.ShellType
			if shellName != "" {
				s, err := terminal.ParseShell(shellName)
				if err != nil {
					return err
				}
				shell = s
			}
			opts, err := g.options()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, opts, func(ctx context.Context, a *app.Application) error {
				return runTerm(ctx, a, shell, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&shellName, "shell", "", "Shell to run (default: configured or platform shell)")
	return cmd
}

func runTerm(ctx context.Context, a *app.Application, shell terminal.ShellType, in io.Reader, out io.Writer) error {
	done := make(chan error, 1)
	finish := func(err error) {
		select {
		case done <- err:
		default:
		}
	}

	var key string
	if err := a.Do(ctx, func() {
		a.Terminals().AddListener(terminal.ListenerFuncs{
			OnOutput: func(s *terminal.Session, data []byte) {
				if s.Key() == key {
					_, _ = out.Write(data)
				}
			},
			OnExited: func(s *terminal.Session) {
				if s.Key() == key {
					finish(nil)
				}
			},
			OnError: func(s *terminal.Session, err error) {
				if s.Key() == key && s.Status().Terminal() {
					finish(err)
				}
			},
		})
		key = a.Terminals().Spawn(shell, 0, 0).Key()
	}); err != nil {
		return err
	}

	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			line := append(append([]byte(nil), sc.Bytes()...), '\n')
			var werr error
			if err := a.Do(ctx, func() { werr = a.Terminals().Write(key, line) }); err != nil {
				return
			}
			if werr != nil {
				finish(werr)
				return
			}
		}
		// Input ended: ask the shell to leave and wait for it.
		_ = a.Do(ctx, func() { _ = a.Terminals().Write(key, []byte("exit\n")) })
	}()

	select {
	case err := <-done:
		if errors.Is(err, terminal.ErrSessionNotFound) {
			return nil
		}
		return err
	case <-ctx.Done():
		return nil
	}
}
