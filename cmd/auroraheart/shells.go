package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dollspace-gay/AuroraHeart/internal/app"
	"github.com/dollspace-gay/AuroraHeart/internal/terminal"
)

func newShellsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "shells",
		Short: "List the shells available on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.Application) error {
				_, err := call(ctx, a, func(done func(struct{}, error)) {
					a.Terminals().RefreshShells(func(err error) { done(struct{}{}, err) })
				})
				if err != nil {
					return err
				}

				var shells []terminal.ShellType
				var def terminal.ShellType
				if err := a.Do(ctx, func() {
					shells = a.Terminals().AvailableShells()
					def = a.Terminals().DefaultShell()
				}); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, s := range shells {
					marker := " "
					if s == def {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %s\n", marker, s)
				}
				return nil
			})
		},
	}
}
