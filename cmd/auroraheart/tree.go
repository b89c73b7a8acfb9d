package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dollspace-gay/AuroraHeart/internal/files"
)

func newTreeCmd(g *globalFlags) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "tree [dir]",
		Short: "Print the project tree, filtered like the file browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			dir := cfg.Root
			if len(args) == 1 {
				if dir, err = filepath.Abs(args[0]); err != nil {
					return err
				}
			}

			root, err := files.Tree(cmd.Context(), files.NewOSFS(), filepath.ToSlash(dir), files.TreeOptions{
				Filter:   files.Filter{Ignore: cfg.Files.Ignore, ShowHidden: cfg.Files.ShowHidden},
				MaxDepth: depth,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			root.Walk(func(n *files.Node, level int) {
				name := n.Name
				if n.IsDir {
					name += "/"
				}
				fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", level), name)
			})
			return nil
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "Maximum depth (0 for unlimited)")
	return cmd
}
