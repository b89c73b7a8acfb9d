package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dollspace-gay/AuroraHeart/internal/files"
	"github.com/dollspace-gay/AuroraHeart/internal/project"
)

func newProjectCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "project",
		Short: "Show the detected project root, name and language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			name := cfg.Project.Name
			if name == "" {
				name = project.Name(cfg.Root)
			}
			language := cfg.Project.Language
			if language == "" {
				lang, err := project.DetectLanguage(cmd.Context(), files.NewOSFS(), cfg.Root)
				switch {
				case err == nil:
					language = lang.String()
				case errors.Is(err, project.ErrLanguageUnknown):
					language = "unknown"
				default:
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "root:     %s\n", cfg.Root)
			fmt.Fprintf(out, "name:     %s\n", name)
			fmt.Fprintf(out, "language: %s\n", language)
			return nil
		},
	}
}
