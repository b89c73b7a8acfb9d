package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/dollspace-gay/AuroraHeart/internal/app"
	"github.com/dollspace-gay/AuroraHeart/internal/editor"
	"github.com/dollspace-gay/AuroraHeart/internal/search"
)

type findFlags struct {
	regex         bool
	caseSensitive bool
	replace       string
	write         bool
}

func newFindCmd(g *globalFlags) *cobra.Command {
	f := &findFlags{}
	cmd := &cobra.Command{
		Use:   "find <file> <query>",
		Short: "Search a file, optionally replacing every match",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			replacing := cmd.Flags().Changed("replace")
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app.Application) error {
				return runFind(ctx, cmd, a, path, args[1], f, replacing)
			})
		},
	}

	cmd.Flags().BoolVarP(&f.regex, "regex", "r", false, "Treat the query as a regular expression")
	cmd.Flags().BoolVarP(&f.caseSensitive, "case-sensitive", "s", false, "Match case")
	cmd.Flags().StringVar(&f.replace, "replace", "", "Replace every match with this text")
	cmd.Flags().BoolVar(&f.write, "write", false, "Save the file after replacing")
	return cmd
}

func runFind(ctx context.Context, cmd *cobra.Command, a *app.Application, path, query string, f *findFlags, replacing bool) error {
	if _, err := call(ctx, a, func(done func(*editor.Document, error)) {
		a.Workspace().Open(path, done)
	}); err != nil {
		return err
	}

	var (
		matches  []search.Match
		content  string
		replaced int
		findErr  error
	)
	if err := a.Do(ctx, func() {
		findErr = a.Dispatcher().Find(query, search.Options{CaseSensitive: f.caseSensitive, UseRegex: f.regex})
		e := a.Workspace().Search()
		matches = e.Matches()
		content = a.Workspace().Active().Content()
		if findErr == nil && replacing {
			replaced = e.ReplaceAll(f.replace)
		}
	}); err != nil {
		return err
	}
	if findErr != nil {
		return findErr
	}

	out := cmd.OutOrStdout()
	for _, m := range matches {
		line, col := position(content, m.Offset)
		fmt.Fprintf(out, "%s:%d:%d: %s\n", path, line, col, lineAt(content, m.Offset))
	}

	if !replacing {
		fmt.Fprintf(out, "%d match(es)\n", len(matches))
		return nil
	}
	fmt.Fprintf(out, "replaced %d match(es)\n", replaced)

	if !f.write || replaced == 0 {
		return nil
	}
	_, err := call(ctx, a, func(done func(struct{}, error)) {
		a.Workspace().SaveActive(func(err error) { done(struct{}{}, err) })
	})
	return err
}

// position returns the 1-based line and rune column of a byte offset.
func position(content string, offset int) (int, int) {
	before := content[:offset]
	line := strings.Count(before, "\n") + 1
	start := strings.LastIndexByte(before, '\n') + 1
	return line, utf8.RuneCountInString(before[start:]) + 1
}

func lineAt(content string, offset int) string {
	start := strings.LastIndexByte(content[:offset], '\n') + 1
	end := strings.IndexByte(content[offset:], '\n')
	if end < 0 {
		return content[start:]
	}
	return content[start : offset+end]
}
