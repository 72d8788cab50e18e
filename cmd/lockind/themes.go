package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/lockind/internal/theme"
)

var themesOpts struct {
	init bool
	show string
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List overlay themes",
	Long: `List bundled and user overlay themes.

User themes live in ~/.config/lockind/themes/<name>.css and override bundled
themes of the same name. Files starting with "_" are partials for @import.
A running indicator reloads the active user theme when it changes.`,
	Args: cobra.NoArgs,
	RunE: runThemes,
}

func init() {
	rootCmd.AddCommand(themesCmd)

	themesCmd.Flags().BoolVar(&themesOpts.init, "init", false,
		"Create the user themes directory")
	themesCmd.Flags().StringVar(&themesOpts.show, "show", "",
		"Print the resolved CSS of a theme, with imports inlined")
}

func runThemes(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if themesOpts.init {
		if err := theme.CreateThemesDir(); err != nil {
			return fmt.Errorf("failed to create themes directory: %w", err)
		}
		dir, _ := theme.ThemesDir()
		_, _ = fmt.Fprintln(out, "themes directory:", dir)
		return nil
	}

	if themesOpts.show != "" {
		dir, _ := theme.ThemesDir()
		t := theme.Resolve(dir, themesOpts.show, logger)
		_, err := io.WriteString(out, t.CSS)
		return err
	}

	themes, err := theme.ListAvailableThemes()
	if err != nil {
		logger.Warn("failed to read user themes", "error", err)
	}
	return writeThemes(out, themes, cfg.Theme.Name)
}

// writeThemes prints one theme per line with its origin.
func writeThemes(w io.Writer, themes []theme.ThemeInfo, active string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range themes {
		marker := " "
		if t.Name == active {
			marker = "*"
		}

		origin := "bundled"
		switch {
		case t.Overrides:
			origin = "user (overrides bundled)"
		case !t.IsBundled:
			origin = "user"
		}

		_, _ = fmt.Fprintf(tw, "%s %s\t%s\t%s\n", marker, t.Name, origin, t.Path)
	}
	return tw.Flush()
}
