package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"vex/internal/slogutil"
	"vex/internal/version"
)

var (
	verbosity int
	quiet     bool

	// exitCode is set by commands whose success still carries a status,
	// like check's "warnings present".
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "vex",
	Short: "vex - a hackable project-local linter",
	Long: `vex lints a project against conventions its team wrote down as small
Starlark scripts. Scripts register tree-sitter queries over the project's
source files and emit position-annotated warnings on matches.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("vex version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logs")
}

// rootLogger builds the CLI logger from the verbosity flags. Logs share
// stderr with diagnostics, so the default level is warn.
func rootLogger() *slog.Logger {
	return slogutil.NewLogger(os.Stderr, slogutil.LevelFromVerbosity(verbosity, quiet))
}
