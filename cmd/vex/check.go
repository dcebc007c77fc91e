package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"vex/internal/config"
	"vex/internal/engine"
)

var checkLenient bool

var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Run every vex over the project",
	Long: `Loads the scripts under vexes-dir, walks the project root, and prints
any warnings they emit. With paths, only those files or directories are
scanned. Exits 0 when clean, 1 when warnings were emitted, 2 on error.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkLenient, "lenient", false, "Silence warnings from lenient vexes")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	e, err := engine.New(engine.Options{
		Config:  cfg,
		Targets: args,
		Lenient: checkLenient || cfg.Lenient,
		Logger:  rootLogger(),
		Stderr:  os.Stderr,
	})
	if err != nil {
		return err
	}

	// A signal aborts between files, at the next open_file boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code, err := e.Run(ctx)
	if err != nil {
		return err
	}
	exitCode = code
	return nil
}
