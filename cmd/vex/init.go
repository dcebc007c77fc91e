package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vex/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a vex project",
	Long:  "Creates vex.toml and a vexes/ directory with an example script in the current directory.",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing vex.toml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := config.Scaffold(cwd, initForce); err != nil {
		return err
	}
	fmt.Printf("Initialized vex project.\n")
	fmt.Printf("Manifest at: %s\n", config.ManifestName)
	fmt.Printf("Example vex at: %s\n", filepath.Join(config.DefaultVexesDir, config.ExampleVexFile))
	return nil
}
