package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vex/internal/language"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List things vex knows about",
}

var listLanguagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "Print the supported languages",
	RunE:  runListLanguages,
}

func init() {
	listCmd.AddCommand(listLanguagesCmd)
	rootCmd.AddCommand(listCmd)
}

func runListLanguages(cmd *cobra.Command, args []string) error {
	registry := language.NewRegistry()
	for _, name := range registry.Names() {
		exts := registry.DefaultExtensions(language.Language(name))
		fmt.Printf("%-12s %s\n", name, strings.Join(exts, " "))
	}
	return nil
}
