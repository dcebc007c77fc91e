package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vex/internal/config"
	vexerr "vex/internal/errors"
	"vex/internal/language"
	"vex/internal/parse"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <path>",
	Short: "Print the parsed tree for a file",
	Long: `Parses one file, resolving its language the same way check does
(use-for globs, then extensions), and prints the tree outline.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	registry := language.NewRegistry()
	overrides := make([]language.Override, 0, len(cfg.Languages))
	for _, lc := range cfg.Languages {
		overrides = append(overrides, language.Override{
			Language:   language.Language(lc.Name),
			UseFor:     lc.UseFor,
			Extensions: lc.Extensions,
		})
	}
	resolver, err := language.NewResolver(registry, overrides)
	if err != nil {
		return err
	}

	rel := filepath.ToSlash(filepath.Clean(args[0]))
	lang, ok := resolver.Resolve(rel)
	if !ok {
		return vexerr.New(vexerr.ConfigError, "no language resolves %s", rel)
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		return vexerr.Wrap(vexerr.IOError, err, "reading %s", rel)
	}
	file, err := parse.NewPool(registry).Parse(context.Background(), rel, lang, src)
	if err != nil {
		return err
	}
	defer file.Close()

	parse.Dump(os.Stdout, file)
	return nil
}
