package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	vexerr "vex/internal/errors"
)

// ExampleVexFile is the script scaffolded by `vex init`.
const ExampleVexFile = "example.star"

const exampleVexContent = `def init():
    vex.add_trigger(
        'rust',
        '(integer_literal) @lit',
        on_match,
    )

def on_match(event):
    # Long base-10 integer literals read better broken up with underscores.
    lit = event.captures['lit']
    lit_str = lit.text()

    if lit_str.startswith('0x') or lit_str.startswith('0b'):
        return
    if len(lit_str.replace('_', '')) <= 6:
        return
    if '_' not in lit_str:
        vex.warn(
            'long integer literals should be broken up with underscores',
            at=(lit, 'needs separators'),
        )
`

// manifest mirrors the on-disk shape of a default vex.toml.
type manifest struct {
	VexesDir string   `toml:"vexes-dir"`
	Ignore   []string `toml:"ignore"`
}

// Scaffold creates vex.toml, the vexes directory, and an example script
// under projectRoot. Existing files are left alone unless force is set.
func Scaffold(projectRoot string, force bool) error {
	manifestPath := filepath.Join(projectRoot, ManifestName)
	if _, err := os.Stat(manifestPath); err == nil && !force {
		return vexerr.New(vexerr.ConfigError, "%s already exists (use --force to overwrite)", ManifestName)
	}

	vexesDir := filepath.Join(projectRoot, DefaultVexesDir)
	if err := os.MkdirAll(vexesDir, 0o755); err != nil {
		return vexerr.Wrap(vexerr.IOError, err, "creating %s", DefaultVexesDir)
	}

	raw, err := toml.Marshal(manifest{
		VexesDir: DefaultVexesDir,
		Ignore:   DefaultIgnore,
	})
	if err != nil {
		return vexerr.Wrap(vexerr.InternalError, err, "encoding default manifest")
	}
	if err := os.WriteFile(manifestPath, raw, 0o644); err != nil {
		return vexerr.Wrap(vexerr.IOError, err, "writing %s", ManifestName)
	}

	examplePath := filepath.Join(vexesDir, ExampleVexFile)
	if _, err := os.Stat(examplePath); err == nil && !force {
		return nil
	}
	if err := os.WriteFile(examplePath, []byte(exampleVexContent), 0o644); err != nil {
		return vexerr.Wrap(vexerr.IOError, err, "writing %s", ExampleVexFile)
	}
	return nil
}
