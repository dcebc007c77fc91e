// Package config loads and represents the vex.toml manifest.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	vexerr "vex/internal/errors"
)

// ManifestName is the manifest file looked up at the project root.
const ManifestName = "vex.toml"

// DefaultVexesDir is used when vexes-dir is absent.
const DefaultVexesDir = "vexes"

// DefaultIgnore is used when the ignore key is absent.
var DefaultIgnore = []string{"vex.toml", "vexes/", ".git/", ".gitignore", "/target/"}

// reservedKeys are the top-level scalar keys; every other top-level table
// is a per-language section.
var reservedKeys = map[string]bool{
	"vexes-dir": true,
	"ignore":    true,
	"lenient":   true,
}

// LanguageConfig is one per-language section of the manifest.
type LanguageConfig struct {
	Name       string
	UseFor     []string
	Extensions []string // nil means "keep the defaults"
}

// Config is the resolved manifest plus the project root it was loaded from.
type Config struct {
	ProjectRoot string
	VexesDir    string
	Ignore      []string
	Lenient     bool
	// Languages holds the per-language sections in manifest declaration
	// order; the resolver's cross-language tie-break depends on it.
	Languages []LanguageConfig
}

// DefaultConfig returns the configuration an absent vex.toml implies.
func DefaultConfig(projectRoot string) *Config {
	return &Config{
		ProjectRoot: projectRoot,
		VexesDir:    DefaultVexesDir,
		Ignore:      append([]string(nil), DefaultIgnore...),
	}
}

// Load reads vex.toml from projectRoot. An absent file yields the
// defaults; a malformed file is a fatal configuration error.
func Load(projectRoot string) (*Config, error) {
	manifestPath := filepath.Join(projectRoot, ManifestName)
	if _, err := os.Stat(manifestPath); err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(projectRoot), nil
		}
		return nil, vexerr.Wrap(vexerr.IOError, err, "reading %s", ManifestName)
	}

	v := viper.New()
	v.SetConfigFile(manifestPath)
	v.SetConfigType("toml")
	v.SetDefault("vexes-dir", DefaultVexesDir)
	v.SetDefault("ignore", DefaultIgnore)
	v.SetDefault("lenient", false)

	if err := v.ReadInConfig(); err != nil {
		return nil, vexerr.Wrap(vexerr.ConfigError, err, "malformed %s", ManifestName)
	}

	cfg := &Config{
		ProjectRoot: projectRoot,
		VexesDir:    v.GetString("vexes-dir"),
		Ignore:      v.GetStringSlice("ignore"),
		Lenient:     v.GetBool("lenient"),
	}

	languages, err := languageSections(v, manifestPath)
	if err != nil {
		return nil, err
	}
	cfg.Languages = languages
	return cfg, nil
}

// languageSections extracts the per-language tables, ordered by their
// appearance in the manifest. Viper hands back unordered maps, so the
// declaration order is recovered from a header scan of the raw file.
func languageSections(v *viper.Viper, manifestPath string) ([]LanguageConfig, error) {
	settings := v.AllSettings()

	sections := map[string]LanguageConfig{}
	for key, value := range settings {
		if reservedKeys[key] {
			continue
		}
		table, ok := value.(map[string]any)
		if !ok {
			return nil, vexerr.New(vexerr.ConfigError, "%s: unrecognised key %q", ManifestName, key)
		}
		lc := LanguageConfig{Name: key}
		for tk, tv := range table {
			switch tk {
			case "use-for":
				lc.UseFor, ok = stringSlice(tv)
			case "extensions":
				lc.Extensions, ok = stringSlice(tv)
				if lc.Extensions == nil {
					lc.Extensions = []string{}
				}
			default:
				return nil, vexerr.New(vexerr.ConfigError, "%s: unrecognised key %q.%q", ManifestName, key, tk)
			}
			if !ok {
				return nil, vexerr.New(vexerr.ConfigError, "%s: %q.%q must be a list of strings", ManifestName, key, tk)
			}
		}
		sections[key] = lc
	}

	order, err := headerOrder(manifestPath)
	if err != nil {
		return nil, err
	}

	var languages []LanguageConfig
	seen := map[string]bool{}
	for _, name := range order {
		if lc, ok := sections[name]; ok && !seen[name] {
			languages = append(languages, lc)
			seen[name] = true
		}
	}
	// Tables viper saw but the scan did not (inline tables); append in a
	// stable order so the result is still deterministic.
	var rest []string
	for name := range sections {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		languages = append(languages, sections[name])
	}
	return languages, nil
}

// headerOrder returns the [table] header names in file order.
func headerOrder(manifestPath string) ([]string, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, vexerr.Wrap(vexerr.IOError, err, "reading %s", ManifestName)
	}
	defer f.Close()

	var order []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") && !strings.HasPrefix(line, "[[") {
			order = append(order, strings.ToLower(strings.TrimSpace(line[1:len(line)-1])))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, vexerr.Wrap(vexerr.IOError, err, "reading %s", ManifestName)
	}
	return order, nil
}

func stringSlice(v any) ([]string, bool) {
	switch vv := v.(type) {
	case []string:
		return vv, true
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// VexesPath returns the absolute path of the script directory.
func (c *Config) VexesPath() string {
	return filepath.Join(c.ProjectRoot, c.VexesDir)
}

// String summarises the config for debug logs.
func (c *Config) String() string {
	return fmt.Sprintf("vexes-dir=%s ignore=%v lenient=%v languages=%d",
		c.VexesDir, c.Ignore, c.Lenient, len(c.Languages))
}
