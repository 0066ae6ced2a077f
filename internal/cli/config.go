package cli

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/magiconair/properties"

	"github.com/matzehuels/bundlescope/pkg/analyzer"
	"github.com/matzehuels/bundlescope/pkg/errors"
	"github.com/matzehuels/bundlescope/pkg/header"
)

// config is the analysis setup read from a file.
//
// A TOML file separates instructions from plain properties and may list
// classpath jars:
//
//	classpath = ["lib/slf4j-api.jar"]
//
//	[instructions]
//	Export-Package = "com.acme.api.*;version=${version}"
//	Import-Package = "!com.acme.internal.*, *"
//
//	[properties]
//	version = "1.4.0"
//
// Any other file is read as a bnd file: Java properties where headers,
// instructions and macros share one namespace.
type config struct {
	Instructions map[string]string `toml:"instructions"`
	Properties   map[string]string `toml:"properties"`
	Classpath    []string          `toml:"classpath"`

	// dir is the directory of the file; relative paths resolve against it.
	dir string
}

// loadConfig reads the configuration at path.
func loadConfig(path string) (*config, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return loadTOML(path)
	}
	return loadBnd(path)
}

func loadTOML(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config")
	}
	var cfg config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %v", path, undecoded)
	}
	cfg.dir = filepath.Dir(path)
	return &cfg, nil
}

func loadBnd(path string) (*config, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config")
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	cfg := &config{Properties: make(map[string]string), dir: filepath.Dir(path)}
	for _, k := range p.Keys() {
		cfg.Properties[k], _ = p.Get(k)
	}
	return cfg, nil
}

// apply sets the configuration on a. Properties go first so that an
// instruction of the same name wins.
func (cfg *config) apply(a *analyzer.Analyzer) {
	for _, k := range slices.Sorted(maps.Keys(cfg.Properties)) {
		a.Set(k, cfg.Properties[k])
	}
	for _, k := range slices.Sorted(maps.Keys(cfg.Instructions)) {
		a.Set(k, cfg.Instructions[k])
	}
	if len(cfg.Classpath) > 0 {
		entries := make([]string, len(cfg.Classpath))
		for i, e := range cfg.Classpath {
			if !filepath.IsAbs(e) {
				e = filepath.Join(cfg.dir, e)
			}
			entries[i] = e
		}
		a.Set(analyzer.Classpath, strings.Join(entries, ","))
	}
}

// parseAssignments turns "key=value" flags into a map.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid property %q, want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

// validateInstruction parses an instruction flag value so typos surface
// before any jar is opened. Values holding macros are checked after
// expansion, during the analysis.
func validateInstruction(name, value string) error {
	if value == "" || strings.Contains(value, "$") {
		return nil
	}
	if _, err := header.ParseStrict(value); err != nil {
		return fmt.Errorf("--%s: %w", name, err)
	}
	return nil
}
