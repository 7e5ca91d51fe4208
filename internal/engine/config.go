package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default values applied when the config file omits a key (or no config
// file exists at all).
const (
	DefaultPrefix     = "loom"
	DefaultImportName = "loom.css"
)

// configCandidates are the file names probed in the working directory when no
// explicit config path is given, in order of preference.
var configCandidates = []string{"loom.config.yaml", "loom.config.yml"}

// Config is the engine configuration as declared by the user.
type Config struct {
	// Prefix is prepended to every generated class name.
	Prefix string
	// ImportName is the module specifier whose call sites count as styling
	// usage (e.g. `import { css } from "loom.css"`).
	ImportName string
	// Tokens maps a category (colors, spacing, fonts, ...) to named design
	// token values. Token references in styling calls resolve to CSS custom
	// properties.
	Tokens map[string]map[string]string
	// Dependencies lists extra files (relative to the config file) whose
	// change must invalidate the whole engine context.
	Dependencies []string
	// CodegenDir is the directory the runtime helper files are written to.
	// Empty disables on-disk codegen.
	CodegenDir string
}

// ConfigResult is the immutable snapshot produced by LoadConfig.
type ConfigResult struct {
	Config *Config
	// Path is the absolute path of the loaded config file, or empty when
	// built-in defaults were used.
	Path string
	// Dependencies are the absolute paths of the files the loaded
	// configuration was derived from (not including Path itself).
	Dependencies []string
}

// ConfigError reports a configuration that failed to load or parse.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("loading config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// LoadOptions selects which configuration to load.
type LoadOptions struct {
	// Cwd is the directory config discovery starts from.
	Cwd string
	// Path is an explicit config file path. When set it must exist;
	// when empty the configCandidates are probed under Cwd.
	Path string
}

// LoadConfig resolves the engine configuration for a working directory.
// With no config file present it returns built-in defaults and an empty
// dependency list.
func LoadConfig(ctx context.Context, opts LoadOptions) (*ConfigResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := resolveConfigPath(opts)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return &ConfigResult{Config: defaultConfig()}, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	conf := defaultConfig()
	if v := k.String("prefix"); v != "" {
		conf.Prefix = v
	}
	if v := k.String("importName"); v != "" {
		conf.ImportName = v
	}
	if v := k.String("codegenDir"); v != "" {
		conf.CodegenDir = v
	}
	conf.Dependencies = k.Strings("dependencies")

	for _, category := range k.MapKeys("tokens") {
		values := k.StringMap("tokens." + category)
		if len(values) > 0 {
			conf.Tokens[category] = values
		}
	}

	deps := make([]string, 0, len(conf.Dependencies))
	base := filepath.Dir(path)
	for _, dep := range conf.Dependencies {
		if !filepath.IsAbs(dep) {
			dep = filepath.Join(base, dep)
		}
		deps = append(deps, dep)
	}

	return &ConfigResult{Config: conf, Path: path, Dependencies: deps}, nil
}

// resolveConfigPath returns the absolute config file path, or empty when no
// config exists and none was explicitly requested.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.Path != "" {
		path := opts.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(opts.Cwd, path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", &ConfigError{Path: path, Err: err}
		}
		return path, nil
	}

	for _, name := range configCandidates {
		candidate := filepath.Join(opts.Cwd, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func defaultConfig() *Config {
	return &Config{
		Prefix:     DefaultPrefix,
		ImportName: DefaultImportName,
		Tokens:     make(map[string]map[string]string),
	}
}
