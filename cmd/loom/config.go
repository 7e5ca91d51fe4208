package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/loomcss/loom"
	"github.com/loomcss/loom/internal/engine"
)

var k = koanf.New(".")

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = ".loom.yaml"
	}

	if err := loadConfigFromPath(configPath); err != nil {
		return err
	}

	// CLI flags (highest precedence, only flags that were explicitly set)
	if err := k.Load(posflag.Provider(cmd.Flags(), ".", k), nil); err != nil {
		return fmt.Errorf("loading command flags: %w", err)
	}

	return nil
}

// loadConfigFromPath loads configuration from a file and environment
// variables. Separated from loadConfig to allow testing without a cobra
// command.
func loadConfigFromPath(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// Environment variables (LOOM_* prefix)
	// LOOM_OUTFILE -> outfile, LOOM_OPTIMIZE_STYLESHEET -> optimize.stylesheet
	if err := k.Load(env.Provider("LOOM_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "LOOM_")),
			"_", ".",
		)
	}), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	return nil
}

// buildOptions constructs the library's Options struct from koanf state.
func buildOptions() loom.Options {
	cwd := getStringWithFallback("cwd", "cwd", ".")
	if abs, err := filepath.Abs(cwd); err == nil {
		cwd = abs
	}

	opts := loom.Options{
		Cwd:        cwd,
		ConfigPath: getStringWithFallback("engine-config", "engine-config", ""),
		Outfile:    getStringWithFallback("outfile", "outfile", ""),
		Minify:     getBoolWithFallback("minify", "minify", false),
		Optimize:   buildOptimizeOptions(),
	}
	if opts.Outfile != "" && !filepath.IsAbs(opts.Outfile) {
		opts.Outfile = filepath.Join(cwd, opts.Outfile)
	}

	if include := k.Strings("include"); len(include) > 0 {
		opts.Include = include
	}
	if exclude := k.Strings("exclude"); len(exclude) > 0 {
		opts.Exclude = exclude
	}

	return opts
}

// buildOptimizeOptions reads the optimize switch, which is either a single
// mode applied to every usage kind or a per-kind map:
//
//	optimize: auto
//
//	optimize:
//	  stylesheet: on
//	  recipe: off
func buildOptimizeOptions() *engine.OptimizeOptions {
	if mode := optimizeMode(k.String("optimize")); mode != "" {
		o := engine.AllOptimizations(mode)
		return &o
	}

	if len(k.MapKeys("optimize")) == 0 {
		return nil
	}
	o := engine.OptimizeOptions{
		Stylesheet:        optimizeMode(k.String("optimize.stylesheet")),
		InlineVariantCall: optimizeMode(k.String("optimize.inline-variant-call")),
		Pattern:           optimizeMode(k.String("optimize.pattern")),
		Recipe:            optimizeMode(k.String("optimize.recipe")),
		Factory:           optimizeMode(k.String("optimize.factory")),
		JSXPattern:        optimizeMode(k.String("optimize.jsx-pattern")),
	}
	return &o
}

func optimizeMode(s string) engine.OptimizeMode {
	switch s {
	case "on", "true":
		return engine.ModeOn
	case "auto":
		return engine.ModeAuto
	case "off", "false":
		return engine.ModeOff
	}
	return ""
}

// getStringWithFallback checks the flag key first, then the config file key,
// then returns the default.
func getStringWithFallback(flagKey, configKey, defaultVal string) string {
	if v := k.String(flagKey); v != "" {
		return v
	}
	if v := k.String(configKey); v != "" {
		return v
	}
	return defaultVal
}

// getBoolWithFallback checks the flag key first, then the config file key,
// then returns the default.
func getBoolWithFallback(flagKey, configKey string, defaultVal bool) bool {
	if k.Exists(flagKey) {
		return k.Bool(flagKey)
	}
	if k.Exists(configKey) {
		return k.Bool(configKey)
	}
	return defaultVal
}
