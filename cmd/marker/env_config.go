package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bertob/marker/internal/config"
)

// envPrefix marks the variables read by loadEnvConfig.
const envPrefix = "MARKER_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // MARKER_CONFIG: config file name or path
	Style      string // MARKER_STYLE: stylesheet path or URL
	Timeout    string // MARKER_TIMEOUT: export timeout
	AssetBase  string // MARKER_ASSET_BASE: asset base URI
	AssetPath  string // MARKER_ASSET_PATH: local asset directory
	Pandoc     string // MARKER_PANDOC: pandoc executable
	OutputDir  string // MARKER_OUTPUT_DIR: default export directory
	Workers    int    // MARKER_WORKERS: concurrent exports
}

// knownEnvVars lists valid MARKER_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MARKER_CONFIG":     true,
	"MARKER_STYLE":      true,
	"MARKER_TIMEOUT":    true,
	"MARKER_ASSET_BASE": true,
	"MARKER_ASSET_PATH": true,
	"MARKER_PANDOC":     true,
	"MARKER_OUTPUT_DIR": true,
	"MARKER_WORKERS":    true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("MARKER_CONFIG"),
		Style:      getenv("MARKER_STYLE"),
		Timeout:    getenv("MARKER_TIMEOUT"),
		AssetBase:  getenv("MARKER_ASSET_BASE"),
		AssetPath:  getenv("MARKER_ASSET_PATH"),
		Pandoc:     getenv("MARKER_PANDOC"),
		OutputDir:  getenv("MARKER_OUTPUT_DIR"),
	}

	if workers := getenv("MARKER_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars prints warnings for unrecognized MARKER_* variables.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty/zero.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Style != "" && cfg.Render.Style == "" {
		cfg.Render.Style = env.Style
	}
	if env.Timeout != "" && cfg.Export.Timeout == "" {
		cfg.Export.Timeout = env.Timeout
	}
	if env.AssetBase != "" && cfg.Assets.BaseURI == "" {
		cfg.Assets.BaseURI = env.AssetBase
	}
	if env.AssetPath != "" && cfg.Assets.BasePath == "" {
		cfg.Assets.BasePath = env.AssetPath
	}
	if env.Pandoc != "" && cfg.Export.PandocPath == "" {
		cfg.Export.PandocPath = env.Pandoc
	}
	if env.OutputDir != "" && cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = env.OutputDir
	}
	if env.Workers > 0 && cfg.Export.Workers == 0 {
		cfg.Export.Workers = env.Workers
	}
}
