package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bertob/marker"
	"github.com/bertob/marker/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096 // PATH_MAX on Linux
	MaxURILength      = 2048 // Browser limit
	MaxModeLength     = 10   // "off", "local"
	MaxFormatLength   = 10   // "latex", "docx"
	MaxDurationLength = 20   // "1m30s"
	MaxAddrLength     = 255  // host:port
)

// Ranges for numeric fields.
const (
	MaxWorkers = 64
	MinZoom    = 0.1
	MaxZoom    = 4.0
	MaxPort    = 65535
)

// userConfigDirName is the directory searched under os.UserConfigDir.
const userConfigDirName = "marker"

// Config is the file-backed configuration. CLI flags are merged over it.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Assets  AssetsConfig  `yaml:"assets"`
	Export  ExportConfig  `yaml:"export"`
	Preview PreviewConfig `yaml:"preview"`
}

// RenderConfig selects feature modes and the stylesheet.
type RenderConfig struct {
	Math        string `yaml:"math"`        // "off", "local" (default: "off")
	Highlight   string `yaml:"highlight"`   // "off", "local" (default: "off")
	Diagram     string `yaml:"diagram"`     // "off", "local" (default: "off")
	Style       string `yaml:"style"`       // Path or URL; empty = built-in
	InlineStyle bool   `yaml:"inlineStyle"` // Embed CSS instead of linking it
}

// AssetsConfig locates the client-side bundles.
type AssetsConfig struct {
	BaseURI  string `yaml:"baseURI"`  // Prefix for bundle URLs in documents
	BasePath string `yaml:"basePath"` // Local override directory; empty = embedded
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Format     string `yaml:"format"`     // Used when -o has no known extension
	OutputDir  string `yaml:"outputDir"`  // Default directory for derived output paths
	Timeout    string `yaml:"timeout"`    // Go duration, e.g. "45s"
	PandocPath string `yaml:"pandocPath"` // Empty = "pandoc" on PATH
	Workers    int    `yaml:"workers"`    // 0 = auto
}

// PreviewConfig holds live preview defaults.
type PreviewConfig struct {
	Port int     `yaml:"port"` // 0 = pick a free port
	Host string  `yaml:"host"` // Empty = 127.0.0.1
	Zoom float64 `yaml:"zoom"` // 0 = 1.0
}

// Validate checks field lengths, enumerations and numeric ranges.
func (c *Config) Validate() error {
	lengths := []struct {
		name  string
		value string
		max   int
	}{
		{"render.math", c.Render.Math, MaxModeLength},
		{"render.highlight", c.Render.Highlight, MaxModeLength},
		{"render.diagram", c.Render.Diagram, MaxModeLength},
		{"render.style", c.Render.Style, MaxPathLength},
		{"assets.baseURI", c.Assets.BaseURI, MaxURILength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"export.format", c.Export.Format, MaxFormatLength},
		{"export.outputDir", c.Export.OutputDir, MaxPathLength},
		{"export.timeout", c.Export.Timeout, MaxDurationLength},
		{"export.pandocPath", c.Export.PandocPath, MaxPathLength},
		{"preview.host", c.Preview.Host, MaxAddrLength},
	}
	for _, f := range lengths {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.Render.Math != "" {
		if _, err := marker.ParseMathMode(c.Render.Math); err != nil {
			return fmt.Errorf("render.math: %w", err)
		}
	}
	if c.Render.Highlight != "" {
		if _, err := marker.ParseHighlightMode(c.Render.Highlight); err != nil {
			return fmt.Errorf("render.highlight: %w", err)
		}
	}
	if c.Render.Diagram != "" {
		if _, err := marker.ParseDiagramMode(c.Render.Diagram); err != nil {
			return fmt.Errorf("render.diagram: %w", err)
		}
	}

	if c.Export.Format != "" {
		if _, err := marker.ParseFormat(c.Export.Format); err != nil {
			return fmt.Errorf("export.format: %w", err)
		}
	}
	if c.Export.Timeout != "" {
		if _, err := c.Export.TimeoutDuration(); err != nil {
			return err
		}
	}
	if c.Export.Workers < 0 || c.Export.Workers > MaxWorkers {
		return fmt.Errorf("%w: export.workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Export.Workers)
	}

	if c.Preview.Port < 0 || c.Preview.Port > MaxPort {
		return fmt.Errorf("%w: preview.port must be between 0 and %d, got %d", ErrInvalidValue, MaxPort, c.Preview.Port)
	}
	if c.Preview.Zoom != 0 && (c.Preview.Zoom < MinZoom || c.Preview.Zoom > MaxZoom) {
		return fmt.Errorf("%w: preview.zoom must be between %.1f and %.1f, got %.2f", ErrInvalidValue, MinZoom, MaxZoom, c.Preview.Zoom)
	}

	return nil
}

// TimeoutDuration parses export.timeout. An empty value returns zero.
func (e ExportConfig) TimeoutDuration() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: export.timeout %q: %v", ErrInvalidValue, e.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: export.timeout must be positive, got %s", ErrInvalidValue, d)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a neutral configuration: every feature off,
// built-in stylesheet, embedded assets.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			Math:      marker.MathOff.String(),
			Highlight: marker.HighlightOff.String(),
			Diagram:   marker.DiagramOff.String(),
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <UserConfigDir>/marker/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, userConfigDirName, name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
