package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bertob/marker"
	"github.com/bertob/marker/internal/config"
	"github.com/bertob/marker/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage        = errors.New("invalid usage")
	ErrNoInput      = errors.New("no input specified")
	ErrReadMarkdown = errors.New("failed to read markdown file")
)

// stdinName selects standard input as the markdown source.
const stdinName = "-"

// loadSettings resolves the effective configuration.
// Priority: CLI flags > env vars > config file > defaults.
func loadSettings(f *cliFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	name := f.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(f, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags copies explicitly set flags over the config.
func mergeFlags(f *cliFlags, cfg *config.Config) {
	if f.changed("math") {
		cfg.Render.Math = f.render.math
	}
	if f.changed("highlight") {
		cfg.Render.Highlight = f.render.highlight
	}
	if f.changed("diagram") {
		cfg.Render.Diagram = f.render.diagram
	}
	if f.changed("style") {
		cfg.Render.Style = f.render.style
	}
	if f.changed("inline-style") {
		cfg.Render.InlineStyle = f.render.inlineStyle
	}
	if f.changed("asset-base") {
		cfg.Assets.BaseURI = f.render.assetBase
	}
	if f.changed("asset-path") {
		cfg.Assets.BasePath = f.render.assetPath
	}
	if f.changed("format") {
		cfg.Export.Format = f.export.format
	}
	if f.changed("timeout") {
		cfg.Export.Timeout = f.export.timeout
	}
	if f.changed("pandoc") {
		cfg.Export.PandocPath = f.export.pandoc
	}
	if f.changed("workers") {
		cfg.Export.Workers = f.export.workers
	}
	if f.changed("host") {
		cfg.Preview.Host = f.preview.host
	}
	if f.changed("port") {
		cfg.Preview.Port = f.preview.port
	}
	if f.changed("zoom") {
		cfg.Preview.Zoom = f.preview.zoom
	}
}

// renderConfig builds the library render options from a validated config.
func renderConfig(cfg *config.Config) (marker.RenderConfig, error) {
	var rc marker.RenderConfig
	var err error
	if cfg.Render.Math != "" {
		if rc.Math, err = marker.ParseMathMode(cfg.Render.Math); err != nil {
			return rc, err
		}
	}
	if cfg.Render.Highlight != "" {
		if rc.Highlight, err = marker.ParseHighlightMode(cfg.Render.Highlight); err != nil {
			return rc, err
		}
	}
	if cfg.Render.Diagram != "" {
		if rc.Diagram, err = marker.ParseDiagramMode(cfg.Render.Diagram); err != nil {
			return rc, err
		}
	}
	rc.StylesheetPath = cfg.Render.Style
	rc.InlineStyle = cfg.Render.InlineStyle
	return rc, nil
}

// converterOptions builds the Converter options from a validated config.
func converterOptions(cfg *config.Config, logger zerolog.Logger, env *Environment) ([]marker.Option, error) {
	opts := []marker.Option{
		marker.WithLogger(logger),
		marker.WithAssetBase(cfg.Assets.BaseURI),
		marker.WithAssetPath(cfg.Assets.BasePath),
		marker.WithWorkers(cfg.Export.Workers),
	}

	timeout, err := cfg.Export.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		opts = append(opts, marker.WithTimeout(timeout))
	}
	if cfg.Export.PandocPath != "" {
		opts = append(opts, marker.WithPandocPath(cfg.Export.PandocPath))
	}

	return append(opts, env.ConverterOptions...), nil
}

// newLogger builds the CLI logger. Library debug logs show with --verbose.
func newLogger(w io.Writer, f commonFlags) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case f.quiet:
		level = zerolog.ErrorLevel
	case f.verbose:
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// readMarkdown reads an input file, or stdin for "-".
func readMarkdown(path string, env *Environment) (marker.Document, error) {
	var data []byte
	var err error
	if path == stdinName {
		data, err = io.ReadAll(env.Stdin)
	} else {
		data, err = os.ReadFile(path) // #nosec G304 -- user-provided input path
	}
	if err != nil {
		return marker.Document{}, fmt.Errorf("%w: %s: %w", ErrReadMarkdown, path, err)
	}
	return marker.NewDocument(string(data)), nil
}

// baseURIFor returns the URI relative links of path resolve against.
// An explicit --base-uri wins; stdin falls back to the library default.
func baseURIFor(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if path == stdinName {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	uri, err := fileutil.FileURI(abs)
	if err != nil {
		return ""
	}
	return uri
}

// formatExtensions maps output file extensions to export formats.
var formatExtensions = map[string]marker.Format{
	".html":  marker.FormatHTML,
	".htm":   marker.FormatHTML,
	".pdf":   marker.FormatPDF,
	".rtf":   marker.FormatRTF,
	".odt":   marker.FormatODT,
	".docx":  marker.FormatDOCX,
	".tex":   marker.FormatLaTeX,
	".latex": marker.FormatLaTeX,
}

// extensionFor returns the file extension written for a format.
func extensionFor(f marker.Format) string {
	if f == marker.FormatLaTeX {
		return ".tex"
	}
	return "." + f.String()
}

// formatFromPath maps an output path's extension to a format.
func formatFromPath(path string) (marker.Format, bool) {
	f, ok := formatExtensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}
