package marker

import (
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout    time.Duration
	assetBase  string
	assetPath  string
	pandocPath string
	workers    int
	backends   map[Format]Backend
}

// defaultTimeout bounds one export when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the per-export timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("marker: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Converter) {
		c.logger = l
	}
}

// WithAssetBase sets the URI prefix of the bundled client-side assets
// (KaTeX, highlight.js, mermaid, styles/). Default: file:///usr/share/marker/.
func WithAssetBase(uri string) Option {
	return func(c *Converter) {
		c.cfg.assetBase = uri
	}
}

// WithAssetPath sets a local asset directory whose styles/default.css
// replaces the built-in stylesheet when styles are inlined.
func WithAssetPath(dir string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = dir
	}
}

// WithBackend registers b for f, replacing the default. A nil b removes the
// format, making it unsupported.
func WithBackend(f Format, b Backend) Option {
	return func(c *Converter) {
		if c.cfg.backends == nil {
			c.cfg.backends = make(map[Format]Backend)
		}
		c.cfg.backends[f] = b
	}
}

// WithPandocPath sets the pandoc binary used for RTF, ODT, DOCX and LaTeX.
func WithPandocPath(path string) Option {
	return func(c *Converter) {
		c.cfg.pandocPath = path
	}
}

// WithWorkers sets how many ExportAsync jobs run at once.
// Zero or negative selects a value from GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		c.cfg.workers = n
	}
}
