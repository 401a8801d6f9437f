package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds rendering flags shared by render, export and preview.
type renderFlags struct {
	math        string
	highlight   string
	diagram     string
	style       string
	inlineStyle bool
	assetBase   string
	assetPath   string
	baseURI     string
}

// exportFlags holds export-only flags.
type exportFlags struct {
	format  string
	timeout string
	pandoc  string
	workers int
}

// previewFlags holds preview-only flags.
type previewFlags struct {
	host    string
	port    int
	zoom    float64
	noWatch bool
}

// cliFlags holds every flag a command may register. fs records which ones
// the user set, so config values are only overridden by explicit flags.
type cliFlags struct {
	common  commonFlags
	render  renderFlags
	export  exportFlags
	preview previewFlags
	output  string
	fs      *flag.FlagSet
}

// changed reports whether the user set the named flag.
func (f *cliFlags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addRenderFlags adds feature mode and stylesheet flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVar(&f.math, "math", "", "math rendering: off, local")
	fs.StringVar(&f.highlight, "highlight", "", "code highlighting: off, local")
	fs.StringVar(&f.diagram, "diagram", "", "mermaid diagrams: off, local")
	fs.StringVarP(&f.style, "style", "s", "", "stylesheet path or URL")
	fs.BoolVar(&f.inlineStyle, "inline-style", false, "embed the stylesheet instead of linking it")
	fs.StringVar(&f.assetBase, "asset-base", "", "URI prefix of the KaTeX, highlight.js and mermaid bundles")
	fs.StringVar(&f.assetPath, "asset-path", "", "local asset directory")
	fs.StringVar(&f.baseURI, "base-uri", "", "URI relative links resolve against (default: the input file)")
}

// addExportFlags adds export flags to a FlagSet.
func addExportFlags(fs *flag.FlagSet, f *exportFlags) {
	fs.StringVarP(&f.format, "format", "f", "", "export format: html, pdf, rtf, odt, docx, latex")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "export timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.pandoc, "pandoc", "", "pandoc executable")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent exports (0 = auto)")
}

// addPreviewFlags adds preview flags to a FlagSet.
func addPreviewFlags(fs *flag.FlagSet, f *previewFlags) {
	fs.StringVar(&f.host, "host", "", "listen host (default: 127.0.0.1)")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port (0 = any free port)")
	fs.Float64Var(&f.zoom, "zoom", 0, "initial zoom level (0.1-4.0)")
	fs.BoolVar(&f.noWatch, "no-watch", false, "do not reload on file changes")
}

// newFlagSet builds the FlagSet of a command. Errors and usage go to stderr.
func newFlagSet(cmd string, f *cliFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	addCommonFlags(fs, &f.common)

	switch cmd {
	case "render":
		fs.StringVarP(&f.output, "output", "o", "", "write HTML to a file instead of stdout")
		addRenderFlags(fs, &f.render)
	case "export":
		fs.StringVarP(&f.output, "output", "o", "", "output file, or directory for several inputs")
		addRenderFlags(fs, &f.render)
		addExportFlags(fs, &f.export)
	case "preview":
		addRenderFlags(fs, &f.render)
		addPreviewFlags(fs, &f.preview)
	case "config":
		addRenderFlags(fs, &f.render)
		addExportFlags(fs, &f.export)
		addPreviewFlags(fs, &f.preview)
	}

	fs.Usage = func() { printCommandUsage(stderr, cmd) }
	f.fs = fs
	return fs
}

// parseFlags parses a command's flags and returns positional args.
// Under ContinueOnError pflag prints nothing, so parse errors are returned
// for runMain to report.
func parseFlags(cmd string, args []string, stderr io.Writer) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := newFlagSet(cmd, f, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v; run 'marker help %s'", ErrUsage, err, cmd)
	}
	return f, fs.Args(), nil
}
