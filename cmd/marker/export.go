package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bertob/marker"
	"github.com/bertob/marker/internal/config"
)

// defaultExportFormat applies when neither flag, output extension nor config
// names a format.
const defaultExportFormat = marker.FormatPDF

// fileToExport pairs an input with its output path.
type fileToExport struct {
	InputPath  string
	OutputPath string
}

// exportOutcome holds the result of one export.
type exportOutcome struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// runExport renders and exports one or more markdown files.
func runExport(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseFlags("export", args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return ErrNoInput
	}

	cfg, err := loadSettings(f, env)
	if err != nil {
		return err
	}
	rc, err := renderConfig(cfg)
	if err != nil {
		return err
	}
	format, err := resolveFormat(f.changed("format"), cfg, f.output, len(positional))
	if err != nil {
		return err
	}
	files, err := planExports(positional, f.output, cfg.Export.OutputDir, format)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.common)
	opts, err := converterOptions(cfg, logger, env)
	if err != nil {
		return err
	}
	conv, err := marker.NewConverter(opts...)
	if err != nil {
		return err
	}
	defer conv.Close()

	outcomes := exportAll(ctx, conv, files, format, rc, f.render.baseURI, env)
	printOutcomes(outcomes, f.common, cfg.Export.PandocPath, env)

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.InputPath, o.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return reportedError{errors.Join(errs...)}
}

// resolveFormat picks the export format: --format, then the output
// extension for a single input, then export.format, then PDF.
func resolveFormat(flagSet bool, cfg *config.Config, output string, inputs int) (marker.Format, error) {
	if flagSet && cfg.Export.Format != "" {
		return marker.ParseFormat(cfg.Export.Format)
	}
	if inputs == 1 && output != "" {
		if f, ok := formatFromPath(output); ok {
			return f, nil
		}
	}
	if cfg.Export.Format != "" {
		return marker.ParseFormat(cfg.Export.Format)
	}
	return defaultExportFormat, nil
}

// planExports derives output paths. A single input writes to output when
// given; otherwise outputs go to output (as a directory), then outDir, then
// next to each input.
func planExports(inputs []string, output, outDir string, format marker.Format) ([]fileToExport, error) {
	if len(inputs) == 1 && output != "" && !isDirectory(output) {
		return []fileToExport{{InputPath: inputs[0], OutputPath: output}}, nil
	}

	dir := output
	if dir == "" {
		dir = outDir
	}

	seen := make(map[string]string, len(inputs))
	files := make([]fileToExport, 0, len(inputs))
	for _, in := range inputs {
		if in == stdinName {
			return nil, fmt.Errorf("%w: stdin needs a single input and an output file", ErrUsage)
		}
		out := derivedOutputPath(in, dir, format)
		if prev, dup := seen[out]; dup {
			return nil, fmt.Errorf("%w: %s and %s both export to %s", ErrUsage, prev, in, out)
		}
		seen[out] = in
		files = append(files, fileToExport{InputPath: in, OutputPath: out})
	}
	return files, nil
}

// derivedOutputPath swaps the input extension for the format's.
func derivedOutputPath(input, dir string, format marker.Format) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + extensionFor(format)
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base)
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// exportAll queues every file on the converter's worker pool and waits.
// Outcomes keep input order.
func exportAll(ctx context.Context, conv *marker.Converter, files []fileToExport, format marker.Format, rc marker.RenderConfig, baseURI string, env *Environment) []exportOutcome {
	outcomes := make([]exportOutcome, len(files))
	tasks := make([]*marker.ExportTask, len(files))

	for i, file := range files {
		outcomes[i] = exportOutcome{InputPath: file.InputPath, OutputPath: file.OutputPath}

		doc, err := readMarkdown(file.InputPath, env)
		if err != nil {
			outcomes[i].Err = err
			continue
		}

		tasks[i] = conv.ExportAsync(ctx, marker.ExportRequest{
			Document:   doc,
			Config:     rc,
			BaseURI:    baseURIFor(file.InputPath, baseURI),
			Format:     format,
			OutputPath: file.OutputPath,
		}, func(res *marker.ExportResult, err error) {
			outcomes[i].Err = err
			if res != nil {
				outcomes[i].Duration = res.Duration
			}
		})
	}
	// onDone runs before Done closes, so outcomes are complete after this.
	for _, task := range tasks {
		if task != nil {
			<-task.Done()
		}
	}

	return outcomes
}

// printOutcomes reports each export. Failures always print; successes
// print unless --quiet.
func printOutcomes(outcomes []exportOutcome, f commonFlags, pandocPath string, env *Environment) {
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAIL %s: %v%s\n", o.InputPath, o.Err, hintFor(o.Err, pandocPath))
			continue
		}
		if f.quiet {
			continue
		}
		if f.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", o.InputPath, o.OutputPath, o.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "%s -> %s\n", o.InputPath, o.OutputPath)
		}
	}

	if len(outcomes) > 1 && !f.quiet {
		fmt.Fprintf(env.Stdout, "%d exported, %d failed\n", len(outcomes)-failed, failed)
	}
}
