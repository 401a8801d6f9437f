package main

import (
	"context"
	"fmt"

	"github.com/bertob/marker"
)

// runRender renders one markdown file to HTML on stdout, or to -o.
func runRender(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseFlags("render", args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return ErrNoInput
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: render takes one input, got %d", ErrUsage, len(positional))
	}
	input := positional[0]

	cfg, err := loadSettings(f, env)
	if err != nil {
		return err
	}
	rc, err := renderConfig(cfg)
	if err != nil {
		return err
	}
	logger := newLogger(env.Stderr, f.common)
	opts, err := converterOptions(cfg, logger, env)
	if err != nil {
		return err
	}

	doc, err := readMarkdown(input, env)
	if err != nil {
		return err
	}

	conv, err := marker.NewConverter(opts...)
	if err != nil {
		return err
	}
	defer conv.Close()

	baseURI := baseURIFor(input, f.render.baseURI)

	if f.output == "" {
		rendered, err := conv.Render(doc, rc, baseURI)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(env.Stdout, rendered.HTML)
		return err
	}

	result, err := conv.Export(ctx, marker.ExportRequest{
		Document:   doc,
		Config:     rc,
		BaseURI:    baseURI,
		Format:     marker.FormatHTML,
		OutputPath: f.output,
	})
	if err != nil {
		return err
	}
	logger.Info().Str("output", f.output).Dur("elapsed", result.Duration).Msg("rendered")
	return nil
}
