package main

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/bertob/marker"
	"github.com/bertob/marker/internal/assets"
	"github.com/bertob/marker/internal/fileutil"
	"github.com/bertob/marker/internal/preview"
)

const defaultPreviewHost = "127.0.0.1"

// runPreview serves a live preview of one markdown file until interrupted.
func runPreview(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseFlags("preview", args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return ErrNoInput
	}
	if len(positional) > 1 || positional[0] == stdinName {
		return fmt.Errorf("%w: preview takes one input file", ErrUsage)
	}

	input, err := filepath.Abs(positional[0])
	if err != nil {
		return err
	}
	if !fileutil.FileExists(input) {
		return fmt.Errorf("%w: %s: file not found", ErrReadMarkdown, positional[0])
	}

	cfg, err := loadSettings(f, env)
	if err != nil {
		return err
	}
	rc, err := renderConfig(cfg)
	if err != nil {
		return err
	}
	previewStyle(&rc)

	logger := newLogger(env.Stderr, f.common)
	opts, err := converterOptions(cfg, logger, env)
	if err != nil {
		return err
	}
	// Bundles are served by the preview server, whatever the configured base.
	opts = append(opts, marker.WithAssetBase(preview.AssetsPrefix))

	conv, err := marker.NewConverter(opts...)
	if err != nil {
		return err
	}
	defer conv.Close()

	resolver, err := assets.NewAssetResolver(cfg.Assets.BasePath)
	if err != nil {
		return fmt.Errorf("%w: %v", marker.ErrInvalidAssetPath, err)
	}

	baseURI := baseURIFor(input, f.render.baseURI)
	docDir := filepath.Dir(input)
	if f.render.baseURI != "" {
		docDir = ""
	}

	srv := preview.NewServer(preview.Options{
		Addr:   listenAddr(cfg.Preview.Host, cfg.Preview.Port),
		Zoom:   cfg.Preview.Zoom,
		DocDir: docDir,
		Assets: resolver,
		Render: func() (*marker.RenderedDocument, error) {
			doc, err := readMarkdown(input, env)
			if err != nil {
				return nil, err
			}
			return conv.Render(doc, rc, baseURI)
		},
		Logger: logger,
	})

	url, err := srv.Listen()
	if err != nil {
		return err
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Previewing %s at %s\n", positional[0], url)
	}

	if !f.preview.noWatch {
		w, err := preview.NewWatcher(input, logger)
		if err != nil {
			return err
		}
		go w.Run(ctx, srv.Refresh)
	}

	return srv.Serve(ctx)
}

// previewStyle inlines a local stylesheet: pages served over HTTP cannot
// load file:// links.
func previewStyle(rc *marker.RenderConfig) {
	if rc.StylesheetPath != "" && !fileutil.IsURL(rc.StylesheetPath) {
		rc.InlineStyle = true
	}
}

func listenAddr(host string, port int) string {
	if host == "" {
		host = defaultPreviewHost
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
