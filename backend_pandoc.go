package marker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bertob/marker/internal/fileutil"
	"github.com/bertob/marker/internal/process"
)

// DefaultPandocPath is looked up on PATH when no explicit binary is configured.
const DefaultPandocPath = "pandoc"

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// execRunner implements CommandRunner using os/exec. The child gets its own
// process group so cancellation also reaches anything it spawned.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.Command(name, args...) // #nosec G204 -- fixed binary, generated args
	process.Isolate(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", "", fmt.Errorf("starting command: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return stdout.String(), stderr.String(), err
	case <-ctx.Done():
		_ = process.KillGroup(cmd.Process.Pid)
		<-done
		return stdout.String(), stderr.String(), ctx.Err()
	}
}

// pandocBackend hands the HTML to pandoc, which writes the target format.
// Pandoc runs no scripts: math stays as TeX and diagrams as their source.
type pandocBackend struct {
	path     string
	writer   string // pandoc --to value
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// pandocWriters maps formats to pandoc writer names.
var pandocWriters = map[Format]string{
	FormatRTF:   "rtf",
	FormatODT:   "odt",
	FormatDOCX:  "docx",
	FormatLaTeX: "latex",
}

func newPandocBackend(path string, f Format) *pandocBackend {
	if path == "" {
		path = DefaultPandocPath
	}
	return &pandocBackend{
		path:     path,
		writer:   pandocWriters[f],
		runner:   execRunner{},
		lookPath: exec.LookPath,
	}
}

// Convert implements Backend.
func (b *pandocBackend) Convert(ctx context.Context, html, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bin, err := b.lookPath(b.path)
	if err != nil {
		return fmt.Errorf("%w: pandoc not found: %v", ErrBackendUnavailable, err)
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return err
	}
	defer cleanup()

	_, stderr, err := b.runner.Run(ctx, bin,
		"--from", "html",
		"--to", b.writer,
		"--standalone",
		"--output", outputPath,
		tmpPath,
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if msg := strings.TrimSpace(stderr); msg != "" {
			return fmt.Errorf("pandoc --to %s: %s: %w", b.writer, msg, err)
		}
		return fmt.Errorf("pandoc --to %s: %w", b.writer, err)
	}
	return nil
}

// Cancelable implements CancelableBackend; the process group is killed on cancel.
func (b *pandocBackend) Cancelable() bool { return true }

// Compile-time interface checks.
var (
	_ CancelableBackend = (*pandocBackend)(nil)
	_ CommandRunner     = execRunner{}
)
