package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bertob/marker"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment and backends
// ---------------------------------------------------------------------------

// testEnv is an Environment whose streams are buffers and whose process
// environment is a map, so tests can run in parallel.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	vars   map[string]string
}

func newTestEnv(t *testing.T, opts ...marker.Option) *testEnv {
	t.Helper()
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		vars:   map[string]string{},
	}
	te.Environment = &Environment{
		Stdin:  strings.NewReader(""),
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(k string) string { return te.vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(te.vars))
			for k, v := range te.vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		LookPath: func(name string) (string, error) {
			return "", errors.New("not found: " + name)
		},
		// No test reaches a real browser.
		ConverterOptions: append([]marker.Option{marker.WithBackend(marker.FormatPDF, &fakeBackend{content: "%PDF-fake"})}, opts...),
	}
	return te
}

// fakeBackend writes fixed content, or fails with err.
type fakeBackend struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
	html    []string
}

func (b *fakeBackend) Convert(_ context.Context, html, outputPath string) error {
	b.mu.Lock()
	b.calls++
	b.html = append(b.html, html)
	b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	return os.WriteFile(outputPath, []byte(b.content), 0o644)
}

func (b *fakeBackend) seen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.html...)
}

func writeMarkdown(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
