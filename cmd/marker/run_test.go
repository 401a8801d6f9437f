package main

// Notes:
// - runMain is exercised end to end with a real Converter. The PDF backend
//   is replaced by fakeBackend so no browser is needed; pandoc formats are
//   only tested for the "unavailable" path.
// - preview is not run here because it blocks until interrupted; the
//   preview package tests the server itself.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bertob/marker"
)

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

func TestRunMain_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"marker"}, ExitUsage, "", "Usage: marker"},
		{"unknown command", []string{"marker", "convert"}, ExitUsage, "", "Unknown command: convert"},
		{"help", []string{"marker", "help"}, ExitSuccess, "Commands:", ""},
		{"help flag", []string{"marker", "--help"}, ExitSuccess, "Commands:", ""},
		{"help export", []string{"marker", "help", "export"}, ExitSuccess, "--format", ""},
		{"help unknown", []string{"marker", "help", "nope"}, ExitUsage, "", "Unknown command: nope"},
		{"version", []string{"marker", "version"}, ExitSuccess, "marker dev", ""},
		{"render without input", []string{"marker", "render"}, ExitUsage, "", "no input specified"},
		{"export without input", []string{"marker", "export"}, ExitUsage, "", "no input specified"},
		{"preview without input", []string{"marker", "preview"}, ExitUsage, "", "no input specified"},
		{"unknown flag", []string{"marker", "render", "--bogus", "x.md"}, ExitUsage, "", "bogus"},
		{"render help flag", []string{"marker", "render", "--help"}, ExitSuccess, "", "Usage: marker render"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			code := runMain(tt.args, env.Environment)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, env.stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(env.stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want substring %q", env.stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(env.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want substring %q", env.stderr, tt.wantStderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// render
// ---------------------------------------------------------------------------

func TestRunMain_Render(t *testing.T) {
	t.Parallel()

	t.Run("writes HTML to stdout", func(t *testing.T) {
		t.Parallel()

		in := writeMarkdown(t, t.TempDir(), "doc.md", "# Hello\n\nWorld\n")
		env := newTestEnv(t)

		if code := runMain([]string{"marker", "render", in}, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		out := env.stdout.String()
		for _, want := range []string{"<!DOCTYPE html>", "<title>Hello</title>", "<h1>Hello</h1>", "<p>World</p>", "styles/default.css"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "<script") {
			t.Error("no feature enabled, output should have no scripts")
		}
	})

	t.Run("reads stdin", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.Stdin = strings.NewReader("# From stdin\n")

		if code := runMain([]string{"marker", "render", "-"}, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		if !strings.Contains(env.stdout.String(), "<h1>From stdin</h1>") {
			t.Errorf("stdout = %q", env.stdout)
		}
	})

	t.Run("feature flags add assets", func(t *testing.T) {
		t.Parallel()

		in := writeMarkdown(t, t.TempDir(), "doc.md", "$x$\n")
		env := newTestEnv(t)

		args := []string{"marker", "render", in, "--math", "local", "--asset-base", "http://cdn.test/m/"}
		if code := runMain(args, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		out := env.stdout.String()
		if !strings.Contains(out, "http://cdn.test/m/katex/katex.min.js") {
			t.Errorf("expected KaTeX from asset base:\n%s", out)
		}
		if !strings.Contains(out, `<span class="math">`) {
			t.Errorf("expected math span:\n%s", out)
		}
	})

	t.Run("writes HTML to output file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeMarkdown(t, dir, "doc.md", "# Saved\n")
		out := filepath.Join(dir, "doc.html")
		env := newTestEnv(t)

		if code := runMain([]string{"marker", "render", in, "-o", out, "-q"}, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		if got := readFile(t, out); !strings.Contains(got, "<h1>Saved</h1>") {
			t.Errorf("output file = %q", got)
		}
		if env.stdout.Len() != 0 {
			t.Errorf("stdout should be empty, got %q", env.stdout)
		}
	})

	t.Run("missing input is an I/O error", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		code := runMain([]string{"marker", "render", filepath.Join(t.TempDir(), "absent.md")}, env.Environment)
		if code != ExitIO {
			t.Errorf("exit code = %d, want %d", code, ExitIO)
		}
	})

	t.Run("invalid mode is a usage error", func(t *testing.T) {
		t.Parallel()

		in := writeMarkdown(t, t.TempDir(), "doc.md", "x\n")
		env := newTestEnv(t)
		code := runMain([]string{"marker", "render", in, "--highlight", "server"}, env.Environment)
		if code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
		if !strings.Contains(env.stderr.String(), "accepted values: off, local") {
			t.Errorf("stderr should carry a hint, got %q", env.stderr)
		}
	})

	t.Run("unreadable inline style is a usage error", func(t *testing.T) {
		t.Parallel()

		in := writeMarkdown(t, t.TempDir(), "doc.md", "x\n")
		env := newTestEnv(t)
		args := []string{"marker", "render", in, "--style", filepath.Join(t.TempDir(), "none.css"), "--inline-style"}
		if code := runMain(args, env.Environment); code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
	})

	t.Run("two inputs is a usage error", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		if code := runMain([]string{"marker", "render", "a.md", "b.md"}, env.Environment); code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
	})
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func TestRunMain_Export(t *testing.T) {
	t.Parallel()

	t.Run("format from output extension", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeMarkdown(t, dir, "doc.md", "# Export\n")
		out := filepath.Join(dir, "doc.html")
		env := newTestEnv(t)

		if code := runMain([]string{"marker", "export", in, "-o", out}, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		if got := readFile(t, out); !strings.Contains(got, "<h1>Export</h1>") {
			t.Errorf("output = %q", got)
		}
		if !strings.Contains(env.stdout.String(), in+" -> "+out) {
			t.Errorf("stdout = %q", env.stdout)
		}
	})

	t.Run("format flag wins over extension", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeMarkdown(t, dir, "doc.md", "# Export\n")
		out := filepath.Join(dir, "doc.html")
		pdf := &fakeBackend{content: "%PDF-flag"}
		env := newTestEnv(t, marker.WithBackend(marker.FormatPDF, pdf))

		if code := runMain([]string{"marker", "export", in, "-o", out, "--format", "pdf"}, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		if got := readFile(t, out); got != "%PDF-flag" {
			t.Errorf("output = %q, want PDF bytes", got)
		}
	})

	t.Run("default format is pdf next to input", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeMarkdown(t, dir, "notes.md", "[img](pic.png)\n")
		pdf := &fakeBackend{content: "%PDF-default"}
		env := newTestEnv(t, marker.WithBackend(marker.FormatPDF, pdf))

		if code := runMain([]string{"marker", "export", in}, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		if got := readFile(t, filepath.Join(dir, "notes.pdf")); got != "%PDF-default" {
			t.Errorf("output = %q", got)
		}
		seen := pdf.seen()
		if len(seen) != 1 || !strings.Contains(seen[0], `<base href="file://`) {
			t.Errorf("PDF backend should receive a <base> for the input, got %v", seen)
		}
	})

	t.Run("several inputs into a directory", func(t *testing.T) {
		t.Parallel()

		src := t.TempDir()
		outDir := t.TempDir()
		a := writeMarkdown(t, src, "a.md", "# A\n")
		b := writeMarkdown(t, src, "b.markdown", "# B\n")
		env := newTestEnv(t)

		args := []string{"marker", "export", a, b, "-o", outDir, "-f", "html", "-w", "2"}
		if code := runMain(args, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		for name, want := range map[string]string{"a.html": "<h1>A</h1>", "b.html": "<h1>B</h1>"} {
			if got := readFile(t, filepath.Join(outDir, name)); !strings.Contains(got, want) {
				t.Errorf("%s = %q", name, got)
			}
		}
		if !strings.Contains(env.stdout.String(), "2 exported, 0 failed") {
			t.Errorf("stdout = %q", env.stdout)
		}
	})

	t.Run("partial failure reports once and exits with I/O code", func(t *testing.T) {
		t.Parallel()

		src := t.TempDir()
		outDir := t.TempDir()
		a := writeMarkdown(t, src, "a.md", "# A\n")
		missing := filepath.Join(src, "gone.md")
		env := newTestEnv(t)

		code := runMain([]string{"marker", "export", a, missing, "-o", outDir, "-f", "html"}, env.Environment)
		if code != ExitIO {
			t.Errorf("exit code = %d, want %d", code, ExitIO)
		}
		if strings.Count(env.stderr.String(), "FAIL ") != 1 || strings.Contains(env.stderr.String(), "error:") {
			t.Errorf("failure should be reported once, stderr: %q", env.stderr)
		}
		if !strings.Contains(env.stdout.String(), "1 exported, 1 failed") {
			t.Errorf("stdout = %q", env.stdout)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()

		in := writeMarkdown(t, t.TempDir(), "doc.md", "x\n")
		env := newTestEnv(t)

		code := runMain([]string{"marker", "export", in, "--format", "pages"}, env.Environment)
		if code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
		if !strings.Contains(env.stderr.String(), "available formats") {
			t.Errorf("stderr = %q", env.stderr)
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeMarkdown(t, dir, "doc.md", "x\n")
		out := filepath.Join(dir, "doc.pdf")
		pdf := &fakeBackend{err: errors.New("chrome crashed")}
		env := newTestEnv(t, marker.WithBackend(marker.FormatPDF, pdf))

		code := runMain([]string{"marker", "export", in, "-o", out}, env.Environment)
		if code != ExitBackend {
			t.Errorf("exit code = %d, want %d", code, ExitBackend)
		}
		if _, err := os.Stat(out); !os.IsNotExist(err) {
			t.Errorf("failed export left %s behind", out)
		}
	})

	t.Run("pandoc unavailable", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeMarkdown(t, dir, "doc.md", "x\n")
		env := newTestEnv(t)

		pandoc := filepath.Join(dir, "no-pandoc")
		args := []string{"marker", "export", in, "-o", filepath.Join(dir, "doc.docx"), "--pandoc", pandoc}
		if code := runMain(args, env.Environment); code != ExitBackend {
			t.Errorf("exit code = %d, want %d (stderr: %s)", code, ExitBackend, env.stderr)
		}
		// The hint names the configured binary, not the default.
		if !strings.Contains(env.stderr.String(), "no executable at "+pandoc) {
			t.Errorf("stderr = %q, want hint naming %s", env.stderr, pandoc)
		}
	})

	t.Run("missing output directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		in := writeMarkdown(t, dir, "doc.md", "x\n")
		env := newTestEnv(t)

		out := filepath.Join(dir, "no", "such", "doc.html")
		if code := runMain([]string{"marker", "export", in, "-o", out}, env.Environment); code != ExitIO {
			t.Errorf("exit code = %d, want %d", code, ExitIO)
		}
	})

	t.Run("duplicate outputs rejected", func(t *testing.T) {
		t.Parallel()

		a := writeMarkdown(t, t.TempDir(), "doc.md", "a\n")
		b := writeMarkdown(t, t.TempDir(), "doc.md", "b\n")
		env := newTestEnv(t)

		code := runMain([]string{"marker", "export", a, b, "-o", t.TempDir(), "-f", "html"}, env.Environment)
		if code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
	})
}

// ---------------------------------------------------------------------------
// Configuration precedence
// ---------------------------------------------------------------------------

func TestRunMain_ConfigPrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "marker.yaml")
	cfgYAML := "render:\n  math: \"local\"\n  highlight: \"local\"\nassets:\n  baseURI: \"http://config.test/\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	in := writeMarkdown(t, dir, "doc.md", "```go\nx\n```\n")

	t.Run("config applies", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		if code := runMain([]string{"marker", "render", in, "-c", cfgPath}, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		out := env.stdout.String()
		if !strings.Contains(out, "http://config.test/highlight/highlight.min.js") {
			t.Errorf("config asset base not applied:\n%s", out)
		}
		if !strings.Contains(out, `class="language-go"`) {
			t.Errorf("highlight class missing:\n%s", out)
		}
	})

	t.Run("flag overrides config", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		args := []string{"marker", "render", in, "-c", cfgPath, "--highlight", "off", "--asset-base", "http://flag.test/"}
		if code := runMain(args, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		out := env.stdout.String()
		if strings.Contains(out, "language-go") || strings.Contains(out, "highlight.min.js") {
			t.Errorf("--highlight off should win:\n%s", out)
		}
		if !strings.Contains(out, "http://flag.test/katex/") {
			t.Errorf("--asset-base should win:\n%s", out)
		}
	})

	t.Run("env config path", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.vars["MARKER_CONFIG"] = cfgPath
		if code := runMain([]string{"marker", "render", in}, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		if !strings.Contains(env.stdout.String(), "http://config.test/") {
			t.Errorf("MARKER_CONFIG not honored:\n%s", env.stdout)
		}
	})

	t.Run("missing config", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		code := runMain([]string{"marker", "render", in, "-c", filepath.Join(dir, "absent.yaml")}, env.Environment)
		if code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
		if !strings.Contains(env.stderr.String(), "--config") {
			t.Errorf("stderr should carry a config hint, got %q", env.stderr)
		}
	})

	t.Run("unknown env var warns", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.vars["MARKER_STYEL"] = "x.css"
		if code := runMain([]string{"marker", "render", in}, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		if !strings.Contains(env.stderr.String(), "MARKER_STYEL") {
			t.Errorf("stderr = %q", env.stderr)
		}
	})
}

// ---------------------------------------------------------------------------
// config
// ---------------------------------------------------------------------------

func TestRunMain_Config(t *testing.T) {
	t.Parallel()

	t.Run("prints merged configuration", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfgPath := filepath.Join(dir, "marker.yaml")
		if err := os.WriteFile(cfgPath, []byte("export:\n  format: \"docx\"\n  workers: 2\n"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		env := newTestEnv(t)
		env.vars["MARKER_OUTPUT_DIR"] = "/env/out"

		args := []string{"marker", "config", "-c", cfgPath, "--math", "local", "-w", "4"}
		if code := runMain(args, env.Environment); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
		}
		out := env.stdout.String()
		for _, want := range []string{"math: local", "format: docx", "workers: 4", "outputDir: /env/out", "highlight:"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("rejects arguments", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		if code := runMain([]string{"marker", "config", "a.md"}, env.Environment); code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
	})

	t.Run("invalid values fail", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		if code := runMain([]string{"marker", "config", "--zoom", "12"}, env.Environment); code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
	})
}
