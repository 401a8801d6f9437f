package fileutil_test

// Notes:
// - The WriteString and Close error branches in WriteTempFile are not tested
//   because triggering disk write failures is platform-specific.
// - StagingFile permission failures (read-only directories) are skipped when
//   running as root, where the check does not hold.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bertob/marker/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{name: "valid extension html", extension: "html", wantErr: nil},
		{name: "valid extension docx", extension: "docx", wantErr: nil},
		{name: "empty extension", extension: "", wantErr: fileutil.ErrExtensionEmpty},
		{name: "forward slash path traversal", extension: "../etc/passwd", wantErr: fileutil.ErrExtensionPathTraversal},
		{name: "backslash path traversal", extension: "..\\windows", wantErr: fileutil.ErrExtensionPathTraversal},
		{name: "null byte injection", extension: "html\x00exe", wantErr: fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile - Temporary file creation and cleanup
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	path, cleanup, err := fileutil.WriteTempFile("<html><body>x</body></html>", "html")
	if err != nil {
		t.Fatalf("WriteTempFile() error = %v", err)
	}

	if !strings.Contains(filepath.Base(path), "marker-") {
		t.Errorf("path %q does not contain prefix 'marker-'", path)
	}
	if !strings.HasSuffix(path, ".html") {
		t.Errorf("path %q does not have extension .html", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read temp file: %v", err)
	}
	if string(data) != "<html><body>x</body></html>" {
		t.Errorf("file content = %q", string(data))
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("temp file still exists after cleanup at %s", path)
	}
}

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	_, _, err := fileutil.WriteTempFile("x", "../foo")
	if !errors.Is(err, fileutil.ErrExtensionPathTraversal) {
		t.Errorf("WriteTempFile() error = %v, want ErrExtensionPathTraversal", err)
	}
}

// ---------------------------------------------------------------------------
// TestStagingFile - Atomic replace of the target file
// ---------------------------------------------------------------------------

func TestStagingFile_Commit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "out.pdf")

	staging, err := fileutil.NewStagingFile(target)
	if err != nil {
		t.Fatalf("NewStagingFile() error = %v", err)
	}
	if filepath.Dir(staging.Path) != dir {
		t.Errorf("staging file in %q, want %q", filepath.Dir(staging.Path), dir)
	}
	if fileutil.FileExists(target) {
		t.Fatal("target must not exist before commit")
	}

	if err := os.WriteFile(staging.Path, []byte("%PDF-1.7"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := staging.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	staging.Discard()

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("reading target: %v", err)
	}
	if string(data) != "%PDF-1.7" {
		t.Errorf("target content = %q", data)
	}
	if _, err := os.Stat(staging.Path); !os.IsNotExist(err) {
		t.Error("staging file should be gone after commit")
	}
}

func TestStagingFile_Discard(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "out.docx")

	staging, err := fileutil.NewStagingFile(target)
	if err != nil {
		t.Fatalf("NewStagingFile() error = %v", err)
	}
	staging.Discard()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("directory should be empty after discard, found %d entries", len(entries))
	}
}

func TestNewStagingFile_Errors(t *testing.T) {
	t.Parallel()

	if _, err := fileutil.NewStagingFile(""); !errors.Is(err, fileutil.ErrEmptyPath) {
		t.Errorf("empty path error = %v, want ErrEmptyPath", err)
	}

	missing := filepath.Join(t.TempDir(), "missing", "out.pdf")
	if _, err := fileutil.NewStagingFile(missing); err == nil {
		t.Error("expected error for missing directory")
	}
}

// ---------------------------------------------------------------------------
// TestFileExists / TestIsURL / TestFileURI
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.css")
	if err := os.WriteFile(file, []byte("body{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	if !fileutil.FileExists(file) {
		t.Error("FileExists(file) = false, want true")
	}
	if fileutil.FileExists(dir) {
		t.Error("FileExists(dir) = true, want false")
	}
	if fileutil.FileExists(filepath.Join(dir, "nope")) {
		t.Error("FileExists(missing) = true, want false")
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com/a.css", true},
		{"http://example.com", true},
		{"file:///tmp/a.css", false},
		{"/tmp/a.css", false},
	}
	for _, tt := range tests {
		if got := fileutil.IsURL(tt.in); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFileURI(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	got, err := fileutil.FileURI(filepath.Join(dir, "doc.md"))
	if err != nil {
		t.Fatalf("FileURI() error = %v", err)
	}
	if !strings.HasPrefix(got, "file://") {
		t.Errorf("FileURI() = %q, want file:// prefix", got)
	}
	if !strings.HasSuffix(got, "/doc.md") {
		t.Errorf("FileURI() = %q, want /doc.md suffix", got)
	}
}
