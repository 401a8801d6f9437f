// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
	ErrEmptyPath              = errors.New("path cannot be empty")
)

// FilePermissions is used for every file written on behalf of the caller.
const FilePermissions = 0o644 // rw-r--r--

// WriteTempFile creates a temporary file with the given content and extension.
// Returns the file path and a cleanup function to remove the file.
func WriteTempFile(content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}

	tmpFile, err := os.CreateTemp("", "marker-*."+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	path = tmpFile.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, writeErr := tmpFile.WriteString(content); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", closeErr)
	}

	return path, cleanup, nil
}

// StagingFile reserves an empty file next to target so that the final rename
// stays on one filesystem. Commit moves it over target; Discard removes it.
// Discard after a successful Commit is a no-op.
type StagingFile struct {
	Path      string
	target    string
	committed bool
}

// NewStagingFile creates the staging file in target's directory.
// The directory must already exist.
func NewStagingFile(target string) (*StagingFile, error) {
	if target == "" {
		return nil, ErrEmptyPath
	}

	dir, name := filepath.Split(target)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+name+".marker-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("closing staging file: %w", err)
	}

	return &StagingFile{Path: path, target: target}, nil
}

// Commit renames the staging file over its target.
func (s *StagingFile) Commit() error {
	// CreateTemp uses 0600; exported documents are meant to be shared.
	if err := os.Chmod(s.Path, FilePermissions); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(s.Path, s.target); err != nil {
		return fmt.Errorf("renaming %s: %w", s.Path, err)
	}
	s.committed = true
	return nil
}

// Discard removes the staging file unless it was committed.
func (s *StagingFile) Discard() {
	if s.committed {
		return
	}
	_ = os.Remove(s.Path)
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsURL returns true if the string looks like a URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// FileURI converts a filesystem path to an absolute file:// URI.
func FileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
