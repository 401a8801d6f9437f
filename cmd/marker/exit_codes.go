package main

import (
	"errors"
	"os"

	"github.com/bertob/marker"
	"github.com/bertob/marker/internal/config"
)

// Exit codes for the marker CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, mode, format or stylesheet
	ExitIO      = 3 // Input unreadable, output not writable
	ExitBackend = 4 // Chrome or pandoc errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
// Backend errors are checked first because an *ExportError may also wrap
// an I/O cause.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Backend errors (exit 4)
	if errors.Is(err, marker.ErrExport) ||
		errors.Is(err, marker.ErrBackendUnavailable) ||
		errors.Is(err, marker.ErrBrowserConnect) ||
		errors.Is(err, marker.ErrPageLoad) ||
		errors.Is(err, marker.ErrPDFGeneration) {
		return ExitBackend
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		marker.IsConfigError(err) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, marker.ErrIO) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	return ExitGeneral
}
