package marker

import (
	"errors"
	"fmt"

	"github.com/bertob/marker/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	// ErrStyleLoad: an inline stylesheet could not be read.
	ErrStyleLoad = pipeline.ErrStyleLoad

	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrExport            = errors.New("export failed")
	ErrIO                = errors.New("output file I/O failed")
	ErrInvalidMode       = errors.New("invalid feature mode")

	// Backend environment errors, always wrapped in an *ExportError.
	ErrBackendUnavailable = errors.New("export backend unavailable")
	ErrBrowserConnect     = errors.New("failed to connect to browser")
	ErrPageLoad           = errors.New("failed to load page")
	ErrPDFGeneration      = errors.New("PDF generation failed")

	ErrInvalidAssetPath = errors.New("invalid asset path")

	// ErrClosed: ExportAsync was called after Close.
	ErrClosed = errors.New("converter closed")
)

// ExportError reports a backend failure. It matches ErrExport and whatever
// the backend returned.
type ExportError struct {
	Format     Format
	Path       string
	Diagnostic string
	Err        error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("exporting %s to %s: %s", e.Format, e.Path, e.Diagnostic)
}

// Unwrap exposes ErrExport and the backend cause to errors.Is and errors.As.
func (e *ExportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExport}
	}
	return []error{ErrExport, e.Err}
}

// IsConfigError reports whether retrying with the same input is pointless
// until the caller changes its configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrStyleLoad) ||
		errors.Is(err, ErrInvalidAssetPath)
}
