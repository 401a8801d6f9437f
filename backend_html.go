package marker

import (
	"context"
	"os"

	"github.com/bertob/marker/internal/fileutil"
)

// htmlBackend writes the rendered document verbatim.
type htmlBackend struct{}

func (htmlBackend) Convert(ctx context.Context, html, outputPath string) error {
	// #nosec G306 -- exported documents are meant to be readable
	return os.WriteFile(outputPath, []byte(html), fileutil.FilePermissions)
}

var _ Backend = htmlBackend{}
