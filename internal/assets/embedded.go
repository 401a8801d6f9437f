package assets

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed styles/*.css
var styles embed.FS

// EmbeddedLoader loads stylesheets compiled into the binary.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle loads a CSS style from embedded assets by name.
// The name should not include the .css extension.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := styles.ReadFile(StylePath(name))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}

	return string(content), nil
}

// ReadAsset serves embedded files under styles/; everything else lives only
// in a local asset directory.
func (e *EmbeddedLoader) ReadAsset(rel string) ([]byte, error) {
	if err := ValidateAssetPath(rel); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(rel, stylesDir) {
		return nil, fmt.Errorf("%w: %q", ErrAssetNotFound, rel)
	}
	content, err := styles.ReadFile(rel)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrAssetNotFound, rel)
	}
	return content, nil
}

// Compile-time interface checks.
var (
	_ StyleLoader = (*EmbeddedLoader)(nil)
	_ AssetReader = (*EmbeddedLoader)(nil)
)
