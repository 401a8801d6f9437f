package assets

import (
	"fmt"
	"path"
	"strings"
)

// ValidateAssetName checks that a style name is safe for use as a filename.
// Returns ErrInvalidAssetName if the name is empty or contains path separators,
// dots (which could allow extension manipulation), or traversal characters.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// ValidateAssetPath checks a slash-separated path relative to the asset root.
// Absolute paths, backslashes, NUL bytes and ".." segments are rejected.
func ValidateAssetPath(rel string) error {
	if rel == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidAssetName)
	}
	if strings.ContainsAny(rel, "\\\x00") || strings.HasPrefix(rel, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, rel)
	}
	if path.Clean(rel) != rel {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, rel)
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidAssetName, rel)
		}
	}
	return nil
}
