package assets

import "errors"

// AssetResolver combines a local asset directory with the embedded styles.
// The directory wins; embedded assets fill in what it lacks.
type AssetResolver struct {
	custom   *FilesystemLoader // nil if no directory configured
	embedded *EmbeddedLoader
}

// NewAssetResolver creates an AssetResolver.
// If basePath is empty, only embedded assets are used.
// Returns error if basePath is set but invalid.
func NewAssetResolver(basePath string) (*AssetResolver, error) {
	r := &AssetResolver{embedded: NewEmbeddedLoader()}

	if basePath != "" {
		fsLoader, err := NewFilesystemLoader(basePath)
		if err != nil {
			return nil, err
		}
		r.custom = fsLoader
	}

	return r, nil
}

// LoadStyle loads a CSS style, trying the asset directory first.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	if r.custom != nil {
		css, err := r.custom.LoadStyle(name)
		if err == nil || !errors.Is(err, ErrStyleNotFound) {
			return css, err
		}
	}
	return r.embedded.LoadStyle(name)
}

// ReadAsset reads a bundle file, trying the asset directory first.
func (r *AssetResolver) ReadAsset(rel string) ([]byte, error) {
	if r.custom != nil {
		data, err := r.custom.ReadAsset(rel)
		// Only fall back for "not found", not validation or I/O errors
		if err == nil || !errors.Is(err, ErrAssetNotFound) {
			return data, err
		}
	}
	return r.embedded.ReadAsset(rel)
}

// HasCustomLoader returns true if a local asset directory is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

// MissingBundles reports, per feature, the bundle files the asset directory lacks.
// Without a directory every bundle file is reported missing.
func (r *AssetResolver) MissingBundles() map[Feature][]string {
	out := make(map[Feature][]string)
	for _, f := range Features() {
		files := BundleFiles(f)
		var missing []string
		if r.custom == nil {
			missing = files
		} else {
			missing = r.custom.Missing(files)
		}
		if len(missing) > 0 {
			out[f] = missing
		}
	}
	return out
}

// Compile-time interface checks.
var (
	_ StyleLoader = (*AssetResolver)(nil)
	_ AssetReader = (*AssetResolver)(nil)
)
