package assets

// StyleLoader defines the contract for loading built-in or bundled stylesheets.
type StyleLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadStyle(name string) (string, error)
}

// AssetReader reads any file of the asset tree by its slash-separated path.
type AssetReader interface {
	ReadAsset(rel string) ([]byte, error)
}
