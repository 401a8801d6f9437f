package assets

import "errors"

// Sentinel errors for stylesheet and bundle lookups.
var (
	// ErrStyleNotFound: no stylesheet by that name, embedded or on disk.
	ErrStyleNotFound = errors.New("style not found")

	// ErrAssetNotFound: a KaTeX, highlight.js or mermaid file is absent from
	// the asset directory.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInvalidAssetName: the name is empty, absolute, or uses backslashes.
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath: the asset directory is missing or not a directory.
	ErrInvalidBasePath = errors.New("invalid asset directory")

	// ErrAssetRead: the file exists but could not be read.
	ErrAssetRead = errors.New("failed to read asset")

	// ErrPathTraversal: the name resolves outside the asset directory.
	ErrPathTraversal = errors.New("path traversal detected")
)
