package pipeline

import (
	"errors"
	"fmt"
	"html"
	"os"

	"github.com/bertob/marker/internal/assets"
	"github.com/bertob/marker/internal/fileutil"
)

// ErrStyleLoad is returned when an inline stylesheet cannot be read.
var ErrStyleLoad = errors.New("stylesheet load failed")

// StyleOutput is the head fragment for the document stylesheet.
// Source is the href for linked styles, or the file (or "default") that was
// embedded for inline styles.
type StyleOutput struct {
	Fragment string
	Inline   bool
	Source   string
}

// ResolveStyle decides how the stylesheet at path reaches the document.
// An empty path selects the built-in stylesheet, served by loader when inline
// and linked under assetBase otherwise. Linked user stylesheets that cannot be
// resolved fall back to the default link; inline ones fail with ErrStyleLoad.
func ResolveStyle(path string, inline bool, loader assets.StyleLoader, assetBase string) (StyleOutput, error) {
	if path == "" {
		return resolveDefaultStyle(inline, loader, assetBase)
	}

	if !inline {
		return linkStyle(path, assetBase), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-provided stylesheet
	if err != nil {
		return StyleOutput{}, fmt.Errorf("%w: %v", ErrStyleLoad, err)
	}
	return StyleOutput{
		Fragment: styleBlock(string(data)),
		Inline:   true,
		Source:   path,
	}, nil
}

func resolveDefaultStyle(inline bool, loader assets.StyleLoader, assetBase string) (StyleOutput, error) {
	if !inline {
		href := NormalizeAssetBase(assetBase) + assets.StylePath(assets.DefaultStyleName)
		return StyleOutput{Fragment: styleLink(href), Source: href}, nil
	}
	if loader == nil {
		loader = assets.NewEmbeddedLoader()
	}
	css, err := loader.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return StyleOutput{}, fmt.Errorf("%w: %v", ErrStyleLoad, err)
	}
	return StyleOutput{
		Fragment: styleBlock(css),
		Inline:   true,
		Source:   assets.DefaultStyleName,
	}, nil
}

// linkStyle never fails: anything it cannot turn into an href becomes the
// default stylesheet link.
func linkStyle(path, assetBase string) StyleOutput {
	if fileutil.IsURL(path) {
		return StyleOutput{Fragment: styleLink(path), Source: path}
	}
	if fileutil.FileExists(path) {
		if href, err := fileutil.FileURI(path); err == nil {
			return StyleOutput{Fragment: styleLink(href), Source: href}
		}
	}
	out, _ := resolveDefaultStyle(false, nil, assetBase)
	return out
}

func styleLink(href string) string {
	return `<link rel="stylesheet" href="` + html.EscapeString(href) + `">`
}

func styleBlock(css string) string {
	return "<style>\n" + sanitizeCSS(css) + "\n</style>"
}
