package assets

// DefaultStyleName identifies the built-in stylesheet used when the caller
// gives no stylesheet path.
const DefaultStyleName = "default"

// Bundle file locations, relative to the asset base URI.
const (
	KaTeXStylesheet = "katex/katex.min.css"
	KaTeXScript     = "katex/katex.min.js"
	KaTeXAutoRender = "katex/contrib/auto-render.min.js"
	HighlightStyle  = "highlight/styles/default.min.css"
	HighlightScript = "highlight/highlight.min.js"
	MermaidScript   = "mermaid/mermaid.min.js"
	stylesDir       = "styles/"
	styleExtension  = ".css"
)

// Feature names a client-side rendering bundle.
type Feature string

// Bundled features.
const (
	FeatureMath      Feature = "math"
	FeatureHighlight Feature = "highlight"
	FeatureDiagram   Feature = "diagram"
)

// Features lists every bundle in the order their fragments appear in a head.
func Features() []Feature {
	return []Feature{FeatureMath, FeatureHighlight, FeatureDiagram}
}

// BundleFiles returns the files a feature needs, in load order.
func BundleFiles(f Feature) []string {
	switch f {
	case FeatureMath:
		return []string{KaTeXStylesheet, KaTeXScript, KaTeXAutoRender}
	case FeatureHighlight:
		return []string{HighlightStyle, HighlightScript}
	case FeatureDiagram:
		return []string{MermaidScript}
	}
	return nil
}

// StylePath returns the asset-relative path of a named stylesheet.
func StylePath(name string) string {
	return stylesDir + name + styleExtension
}
