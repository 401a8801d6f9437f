package pipeline

import (
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/bertob/marker/internal/assets"
)

// Mode selects how an optional feature is rendered.
type Mode uint8

// Feature modes.
const (
	ModeOff Mode = iota
	ModeLocal
)

// FeatureModes holds one mode per optional feature.
type FeatureModes struct {
	Math      Mode
	Highlight Mode
	Diagram   Mode
}

// DefaultAssetBase is where packaged installs keep the client-side bundles.
const DefaultAssetBase = "file:///usr/share/marker/"

// Extensions is the outcome of ResolveExtensions: head fragments in a fixed
// order plus the modes the body renderer applies.
type Extensions struct {
	Head  []string
	Modes FeatureModes
}

// mathInit renders only inside elements the renderer marked as math, so
// dollar signs in ordinary text are never touched.
const mathInit = `<script>document.addEventListener("DOMContentLoaded",function(){` +
	`document.querySelectorAll(".math").forEach(function(el){renderMathInElement(el,{delimiters:[` +
	`{left:"$$",right:"$$",display:true},{left:"$",right:"$",display:false}],throwOnError:false});});});</script>`

const highlightInit = `<script>hljs.highlightAll();</script>`

const diagramInit = `<script>mermaid.initialize({startOnLoad:true});</script>`

// ResolveExtensions builds the head fragments for every feature in local mode.
// assetBase is the URI prefix of the bundle directory.
func ResolveExtensions(modes FeatureModes, assetBase string) Extensions {
	base := NormalizeAssetBase(assetBase)
	ext := Extensions{Modes: modes}

	if modes.Math == ModeLocal {
		ext.Head = append(ext.Head,
			stylesheetLink(base+assets.KaTeXStylesheet),
			scriptTag(base+assets.KaTeXScript, true),
			scriptTag(base+assets.KaTeXAutoRender, true),
			mathInit,
		)
	}
	if modes.Highlight == ModeLocal {
		ext.Head = append(ext.Head,
			stylesheetLink(base+assets.HighlightStyle),
			scriptTag(base+assets.HighlightScript, false),
			highlightInit,
		)
	}
	if modes.Diagram == ModeLocal {
		ext.Head = append(ext.Head,
			scriptTag(base+assets.MermaidScript, false),
			diagramInit,
		)
	}

	return ext
}

// NormalizeAssetBase applies the default and guarantees a trailing slash.
func NormalizeAssetBase(base string) string {
	if base == "" {
		return DefaultAssetBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func stylesheetLink(href string) string {
	return `<link rel="stylesheet" href="` + html.EscapeString(href) + `">`
}

func scriptTag(src string, deferred bool) string {
	if deferred {
		return `<script defer src="` + html.EscapeString(src) + `"></script>`
	}
	return `<script src="` + html.EscapeString(src) + `"></script>`
}

// NormalizeLanguage maps a fence info string to the canonical alias chroma
// knows it by ("golang" → "go", "py" → "python"), so the client highlighter
// sees one class per language. Unknown languages pass through lowercased.
func NormalizeLanguage(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if l == "" {
		return ""
	}
	lexer := lexers.Get(l)
	if lexer == nil {
		return l
	}
	cfg := lexer.Config()
	if len(cfg.Aliases) > 0 {
		return cfg.Aliases[0]
	}
	return strings.ToLower(cfg.Name)
}
