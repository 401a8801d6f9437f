package pipeline

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Renderer produces complete HTML documents from parsed markdown.
// It keeps one goldmark instance per mode combination; all of them are safe
// for concurrent use once built.
type Renderer struct {
	mu      sync.Mutex
	engines map[FeatureModes]goldmark.Markdown
}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{engines: make(map[FeatureModes]goldmark.Markdown)}
}

func (r *Renderer) engine(modes FeatureModes) goldmark.Markdown {
	r.mu.Lock()
	defer r.mu.Unlock()

	if md, ok := r.engines[modes]; ok {
		return md
	}
	md := goldmark.New(
		goldmark.WithExtensions(syntaxExtensions()...),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
			gmhtml.WithXHTML(),
			renderer.WithNodeRenderers(
				util.Prioritized(&nodeRenderer{modes: modes}, 100),
			),
		),
	)
	r.engines[modes] = md
	return md
}

// RenderBody renders only the document body.
func (r *Renderer) RenderBody(doc *ParsedDocument, modes FeatureModes) (string, error) {
	var buf bytes.Buffer
	if err := r.engine(modes).Renderer().Render(&buf, doc.Source, doc.Root); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// Render wraps the body in the document template. The output depends only on
// its arguments.
func (r *Renderer) Render(doc *ParsedDocument, ext Extensions, style StyleOutput) (string, error) {
	body, err := r.RenderBody(doc, ext.Modes)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(body) + 512)
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	sb.WriteString("<title>")
	sb.WriteString(html.EscapeString(doc.Title()))
	sb.WriteString("</title>\n")
	if style.Fragment != "" {
		sb.WriteString(style.Fragment)
		sb.WriteByte('\n')
	}
	for _, frag := range ext.Head {
		sb.WriteString(frag)
		sb.WriteByte('\n')
	}
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(body)
	sb.WriteString("</body>\n</html>\n")
	return sb.String(), nil
}

// nodeRenderer renders the custom kinds and replaces the stock fenced code
// renderer so the language class follows the highlight mode.
type nodeRenderer struct {
	modes FeatureModes
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
	reg.Register(KindMathSpan, r.renderMathSpan)
	reg.Register(KindMathBlock, r.renderMathBlock)
	reg.Register(KindDiagramBlock, r.renderDiagram)
}

func (r *nodeRenderer) renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	_, _ = w.WriteString("<pre><code")
	if r.modes.Highlight == ModeLocal {
		if lang := NormalizeLanguage(string(n.Language(source))); lang != "" {
			_, _ = w.WriteString(` class="language-`)
			gmhtml.DefaultWriter.RawWrite(w, []byte(lang))
			_ = w.WriteByte('"')
		}
	}
	_ = w.WriteByte('>')
	writeLines(w, source, n)
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderMathSpan(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MathSpan)
	delim := n.Delimiter()

	if r.modes.Math != ModeLocal {
		_, _ = w.WriteString(delim)
		gmhtml.DefaultWriter.RawWrite(w, n.Literal)
		_, _ = w.WriteString(delim)
		return ast.WalkSkipChildren, nil
	}

	if n.Display {
		_, _ = w.WriteString(`<span class="math display">`)
	} else {
		_, _ = w.WriteString(`<span class="math">`)
	}
	_, _ = w.WriteString(delim)
	gmhtml.DefaultWriter.RawWrite(w, n.Literal)
	_, _ = w.WriteString(delim)
	_, _ = w.WriteString("</span>")
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderMathBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MathBlock)
	if r.modes.Math == ModeLocal {
		_, _ = w.WriteString("<div class=\"math\">$$\n")
		writeLines(w, source, node)
		_, _ = w.WriteString("$$</div>\n")
		return ast.WalkSkipChildren, nil
	}
	// Off mode echoes the source, so an unclosed block gets no closing fence.
	_, _ = w.WriteString("<p>$$\n")
	writeLines(w, source, node)
	if n.Closed {
		_, _ = w.WriteString("$$")
	}
	_, _ = w.WriteString("</p>\n")
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderDiagram(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	if r.modes.Diagram == ModeLocal {
		_, _ = w.WriteString("<div class=\"mermaid\">\n")
		writeLines(w, source, node)
		_, _ = w.WriteString("</div>\n")
	} else {
		_, _ = w.WriteString("<pre><code>")
		writeLines(w, source, node)
		_, _ = w.WriteString("</code></pre>\n")
	}
	return ast.WalkSkipChildren, nil
}

// writeLines writes a raw block's lines escaped, with a trailing newline on
// the last one so closing tags land on their own line.
func writeLines(w util.BufWriter, source []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		gmhtml.DefaultWriter.RawWrite(w, line.Value(source))
	}
	if l := lines.Len(); l > 0 {
		seg := lines.At(l - 1)
		last := seg.Value(source)
		if len(last) == 0 || last[len(last)-1] != '\n' {
			_ = w.WriteByte('\n')
		}
	}
}

// Compile-time interface check.
var _ renderer.NodeRenderer = (*nodeRenderer)(nil)
