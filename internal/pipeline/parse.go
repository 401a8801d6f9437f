package pipeline

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// crlfOrCR matches the line endings normalized before parsing.
var crlfOrCR = regexp.MustCompile(`\r\n?`)

// defaultTitle is used when the document has no level-1 heading.
const defaultTitle = "Document"

// ParsedDocument is the tree produced by Parse. Source is the normalized
// input the tree's segments point into.
type ParsedDocument struct {
	Root   ast.Node
	Source []byte
}

// Title returns the text of the first level-1 heading, or "Document".
func (d *ParsedDocument) Title() string {
	var title []byte
	found := false
	_ = ast.Walk(d.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			title = plainText(h, d.Source)
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	title = bytes.TrimSpace(title)
	if !found || len(title) == 0 {
		return defaultTitle
	}
	return string(title)
}

// plainText concatenates the literal text below n.
func plainText(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *MathSpan:
			buf.WriteString(v.Delimiter())
			buf.Write(v.Literal)
			buf.WriteString(v.Delimiter())
		}
		return ast.WalkContinue, nil
	})
	return buf.Bytes()
}

// markerSyntax registers math and diagram recognition with goldmark.
type markerSyntax struct{}

// Extend implements goldmark.Extender.
func (e *markerSyntax) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(&mathInlineParser{}, 500),
		),
		parser.WithBlockParsers(
			// Ahead of fenced code (700) so "$$" lines never become paragraphs
			util.Prioritized(&mathBlockParser{}, 690),
		),
		parser.WithASTTransformers(
			util.Prioritized(&diagramTransformer{}, 100),
		),
	)
}

// syntaxExtensions is shared by the parser and every renderer so that each
// node kind the parser can emit has an HTML renderer registered.
func syntaxExtensions() []goldmark.Extender {
	return []goldmark.Extender{
		extension.Table,
		extension.Strikethrough,
		extension.Linkify,
		extension.TaskList,
		&markerSyntax{},
	}
}

// Parser turns markdown into a ParsedDocument. Safe for concurrent use.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a Parser with CommonMark plus tables, strikethrough,
// autolinks, task lists, math and diagram fences.
func NewParser() *Parser {
	return &Parser{md: goldmark.New(goldmark.WithExtensions(syntaxExtensions()...))}
}

// Parse never fails: malformed constructs degrade to literal text and invalid
// UTF-8 is replaced with U+FFFD, since the page declares charset utf-8.
func (p *Parser) Parse(src []byte) *ParsedDocument {
	normalized := crlfOrCR.ReplaceAll(bytes.ToValidUTF8(src, []byte("\uFFFD")), []byte("\n"))
	root := p.md.Parser().Parse(text.NewReader(normalized))
	return &ParsedDocument{Root: root, Source: normalized}
}
