package pipeline

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// DiagramLanguages lists fence info strings rendered as diagrams.
var DiagramLanguages = []string{"mermaid"}

// DiagramBlock is a fenced block whose language names a diagram syntax.
// It keeps the fence's lines so the source is never altered.
type DiagramBlock struct {
	ast.BaseBlock
	Language string
}

// Kind implements ast.Node.
func (n *DiagramBlock) Kind() ast.NodeKind { return KindDiagramBlock }

// IsRaw implements ast.Node.
func (n *DiagramBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *DiagramBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Language": n.Language}, nil)
}

// diagramTransformer swaps diagram fences for DiagramBlock nodes.
type diagramTransformer struct{}

func (t *diagramTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var fences []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fcb, ok := n.(*ast.FencedCodeBlock); ok {
			if isDiagramLanguage(fcb.Language(source)) {
				fences = append(fences, fcb)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	// Replace after walking; mutating during the walk would skip siblings.
	for _, fcb := range fences {
		d := &DiagramBlock{Language: string(bytes.ToLower(fcb.Language(source)))}
		d.SetLines(fcb.Lines())
		parent := fcb.Parent()
		parent.ReplaceChild(parent, fcb, d)
	}
}

func isDiagramLanguage(lang []byte) bool {
	for _, l := range DiagramLanguages {
		if bytes.EqualFold(lang, []byte(l)) {
			return true
		}
	}
	return false
}
