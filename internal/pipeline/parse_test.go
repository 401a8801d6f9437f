package pipeline

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// Notes:
// - Node kinds are checked by walking the tree; rendering is covered in
//   render_test.go.
// - Rejected math delimiters must leave no MathSpan behind.

// collectKinds walks the tree and counts nodes per kind.
func collectKinds(t *testing.T, doc *ParsedDocument) map[ast.NodeKind]int {
	t.Helper()

	counts := make(map[ast.NodeKind]int)
	err := ast.Walk(doc.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			counts[n.Kind()]++
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return counts
}

func linesValue(n ast.Node, source []byte) string {
	var out []byte
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, seg.Value(source)...)
	}
	return string(out)
}

func firstMathSpan(doc *ParsedDocument) *MathSpan {
	var found *MathSpan
	_ = ast.Walk(doc.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if m, ok := n.(*MathSpan); ok && entering {
			found = m
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

// ---------------------------------------------------------------------------
// Inline math
// ---------------------------------------------------------------------------

func TestParse_InlineMath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		wantMath    bool
		wantLiteral string
		wantDisplay bool
	}{
		{name: "simple span", input: "Euler: $e^{i\\pi}+1=0$ done", wantMath: true, wantLiteral: "e^{i\\pi}+1=0"},
		{name: "display span", input: "see $$x^2$$ here", wantMath: true, wantLiteral: "x^2", wantDisplay: true},
		{name: "opening followed by space", input: "costs $ 5 and $6", wantMath: false},
		{name: "closing preceded by space", input: "a $x $ b", wantMath: false},
		{name: "empty span", input: "a $$ b", wantMath: false},
		{name: "unterminated", input: "just $x here", wantMath: false},
		{name: "escaped dollar", input: `price \$5 and \$6`, wantMath: false},
		{name: "dollar before digit does not close", input: "from $5 to $6", wantMath: false},
		{name: "escaped dollar inside span", input: `$a\$b$`, wantMath: true, wantLiteral: `a\$b`},
		{name: "inside code span", input: "`$x$`", wantMath: false},
		{name: "span after unclosed openers", input: "$5 $5 and $x$", wantMath: true, wantLiteral: "x"},
		{name: "triple dollar", input: "a $$$ b", wantMath: false},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := p.Parse([]byte(tt.input))
			m := firstMathSpan(doc)
			if !tt.wantMath {
				if m != nil {
					t.Fatalf("unexpected MathSpan %q", m.Literal)
				}
				return
			}
			if m == nil {
				t.Fatal("expected MathSpan, got none")
			}
			if string(m.Literal) != tt.wantLiteral {
				t.Errorf("Literal = %q, want %q", m.Literal, tt.wantLiteral)
			}
			if m.Display != tt.wantDisplay {
				t.Errorf("Display = %v, want %v", m.Display, tt.wantDisplay)
			}
		})
	}
}

func TestParse_UnclosedOpenersPerLine(t *testing.T) {
	t.Parallel()

	// The second line must still be scanned after the first gives up.
	doc := NewParser().Parse([]byte("$5 $5 $5\n$y$ and $$z$$\n"))
	var spans []string
	_ = ast.Walk(doc.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if m, ok := n.(*MathSpan); ok && entering {
			spans = append(spans, m.Delimiter()+string(m.Literal))
		}
		return ast.WalkContinue, nil
	})
	if strings.Join(spans, ",") != "$y,$$z" {
		t.Errorf("spans = %q, want [$y $$z]", spans)
	}
}

func TestParse_LongLineOfUnclosedDollars(t *testing.T) {
	t.Parallel()

	// Each opener rescanning the rest of the line takes seconds here.
	src := []byte(strings.Repeat("$5 ", 40000) + "\n$$" + strings.Repeat("x $5 ", 40000))
	start := time.Now()
	doc := NewParser().Parse(src)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Parse took %v on a %d byte line", elapsed, len(src))
	}
	if m := firstMathSpan(doc); m != nil {
		t.Errorf("unexpected MathSpan %q", m.Literal)
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	t.Parallel()

	doc := NewParser().Parse([]byte("# T\xff\n\nok\xc3\n"))
	if !utf8.Valid(doc.Source) {
		t.Errorf("Source is not valid UTF-8: %q", doc.Source)
	}
	if doc.Title() != "T\uFFFD" {
		t.Errorf("Title() = %q", doc.Title())
	}
}

// ---------------------------------------------------------------------------
// Blocks
// ---------------------------------------------------------------------------

func TestParse_BlockKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		kind  ast.NodeKind
		want  int
	}{
		{name: "math block", input: "$$\na+b\n$$\n", kind: KindMathBlock, want: 1},
		{name: "math block interrupts paragraph", input: "text\n$$\nx\n$$\n", kind: KindMathBlock, want: 1},
		{name: "unterminated math block", input: "$$\nx\n", kind: KindMathBlock, want: 1},
		{name: "mermaid fence", input: "```mermaid\ngraph TD; A-->B\n```\n", kind: KindDiagramBlock, want: 1},
		{name: "mermaid fence case-insensitive", input: "```Mermaid\ngraph TD\n```\n", kind: KindDiagramBlock, want: 1},
		{name: "mermaid fence leaves no code block", input: "```mermaid\ngraph TD\n```\n", kind: ast.KindFencedCodeBlock, want: 0},
		{name: "other fence stays code", input: "```go\nx := 1\n```\n", kind: ast.KindFencedCodeBlock, want: 1},
		{name: "table", input: "| a | b |\n|---|---|\n| 1 | 2 |\n", kind: east.KindTable, want: 1},
		{name: "task list", input: "- [x] done\n", kind: east.KindTaskCheckBox, want: 1},
		{name: "strikethrough", input: "~~gone~~\n", kind: east.KindStrikethrough, want: 1},
		{name: "nested list", input: "- a\n  - b\n", kind: ast.KindList, want: 2},
		{name: "block quote", input: "> quoted\n", kind: ast.KindBlockquote, want: 1},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			counts := collectKinds(t, p.Parse([]byte(tt.input)))
			if got := counts[tt.kind]; got != tt.want {
				t.Errorf("count(%s) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestParse_MathBlockContent(t *testing.T) {
	t.Parallel()

	doc := NewParser().Parse([]byte("$$\n\\int_0^1 x\\,dx\n$$\n"))
	block, ok := doc.Root.FirstChild().(*MathBlock)
	if !ok {
		t.Fatalf("first child = %T, want *MathBlock", doc.Root.FirstChild())
	}
	if got := linesValue(block, doc.Source); got != "\\int_0^1 x\\,dx\n" {
		t.Errorf("block content = %q", got)
	}
}

func TestParse_MathBlockClosed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"closed", "$$\nx\n$$\n", true},
		{"unclosed", "$$\nx\n", false},
		{"bare fence", "$$", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := NewParser().Parse([]byte(tt.input))
			block, ok := doc.Root.FirstChild().(*MathBlock)
			if !ok {
				t.Fatalf("first child = %T, want *MathBlock", doc.Root.FirstChild())
			}
			if block.Closed != tt.want {
				t.Errorf("Closed = %v, want %v", block.Closed, tt.want)
			}
		})
	}
}

func TestParse_DiagramKeepsSource(t *testing.T) {
	t.Parallel()

	src := "```mermaid\ngraph TD\n  A-->B\n```\n"
	doc := NewParser().Parse([]byte(src))
	d, ok := doc.Root.FirstChild().(*DiagramBlock)
	if !ok {
		t.Fatalf("first child = %T, want *DiagramBlock", doc.Root.FirstChild())
	}
	if d.Language != "mermaid" {
		t.Errorf("Language = %q, want mermaid", d.Language)
	}
	if got := linesValue(d, doc.Source); got != "graph TD\n  A-->B\n" {
		t.Errorf("content = %q", got)
	}
}

func TestParse_NormalizesLineEndings(t *testing.T) {
	t.Parallel()

	doc := NewParser().Parse([]byte("# Title\r\n\r\ntext\rmore\r\n"))
	for _, b := range doc.Source {
		if b == '\r' {
			t.Fatal("source still contains carriage return")
		}
	}
	if doc.Title() != "Title" {
		t.Errorf("Title() = %q, want Title", doc.Title())
	}
}

// ---------------------------------------------------------------------------
// Title
// ---------------------------------------------------------------------------

func TestParsedDocument_Title(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "first h1", input: "# Hello\n\n# Second\n", want: "Hello"},
		{name: "h1 after h2", input: "## Sub\n\n# Main\n", want: "Main"},
		{name: "no heading", input: "just text\n", want: "Document"},
		{name: "empty input", input: "", want: "Document"},
		{name: "emphasis in heading", input: "# Hello *world*\n", want: "Hello world"},
		{name: "setext heading", input: "Setext\n======\n", want: "Setext"},
		{name: "empty heading", input: "#\n", want: "Document"},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := p.Parse([]byte(tt.input)).Title(); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}
