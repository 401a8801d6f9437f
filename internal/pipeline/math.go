package pipeline

import (
	"bytes"
	"strconv"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Node kinds added to the goldmark tree.
var (
	KindMathSpan     = ast.NewNodeKind("MathSpan")
	KindMathBlock    = ast.NewNodeKind("MathBlock")
	KindDiagramBlock = ast.NewNodeKind("DiagramBlock")
)

// MathSpan is inline TeX between $ (or $$) delimiters. Literal excludes the
// delimiters.
type MathSpan struct {
	ast.BaseInline
	Literal []byte
	Display bool
}

// Kind implements ast.Node.
func (n *MathSpan) Kind() ast.NodeKind { return KindMathSpan }

// Dump implements ast.Node.
func (n *MathSpan) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Literal": string(n.Literal),
	}, nil)
}

// Delimiter returns "$" or "$$".
func (n *MathSpan) Delimiter() string {
	if n.Display {
		return "$$"
	}
	return "$"
}

// MathBlock is display TeX between lines holding only "$$".
type MathBlock struct {
	ast.BaseBlock
	// Closed reports whether a closing "$$" line was found.
	Closed bool
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// IsRaw implements ast.Node; block content is never parsed as markdown.
func (n *MathBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Closed": strconv.FormatBool(n.Closed),
	}, nil)
}

// mathInlineParser recognizes $…$ and $$…$$ on a single line.
// Anything it rejects stays literal text.
type mathInlineParser struct{}

var unclosedMathKey = parser.NewContextKey()

// unclosedMath records, per line, the first opener whose scan ran off the end
// of the line. Any later opener of the same kind on that line cannot close
// either, so the line is scanned at most once per kind.
type unclosedMath struct {
	lineStop int
	inline   int
	display  int
}

func (u *unclosedMath) from(display bool) int {
	if display {
		return u.display
	}
	return u.inline
}

func unclosedFor(pc parser.Context, lineStop int) *unclosedMath {
	if u, ok := pc.Get(unclosedMathKey).(*unclosedMath); ok && u.lineStop == lineStop {
		return u
	}
	u := &unclosedMath{lineStop: lineStop, inline: -1, display: -1}
	pc.Set(unclosedMathKey, u)
	return u
}

func (p *mathInlineParser) Trigger() []byte {
	return []byte{'$'}
}

func (p *mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()
	if len(line) < 2 || line[0] != '$' {
		return nil
	}

	display := line[1] == '$'
	delim := 1
	if display {
		delim = 2
	}
	if delim < len(line) && line[delim] == '$' {
		// "$$$" or an empty display span
		return nil
	}

	unclosed := unclosedFor(pc, segment.Stop)
	if from := unclosed.from(display); from >= 0 && segment.Start > from {
		return nil
	}

	end := findClosingDollar(line, delim, display)
	if end < 0 {
		if display {
			unclosed.display = segment.Start
		} else {
			unclosed.inline = segment.Start
		}
		return nil
	}

	literal := line[delim:end]
	if !display && (util.IsSpace(literal[0]) || util.IsSpace(literal[len(literal)-1])) {
		// "$ 5 and $ 6" is prose about money, not math
		return nil
	}
	if display && len(bytes.TrimSpace(literal)) == 0 {
		return nil
	}

	block.Advance(end + delim)
	return &MathSpan{Literal: append([]byte(nil), literal...), Display: display}
}

// findClosingDollar returns the index of the closing delimiter, or -1 when
// the scan reaches the end of the line. Backslash escapes are skipped; a
// single $ followed by a digit does not close.
func findClosingDollar(line []byte, start int, display bool) int {
	for i := start; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '\n', '\r':
			return -1
		case '$':
			if display {
				if i+1 < len(line) && line[i+1] == '$' {
					return i
				}
				continue
			}
			if i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
				continue
			}
			return i
		}
	}
	return -1
}

// mathBlockParser opens on a line that is exactly "$$" (modulo surrounding
// whitespace) and closes on the next such line. An unclosed block runs to the
// end of its container, like an unclosed code fence.
type mathBlockParser struct{}

func (b *mathBlockParser) Trigger() []byte {
	return []byte{'$'}
}

func (b *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !isMathFence(line[pos:]) {
		return nil, parser.NoChildren
	}
	advanceLine(reader, line, segment)
	return &MathBlock{}, parser.NoChildren
}

func (b *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if isMathFence(util.TrimLeftSpace(line)) {
		advanceLine(reader, line, segment)
		node.(*MathBlock).Closed = true
		return parser.Close
	}
	node.Lines().Append(segment)
	advanceLine(reader, line, segment)
	return parser.Continue | parser.NoChildren
}

func (b *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *mathBlockParser) CanInterruptParagraph() bool { return true }

func (b *mathBlockParser) CanAcceptIndentedLine() bool { return false }

func isMathFence(line []byte) bool {
	return bytes.Equal(util.TrimRightSpace(line), []byte("$$"))
}

// advanceLine consumes the rest of the line but leaves its newline to the
// block parser loop.
func advanceLine(reader text.Reader, line []byte, segment text.Segment) {
	n := segment.Stop - segment.Start
	if len(line) > 0 && line[len(line)-1] == '\n' {
		n--
	}
	reader.Advance(n)
}
