package marker

import (
	"fmt"
	"strings"

	"github.com/bertob/marker/internal/pipeline"
)

// Mode names accepted by the Parse*Mode functions.
const (
	modeOffName   = "off"
	modeLocalName = "local"
)

// MathMode selects how math spans and blocks are rendered.
type MathMode uint8

// Math modes.
const (
	MathOff MathMode = iota
	MathLocal
)

func (m MathMode) String() string { return modeName(uint8(m)) }

// ParseMathMode parses "off" or "local" (case-insensitive).
func ParseMathMode(s string) (MathMode, error) {
	v, err := parseMode("math", s)
	return MathMode(v), err
}

// HighlightMode selects how fenced code blocks are rendered.
type HighlightMode uint8

// Highlight modes.
const (
	HighlightOff HighlightMode = iota
	HighlightLocal
)

func (m HighlightMode) String() string { return modeName(uint8(m)) }

// ParseHighlightMode parses "off" or "local" (case-insensitive).
func ParseHighlightMode(s string) (HighlightMode, error) {
	v, err := parseMode("highlight", s)
	return HighlightMode(v), err
}

// DiagramMode selects how diagram fences are rendered.
type DiagramMode uint8

// Diagram modes.
const (
	DiagramOff DiagramMode = iota
	DiagramLocal
)

func (m DiagramMode) String() string { return modeName(uint8(m)) }

// ParseDiagramMode parses "off" or "local" (case-insensitive).
func ParseDiagramMode(s string) (DiagramMode, error) {
	v, err := parseMode("diagram", s)
	return DiagramMode(v), err
}

func modeName(v uint8) string {
	switch v {
	case 0:
		return modeOffName
	case 1:
		return modeLocalName
	}
	return fmt.Sprintf("mode(%d)", v)
}

func parseMode(feature, s string) (uint8, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case modeOffName:
		return 0, nil
	case modeLocalName:
		return 1, nil
	}
	return 0, fmt.Errorf("%w: %s %q (want %q or %q)", ErrInvalidMode, feature, s, modeOffName, modeLocalName)
}

// Document is markdown text plus the number of bytes of it to convert.
type Document struct {
	Text   string
	Length int
}

// NewDocument returns a Document covering all of text.
func NewDocument(text string) Document {
	return Document{Text: text, Length: len(text)}
}

// source returns Text[:Length] with Length clamped to the text.
func (d Document) source() []byte {
	n := d.Length
	if n < 0 {
		n = 0
	}
	if n > len(d.Text) {
		n = len(d.Text)
	}
	return []byte(d.Text[:n])
}

// RenderConfig holds the options governing one render. The zero value turns
// every feature off and links the default stylesheet.
type RenderConfig struct {
	Math           MathMode
	Highlight      HighlightMode
	Diagram        DiagramMode
	StylesheetPath string // empty selects the built-in stylesheet
	InlineStyle    bool
}

func (c RenderConfig) featureModes() pipeline.FeatureModes {
	return pipeline.FeatureModes{
		Math:      pipeline.Mode(c.Math),
		Highlight: pipeline.Mode(c.Highlight),
		Diagram:   pipeline.Mode(c.Diagram),
	}
}

// ParsedDocument is the tree the parser builds for one render.
type ParsedDocument = pipeline.ParsedDocument

// DefaultBaseURI is used when the caller supplies no base URI.
const DefaultBaseURI = "file://unnamed.md"

// RenderedDocument is a complete HTML document plus the URI its relative
// links and images resolve against.
type RenderedDocument struct {
	HTML    string
	BaseURI string
}

// Format is an export target. The zero value is not a valid format.
type Format uint8

// Export formats.
const (
	FormatHTML Format = iota + 1
	FormatPDF
	FormatRTF
	FormatODT
	FormatDOCX
	FormatLaTeX
)

var formatNames = map[Format]string{
	FormatHTML:  "html",
	FormatPDF:   "pdf",
	FormatRTF:   "rtf",
	FormatODT:   "odt",
	FormatDOCX:  "docx",
	FormatLaTeX: "latex",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// Formats lists every export format in declaration order.
func Formats() []Format {
	return []Format{FormatHTML, FormatPDF, FormatRTF, FormatODT, FormatDOCX, FormatLaTeX}
}

// ParseFormat maps a format name ("pdf", "docx", ...) to its Format.
// It does not look at file extensions.
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, f := range Formats() {
		if formatNames[f] == n {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ExportJob is one dispatch of rendered HTML to a backend.
type ExportJob struct {
	Format     Format
	OutputPath string
	Document   RenderedDocument
}

// JobState tracks an export job. States only move forward.
type JobState uint8

// Export job states, in order.
const (
	JobPending JobState = iota
	JobRendering
	JobDispatching
	JobSucceeded
	JobFailed
)

var jobStateNames = [...]string{"pending", "rendering", "dispatching", "succeeded", "failed"}

func (s JobState) String() string {
	if int(s) < len(jobStateNames) {
		return jobStateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Terminal reports whether the job has finished.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}
