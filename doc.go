// Package marker converts Markdown documents to self-contained HTML and
// exports that HTML to HTML, PDF, RTF, ODT, DOCX or LaTeX files.
//
// # Quick Start
//
// Create a converter, render markdown, and close when done:
//
//	conv, err := marker.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	doc, err := conv.Render(marker.NewDocument("# Hello\n\nWorld"), marker.RenderConfig{}, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(doc.HTML)
//
// # Rendering
//
// Render is synchronous and deterministic: the same document, configuration
// and stylesheet content always yield byte-identical HTML. Math, syntax
// highlighting and diagrams are optional features with two modes each. In
// local mode the document head loads bundled scripts (KaTeX, highlight.js,
// mermaid) that post-process the marked-up body when the HTML is displayed.
// Nothing is typeset at render time.
//
// # Export
//
// Export renders and then hands the HTML to the backend registered for the
// target format:
//
//	res, err := conv.Export(ctx, marker.ExportRequest{
//	    Document:   marker.NewDocument(text),
//	    Config:     marker.RenderConfig{InlineStyle: true},
//	    BaseURI:    "file:///home/me/notes/todo.md",
//	    Format:     marker.FormatPDF,
//	    OutputPath: "/tmp/todo.pdf",
//	})
//
// PDF goes through headless Chrome (go-rod), which runs the bundled scripts,
// so math and diagrams are typeset. RTF, ODT, DOCX and LaTeX go through
// pandoc, which does not run scripts: math stays as TeX source and diagrams
// stay as their text. Exports are atomic: the backend writes to a staging
// file next to the destination, which is renamed into place only on success.
//
// ExportAsync runs an export on a bounded worker pool and reports through a
// callback and an ExportTask handle.
//
// # Errors
//
// Configuration errors (ErrUnsupportedFormat, ErrInvalidMode, ErrStyleLoad)
// are distinguishable from environment errors (ErrExport, ErrIO) with
// errors.Is. Backend failures are *ExportError values carrying the backend's
// diagnostic.
package marker
