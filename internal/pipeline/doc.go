// Package pipeline implements the Markdown-to-HTML conversion pipeline.
//
// The stages run synchronously and share no mutable state:
//   - Parse: goldmark builds the document tree, with math spans, math blocks
//     and diagram blocks as node kinds of their own
//   - ResolveExtensions: decides which client-side bundles the head loads
//   - ResolveStyle: links or inlines the stylesheet
//   - Renderer.Render: serializes everything into one HTML document
//
// Nothing here typesets math, tokenizes code or lays out diagrams. Local mode
// only emits markup that the bundled scripts post-process in the display
// surface. Export to other formats is handled by the root marker package.
package pipeline
