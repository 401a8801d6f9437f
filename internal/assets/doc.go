// Package assets locates the stylesheets and client-side rendering bundles
// referenced by rendered documents.
//
// # Sources
//
//	StyleLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in stylesheets compiled into the binary
//	    ├── FilesystemLoader  - a local asset directory on disk
//	    └── AssetResolver     - filesystem first, embedded as fallback
//
// # Directory Structure
//
// The local asset directory mirrors the URIs emitted in document heads:
//
//	{basePath}/
//	├── styles/
//	│   └── default.css
//	├── katex/
//	│   ├── katex.min.css
//	│   ├── katex.min.js
//	│   └── contrib/auto-render.min.js
//	├── highlight/
//	│   ├── highlight.min.js
//	│   └── styles/default.min.css
//	└── mermaid/
//	    └── mermaid.min.js
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
