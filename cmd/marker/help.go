package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: marker <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Render markdown to a standalone HTML document")
	fmt.Fprintln(w, "  export     Export markdown to html, pdf, rtf, odt, docx or latex")
	fmt.Fprintln(w, "  preview    Serve a live preview that reloads on save")
	fmt.Fprintln(w, "  config     Print the effective configuration as YAML")
	fmt.Fprintln(w, "  doctor     Check Chrome, pandoc and asset setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'marker help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

func printRenderFlags(w io.Writer) {
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --math <mode>         Math: off, local")
	fmt.Fprintln(w, "      --highlight <mode>    Code highlighting: off, local")
	fmt.Fprintln(w, "      --diagram <mode>      Mermaid diagrams: off, local")
	fmt.Fprintln(w, "  -s, --style <path>        Stylesheet path or URL (default: built-in)")
	fmt.Fprintln(w, "      --inline-style        Embed the stylesheet instead of linking it")
	fmt.Fprintln(w, "      --asset-base <uri>    URI prefix of the KaTeX, highlight.js and mermaid bundles")
	fmt.Fprintln(w, "      --asset-path <dir>    Local asset directory")
	fmt.Fprintln(w, "      --base-uri <uri>      Base for relative links (default: the input file)")
}

// printCommandUsage prints usage for one command.
func printCommandUsage(w io.Writer, cmd string) {
	switch cmd {
	case "render":
		fmt.Fprintln(w, "Usage: marker render <file.md|-> [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Render markdown to a complete HTML document on stdout.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  -o, --output <path>       Write HTML to a file instead")
		fmt.Fprintln(w)
		printRenderFlags(w)
		fmt.Fprintln(w)
		printCommonFlags(w)
	case "export":
		fmt.Fprintln(w, "Usage: marker export <file.md>... [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Export markdown files. The format comes from --format, then the")
		fmt.Fprintln(w, "output extension, then export.format in the config, then pdf.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Export:")
		fmt.Fprintln(w, "  -o, --output <path>       Output file, or directory for several inputs")
		fmt.Fprintln(w, "  -f, --format <name>       html, pdf, rtf, odt, docx, latex")
		fmt.Fprintln(w, "  -t, --timeout <d>         Per-export timeout (e.g., 30s, 2m)")
		fmt.Fprintln(w, "      --pandoc <path>       Pandoc executable")
		fmt.Fprintln(w, "  -w, --workers <n>         Concurrent exports (0 = auto)")
		fmt.Fprintln(w)
		printRenderFlags(w)
		fmt.Fprintln(w)
		printCommonFlags(w)
	case "preview":
		fmt.Fprintln(w, "Usage: marker preview <file.md> [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Serve a live preview in the browser. Ctrl+Plus, Ctrl+Minus and")
		fmt.Fprintln(w, "Ctrl+0 change the zoom.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Preview:")
		fmt.Fprintln(w, "      --host <host>         Listen host (default: 127.0.0.1)")
		fmt.Fprintln(w, "  -p, --port <n>            Listen port (0 = any free port)")
		fmt.Fprintln(w, "      --zoom <f>            Initial zoom (0.1-4.0)")
		fmt.Fprintln(w, "      --no-watch            Do not reload on file changes")
		fmt.Fprintln(w)
		printRenderFlags(w)
		fmt.Fprintln(w)
		printCommonFlags(w)
	case "config":
		fmt.Fprintln(w, "Usage: marker config [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Print the configuration a command would run with: the config file,")
		fmt.Fprintln(w, "then MARKER_* variables, then flags. Accepts every render, export")
		fmt.Fprintln(w, "and preview flag.")
		fmt.Fprintln(w)
		printCommonFlags(w)
	case "doctor":
		fmt.Fprintln(w, "Usage: marker doctor [--json] [--pandoc <path>] [--asset-path <dir>]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Check that export backends and assets are available.")
	case "version":
		fmt.Fprintln(w, "Usage: marker version")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show version information.")
	case "help":
		fmt.Fprintln(w, "Usage: marker help [command]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Show help for a command.")
	default:
		printUsage(w)
	}
}

// isCommand reports whether name is a known command.
func isCommand(name string) bool {
	switch name {
	case "render", "export", "preview", "config", "doctor", "version", "help":
		return true
	}
	return false
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}
	if !isCommand(args[0]) {
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	printCommandUsage(env.Stdout, args[0])
	return ExitSuccess
}
