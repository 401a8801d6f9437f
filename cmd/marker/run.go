package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/bertob/marker"
	"github.com/bertob/marker/internal/config"
	"github.com/bertob/marker/internal/hints"
)

// reportedError has already been printed by the command.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// runMain dispatches a command and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "help", "-h", "--help":
		return runHelp(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "marker %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return ExitSuccess
	case "doctor":
		return runDoctorCmd(rest, env)
	}

	var run func(context.Context, []string, *Environment) error
	switch cmd {
	case "render":
		run = runRender
	case "export":
		run = runExport
	case "preview":
		run = runPreview
	case "config":
		run = runConfig
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	err := run(ctx, rest, env)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, flag.ErrHelp):
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		cause := context.Cause(ctx)
		if !errors.Is(cause, ErrInterrupted) {
			cause = ErrInterrupted
		}
		fmt.Fprintln(env.Stderr, cause)
		return ExitGeneral
	}

	var reported reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, ""))
	}
	return exitCodeFor(err)
}

// hintFor returns an actionable hint for err, or "". pandocPath is the
// configured pandoc executable, empty for the default.
func hintFor(err error, pandocPath string) string {
	switch {
	case errors.Is(err, marker.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, marker.ErrBackendUnavailable):
		return hints.ForPandocMissing(pandocPath)
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(configSearchPaths(err))
	case errors.Is(err, marker.ErrIO):
		return hints.ForOutputDirectory()
	case errors.Is(err, marker.ErrStyleLoad):
		return hints.ForStyleLoad()
	case errors.Is(err, marker.ErrInvalidMode):
		return hints.ForInvalidMode([]string{marker.MathOff.String(), marker.MathLocal.String()})
	case errors.Is(err, marker.ErrUnsupportedFormat):
		names := make([]string, 0, len(marker.Formats()))
		for _, f := range marker.Formats() {
			names = append(names, f.String())
		}
		return hints.ForUnsupportedFormat(names)
	}
	return ""
}

// configSearchPaths extracts the locations listed by a config-not-found error.
func configSearchPaths(err error) []string {
	_, tried, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(tried, ", ")
}
