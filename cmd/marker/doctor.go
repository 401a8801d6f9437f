package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/bertob/marker"
	"github.com/bertob/marker/internal/assets"
)

// versionProbeTimeout bounds "--version" calls to external tools.
const versionProbeTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   toolInfo   `json:"chrome"`
	Pandoc   toolInfo   `json:"pandoc"`
	Assets   assetInfo  `json:"assets"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Formats  []string   `json:"formats"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// toolInfo holds detection results for an external executable.
type toolInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// assetInfo reports which client-side bundles a local asset directory lacks.
type assetInfo struct {
	Path    string              `json:"path,omitempty"`
	Missing map[string][]string `json:"missing,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctorDeps are the lookups doctor performs, injectable for tests.
type doctorDeps struct {
	getenv       func(string) string
	lookPath     func(string) (string, error)
	chromePath   func() (string, bool)
	probeVersion func(path string) (string, error)
}

func defaultDoctorDeps(env *Environment) doctorDeps {
	return doctorDeps{
		getenv:       env.Getenv,
		lookPath:     env.LookPath,
		chromePath:   launcher.LookPath,
		probeVersion: probeVersion,
	}
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	jsonOutput := fs.Bool("json", false, "print results as JSON")
	pandocPath := fs.String("pandoc", "", "pandoc executable to check")
	assetPath := fs.String("asset-path", "", "local asset directory to check")
	fs.Usage = func() { printCommandUsage(env.Stderr, "doctor") }
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return ExitSuccess
		}
		return ExitUsage
	}

	envCfg := loadEnvConfig(env.Getenv)
	if *pandocPath == "" {
		*pandocPath = envCfg.Pandoc
	}
	if *assetPath == "" {
		*assetPath = envCfg.AssetPath
	}

	result := runDoctor(defaultDoctorDeps(env), *pandocPath, *assetPath)

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks. A missing browser is an error
// because PDF is the default format; a missing pandoc only disables the
// office formats and is a warning.
func runDoctor(deps doctorDeps, pandocPath, assetPath string) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			BrowserBin: deps.getenv("ROD_BROWSER_BIN"),
		},
	}
	for _, f := range marker.Formats() {
		result.Formats = append(result.Formats, f.String())
	}

	checkChrome(deps, result)
	checkPandoc(deps, pandocPath, result)
	checkAssets(assetPath, result)
	checkEnvironment(deps, result)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(deps doctorDeps, result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = deps.chromePath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	if v, err := deps.probeVersion(chromePath); err == nil {
		result.Chrome.Version = v
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}
}

// checkPandoc detects the pandoc executable used for RTF, ODT, DOCX and LaTeX.
func checkPandoc(deps doctorDeps, pandocPath string, result *doctorResult) {
	if pandocPath == "" {
		pandocPath = marker.DefaultPandocPath
	}
	path, err := deps.lookPath(pandocPath)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("pandoc not found (%s): rtf, odt, docx and latex exports unavailable", pandocPath))
		return
	}

	result.Pandoc.Found = true
	result.Pandoc.Path = path
	if v, err := deps.probeVersion(path); err == nil {
		// pandoc prints several lines; the first names the version.
		result.Pandoc.Version, _, _ = strings.Cut(v, "\n")
	}
}

// checkAssets reports bundles missing from the local asset directory.
func checkAssets(assetPath string, result *doctorResult) {
	if assetPath == "" {
		return
	}
	result.Assets.Path = assetPath

	resolver, err := assets.NewAssetResolver(assetPath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Asset directory invalid: %v", err))
		return
	}

	missing := resolver.MissingBundles()
	if len(missing) == 0 {
		return
	}
	result.Assets.Missing = make(map[string][]string, len(missing))
	for feature, files := range missing {
		result.Assets.Missing[string(feature)] = files
	}

	names := make([]string, 0, len(missing))
	for feature := range missing {
		names = append(names, string(feature))
	}
	sort.Strings(names)
	result.Warnings = append(result.Warnings,
		fmt.Sprintf("Asset directory lacks bundles for: %s", strings.Join(names, ", ")))
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(deps doctorDeps, result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer(deps.getenv)

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if deps.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// The PDF backend disables the Chrome sandbox only when CI=true or
	// ROD_BROWSER_BIN is set.
	if (result.Env.Container || result.Env.CI) && deps.getenv("CI") != "true" && result.Env.BrowserBin == "" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but Chrome sandbox still enabled. Set CI=true or ROD_BROWSER_BIN")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("MARKER_CONTAINER") == "1" {
		return true, "MARKER_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, fmt.Sprintf("marker-doctor-%d", os.Getpid()))
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// probeVersion runs "<path> --version" and returns its trimmed output.
func probeVersion(path string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), versionProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "--version").Output() // #nosec G204 -- path comes from PATH lookup
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "marker doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium (pdf)")
	printTool(w, r.Chrome, "[ERROR]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Pandoc (rtf, odt, docx, latex)")
	printTool(w, r.Pandoc, "[WARN]")
	fmt.Fprintln(w)

	if r.Assets.Path != "" {
		fmt.Fprintln(w, "Assets")
		fmt.Fprintf(w, "  [OK] Directory: %s\n", r.Assets.Path)
		features := make([]string, 0, len(r.Assets.Missing))
		for f := range r.Assets.Missing {
			features = append(features, f)
		}
		sort.Strings(features)
		for _, f := range features {
			fmt.Fprintf(w, "  [WARN] %s: missing %s\n", f, strings.Join(r.Assets.Missing[f], ", "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to export")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

func printTool(w io.Writer, t toolInfo, missingTag string) {
	if !t.Found {
		fmt.Fprintf(w, "  %s Not found\n", missingTag)
		return
	}
	fmt.Fprintf(w, "  [OK] Found at %s\n", t.Path)
	if t.Version != "" {
		fmt.Fprintf(w, "  [OK] Version: %s\n", t.Version)
	}
}
