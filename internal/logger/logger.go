package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color" // Coloured console output, one colour per level
)

// Output is where non-levelled console lines (GitHub Actions commands) go.
// Tests swap it for a buffer.
var Output io.Writer = os.Stdout

// Info logs informational messages in green color.
// Green is used for normal progress lines of a setup run.
var Info = color.New(color.FgGreen).PrintfFunc()

// Success logs completed steps in bold green.
var Success = color.New(color.FgGreen, color.Bold).PrintfFunc()

// Warn logs warning messages in bright magenta color.
// Warnings never abort a run; they flag a step the user may need to check by hand.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error logs error messages in red color.
var Error = color.New(color.FgRed).PrintfFunc()

// Debug logs debug messages in cyan color if enabled, otherwise is a no-op.
// It starts as a no-op so packages can log before Init has run (tests, library use).
var Debug = func(format string, a ...any) {}

// Init initializes the logger package, specifically enabling or disabling debug logging.
// When enabled, Debug will print messages in cyan color.
// When disabled, Debug will be a no-op function that silently ignores debug logs.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}

// InGitHubActions reports whether the process runs inside a GitHub Actions job.
func InGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Mask asks the GitHub Actions runner to redact secret from every later log line.
// Outside of Actions it prints nothing.
func Mask(secret string) {
	if secret == "" || !InGitHubActions() {
		return
	}
	fmt.Fprintf(Output, "::add-mask::%s\n", secret)
}
