// Package logger provides verbose logging for quanswer.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to trace models, batches and cache use.
// Level tags are coloured when the output is a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	mu       sync.RWMutex
	verbose  bool
	output   io.Writer = os.Stderr
	renderer           = lipgloss.NewRenderer(os.Stderr)
)

var levelColours = map[string]lipgloss.Color{
	"DEBUG": lipgloss.Color("#6C7086"),
	"INFO":  lipgloss.Color("#06B6D4"),
	"WARN":  lipgloss.Color("#F9E2AF"),
	"ERROR": lipgloss.Color("#F38BA8"),
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	renderer = lipgloss.NewRenderer(w)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf("DEBUG", true, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf("INFO", true, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf("WARN", true, format, args...)
}

// Error prints a message regardless of verbose mode.
func Error(format string, args ...any) {
	logf("ERROR", false, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		title := renderer.NewStyle().Bold(true).Render("=== " + name + " ===")
		fmt.Fprintf(output, "\n%s\n", title)
	}
}

// Elapsed logs how long has passed since start. Use with defer:
//
//	defer logger.Elapsed("load model", time.Now())
func Elapsed(label string, start time.Time) {
	Debug("%s took %s", label, time.Since(start).Round(time.Millisecond))
}

// logf holds the write lock so concurrent writers never interleave on output.
func logf(level string, gated bool, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if gated && !verbose {
		return
	}
	tag := renderer.NewStyle().Foreground(levelColours[level]).Render("[" + level + "]")
	fmt.Fprintf(output, tag+" "+format+"\n", args...)
}
