// Package logger provides process-wide logging for askdocs.
//
// Info, Warn and Error lines are always written and carry a timestamp and a
// level. Debug and Section output only appears in verbose mode (--verbose),
// where it traces the ingestion and query pipelines step by step.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

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

// SetOutput sets the output writer for all logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[DEBUG] "+format+"\n", args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message.
func Info(format string, args ...any) {
	write("INFO", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	write("WARNING", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	write("ERROR", format, args...)
}

func write(level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, "%s - %s - %s\n", now().Format(timeLayout), level, fmt.Sprintf(format, args...))
}

// Redact masks a secret for display, keeping a short prefix and suffix
// when the value is long enough to stay unrecognisable.
func Redact(secret string) string {
	n := len(secret)
	switch {
	case n == 0:
		return ""
	case n <= 8:
		return "***"
	default:
		return secret[:4] + "***" + secret[n-4:]
	}
}
