package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
)

// exitCodes maps categories onto process exit codes. Unclassified errors exit 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation:    2,
	CategoryNotFound:      3,
	CategoryAlreadyExists: 4,
	CategoryParse:         6,
	CategoryConfig:        7,
	CategoryExecution:     8,
	CategoryMessaging:     8,
	CategoryInternal:      10,
	CategoryStorage:       11,
	CategoryFileSystem:    11,
	CategoryRuntime:       12,
}

// CLIErrorAdapter reports command failures on stderr and picks the exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a CLI adapter; verbose also prints internal details and logs every error.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, stderr: os.Stderr, exit: os.Exit}
}

// ExitCodeFor returns the process exit code for err; nil maps to 0.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	classified, ok := AsClassified(err)
	if !ok {
		return 1
	}
	if code, ok := exitCodes[classified.category]; ok {
		return code
	}
	return 1
}

// FormatError renders err as the single stderr line shown to the user.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return "Error: " + err.Error()
	}
	if classified.category == CategoryInternal && !a.verbose {
		return "Error: internal error (use -v for details)"
	}
	msg := "Error: " + classified.Error()
	if code, ok := CommandExitCode(classified); ok {
		msg += fmt.Sprintf(" (%v exited with %d)", classified.context[KeyCommand], code)
	}
	return msg
}

// HandleError prints err, logs it when relevant and exits with ExitCodeFor(err).
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	classified, ok := AsClassified(err)
	switch {
	case !ok:
		a.logger.Error("Unclassified error", slog.String("error", err.Error()))
	case a.verbose || classified.fatal:
		attrs := []slog.Attr{slog.String("category", string(classified.category))}
		for _, k := range slices.Sorted(maps.Keys(classified.context)) {
			attrs = append(attrs, slog.Any(k, classified.context[k]))
		}
		a.logger.LogAttrs(context.Background(), logLevel(classified), classified.message, attrs...)
	}

	_, _ = fmt.Fprintln(a.stderr, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}
