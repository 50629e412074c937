package errors

import "log/slog"

// ErrorCategory groups failures by how callers are expected to react to them.
type ErrorCategory string

const (
	// CategoryConfig marks an invalid accctl.yaml or environment override.
	CategoryConfig ErrorCategory = "config"
	// CategoryValidation marks caller input rejected before anything ran.
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryAlreadyExists ErrorCategory = "already_exists"

	// CategoryParse marks daemon text that could not be mapped onto a typed model.
	CategoryParse ErrorCategory = "parse"
	// CategoryExecution marks an acc or djs command that reported non-success.
	CategoryExecution ErrorCategory = "execution"

	CategoryStorage    ErrorCategory = "storage"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryMessaging  ErrorCategory = "messaging"

	// CategoryRuntime marks a component that is stopped or shutting down.
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// CallerFault reports categories caused by the request rather than the device.
func (c ErrorCategory) CallerFault() bool {
	switch c {
	case CategoryValidation, CategoryNotFound, CategoryAlreadyExists:
		return true
	default:
		return false
	}
}

// logLevel picks how loudly the adapters report an error.
func logLevel(e *ClassifiedError) slog.Level {
	switch {
	case e.fatal:
		return slog.LevelError
	case e.category.CallerFault():
		return slog.LevelInfo
	case e.category == CategoryExecution, e.category == CategoryParse:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
