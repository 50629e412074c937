package errors

import (
	"maps"
	"strings"
)

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a builder for category.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{category: category, message: message, context: map[string]any{}}}
}

// WrapError starts a builder whose error unwraps to err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context[key] = value
	return b
}

// Fatal marks the error as stopping the process or request.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.fatal = true
	return b
}

func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	e.context = maps.Clone(b.err.context)
	return &e
}

// ConfigError reports an unusable application configuration.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message)
}

// NotFoundError names the missing resource, e.g. NotFoundError("profile").
func NotFoundError(resource string) *ErrorBuilder {
	return NewError(CategoryNotFound, resource+" not found")
}

func AlreadyExistsError(resource string) *ErrorBuilder {
	return NewError(CategoryAlreadyExists, resource+" already exists")
}

// ParseError reports daemon output that does not fit the typed model.
func ParseError(message string) *ErrorBuilder {
	return NewError(CategoryParse, message)
}

func ExecutionError(message string) *ErrorBuilder {
	return NewError(CategoryExecution, message)
}

// CommandError reports a privileged command line that exited with exitCode.
// Only the first line of multi-line scripts is kept.
func CommandError(command string, exitCode int) *ErrorBuilder {
	if i := strings.IndexByte(command, '\n'); i >= 0 {
		command = command[:i]
	}
	return ExecutionError("command failed").
		WithContext(KeyCommand, command).
		WithContext(KeyExitCode, exitCode)
}

// RuntimeError reports a component that cannot serve right now.
func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message)
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
