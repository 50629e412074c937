package errors

import (
	stderrors "errors"
	"maps"
	"strconv"
)

// Context keys shared by builders and adapters.
const (
	KeyCommand  = "command"
	KeyExitCode = "exit_code"
)

// ClassifiedError is an error with a category, structured context and an
// optional cause. Values are immutable once built.
type ClassifiedError struct {
	category ErrorCategory
	fatal    bool
	message  string
	cause    error
	context  map[string]any
}

func (e *ClassifiedError) Error() string {
	msg := string(e.category) + ": " + e.message
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }

// Fatal reports errors that stop the process or the request outright.
func (e *ClassifiedError) Fatal() bool { return e.fatal }

// Message returns the message without category or cause.
func (e *ClassifiedError) Message() string { return e.message }

// Context returns a copy of the structured context.
func (e *ClassifiedError) Context() map[string]any { return maps.Clone(e.context) }

// WithContext returns a copy of e with key set.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	c := *e
	c.context = maps.Clone(e.context)
	if c.context == nil {
		c.context = make(map[string]any, 1)
	}
	c.context[key] = value
	return &c
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether the first ClassifiedError in err's chain has category.
func HasCategory(err error, category ErrorCategory) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.category == category
	}
	return false
}

// CommandExitCode returns the exit code recorded by CommandError.
func CommandExitCode(err error) (int, bool) {
	classified, ok := AsClassified(err)
	if !ok {
		return 0, false
	}
	switch v := classified.context[KeyExitCode].(type) {
	case int:
		return v, true
	case string:
		n, perr := strconv.Atoi(v)
		return n, perr == nil
	default:
		return 0, false
	}
}
