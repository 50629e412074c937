package executor

import (
	"context"
	"strings"
)

// Result is the outcome of a single command invocation.
type Result struct {
	Success  bool     `json:"success"`
	ExitCode int      `json:"exitCode"`
	Output   []string `json:"output,omitempty"`
}

// Text joins the captured output lines with newlines.
func (r Result) Text() string {
	return strings.Join(r.Output, "\n")
}

// Executor runs one or more command lines as a single invocation.
type Executor interface {
	Execute(ctx context.Context, lines ...string) Result
}

// Func adapts a plain function to the Executor interface.
type Func func(ctx context.Context, lines ...string) Result

func (f Func) Execute(ctx context.Context, lines ...string) Result {
	return f(ctx, lines...)
}

// Async runs the command lines on a new goroutine and delivers the result on
// the returned channel. The channel is buffered so an abandoned result never
// blocks the worker.
func Async(ctx context.Context, e Executor, lines ...string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- e.Execute(ctx, lines...)
		close(ch)
	}()
	return ch
}

// Failed is the result reported when a command could not be run at all.
func Failed() Result {
	return Result{Success: false, ExitCode: -1}
}
