package executor

import (
	"context"
	"strings"
	"sync"
)

// Fake is a scriptable in-memory Executor for tests. Invocations are recorded
// in order; responses come from the most recently registered rule whose
// prefix matches the first command line.
type Fake struct {
	mu       sync.Mutex
	calls    []string
	rules    []fakeRule
	fallback Result
}

type fakeRule struct {
	prefix string
	fn     func(lines []string) Result
}

// NewFake returns a Fake that reports success with no output for unmatched commands.
func NewFake() *Fake {
	return &Fake{fallback: Result{Success: true}}
}

// On registers a canned result for commands starting with prefix.
func (f *Fake) On(prefix string, res Result) *Fake {
	return f.OnFunc(prefix, func([]string) Result { return res })
}

// OnOutput registers a successful result producing the given output lines.
func (f *Fake) OnOutput(prefix string, lines ...string) *Fake {
	return f.On(prefix, Result{Success: true, Output: lines})
}

// OnFail registers a failing result with the given exit code.
func (f *Fake) OnFail(prefix string, exitCode int) *Fake {
	return f.On(prefix, Result{Success: false, ExitCode: exitCode})
}

// OnFunc registers a dynamic responder for commands starting with prefix.
func (f *Fake) OnFunc(prefix string, fn func(lines []string) Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, fakeRule{prefix: prefix, fn: fn})
	return f
}

// Execute records the invocation and returns the scripted result.
func (f *Fake) Execute(_ context.Context, lines ...string) Result {
	f.mu.Lock()
	f.calls = append(f.calls, strings.Join(lines, "\n"))
	var match func([]string) Result
	if len(lines) > 0 {
		for i := len(f.rules) - 1; i >= 0; i-- {
			if strings.HasPrefix(lines[0], f.rules[i].prefix) {
				match = f.rules[i].fn
				break
			}
		}
	}
	fallback := f.fallback
	f.mu.Unlock()

	if match == nil {
		return fallback
	}
	return match(lines)
}

// Calls returns a copy of every recorded invocation.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallsWithPrefix returns the recorded invocations starting with prefix.
func (f *Fake) CallsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded invocations but keeps the rules.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
