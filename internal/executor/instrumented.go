package executor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/accctl/internal/logfields"
	"git.home.luguber.info/inful/accctl/internal/metrics"
)

// Instrumented decorates an Executor with structured logging and command metrics.
type Instrumented struct {
	next     Executor
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewInstrumented wraps next. A nil recorder records nothing; a nil logger uses slog.Default.
func NewInstrumented(next Executor, recorder metrics.Recorder, logger *slog.Logger) *Instrumented {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{next: next, recorder: recorder, logger: logger}
}

func (i *Instrumented) Execute(ctx context.Context, lines ...string) Result {
	start := time.Now()
	res := i.next.Execute(ctx, lines...)
	elapsed := time.Since(start)

	name := commandName(lines)
	i.recorder.ObserveCommand(name, elapsed, res.Success)

	attrs := []any{
		logfields.Command(strings.Join(lines, "; ")),
		logfields.ExitCode(res.ExitCode),
		logfields.Success(res.Success),
		logfields.DurationMS(float64(elapsed.Microseconds()) / 1000),
	}
	if res.Success {
		i.logger.Debug("Command executed", attrs...)
	} else {
		i.logger.Warn("Command reported failure", attrs...)
	}
	return res
}

// commandName reduces a script to a low-cardinality metric label: the program
// plus its first flag, e.g. "acc -s" or "djs i".
func commandName(lines []string) string {
	if len(lines) == 0 {
		return "empty"
	}
	fields := strings.Fields(lines[0])
	switch len(fields) {
	case 0:
		return "empty"
	case 1:
		return fields[0]
	default:
		return fields[0] + " " + fields[1]
	}
}
