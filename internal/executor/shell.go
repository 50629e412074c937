package executor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-cmd/cmd"

	"git.home.luguber.info/inful/accctl/internal/logfields"
)

// DefaultShell runs scripts through the superuser shell.
var DefaultShell = []string{"su", "-c"}

// Shell executes command lines by handing the newline-joined script to a
// shell prefix such as ["su", "-c"] or ["sh", "-c"].
type Shell struct {
	prefix []string
	env    []string
}

// NewShell creates a Shell executor. An empty prefix falls back to DefaultShell.
func NewShell(prefix []string, env ...string) *Shell {
	if len(prefix) == 0 {
		prefix = DefaultShell
	}
	return &Shell{prefix: append([]string(nil), prefix...), env: env}
}

// Prefix returns the configured shell invocation.
func (s *Shell) Prefix() []string {
	return append([]string(nil), s.prefix...)
}

// Execute runs the lines as one script and waits for completion or ctx cancellation.
func (s *Shell) Execute(ctx context.Context, lines ...string) Result {
	if len(lines) == 0 {
		return Result{Success: true}
	}
	script := strings.Join(lines, "\n")
	args := append(append([]string(nil), s.prefix[1:]...), script)

	c := cmd.NewCmdOptions(cmd.Options{Buffered: true}, s.prefix[0], args...)
	if len(s.env) > 0 {
		c.Env = s.env
	}
	statusChan := c.Start()

	var status cmd.Status
	select {
	case status = <-statusChan:
	case <-ctx.Done():
		if err := c.Stop(); err != nil {
			slog.Debug("Stopping canceled command failed", logfields.Command(script), logfields.Error(err))
		}
		status = <-statusChan
	}

	if status.Error != nil {
		slog.Debug("Command failed to run", logfields.Command(script), logfields.Error(status.Error))
		res := Failed()
		res.Output = status.Stdout
		return res
	}

	return Result{
		Success:  status.Complete && status.Exit == 0,
		ExitCode: status.Exit,
		Output:   status.Stdout,
	}
}
