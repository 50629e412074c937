package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/accctl/internal/config"
	"git.home.luguber.info/inful/accctl/internal/executor"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives command output; nil means stdout.
	Out io.Writer
	// Executor replaces the configured shell when set.
	Executor executor.Executor
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"accctl.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init       InitCmd       `cmd:"" help:"Initialize a new configuration file"`
	Serve      ServeCmd      `cmd:"" help:"Run the HTTP API with telemetry polling and config watching"`
	Conf       ConfigCmd     `cmd:"" name:"config" help:"Read and edit the live acc config"`
	Telemetry  TelemetryCmd  `cmd:"" help:"Print the battery status dump"`
	Daemon     DaemonCmd     `cmd:"" help:"Query or control accd"`
	Profile    ProfileCmd    `cmd:"" help:"Manage stored config profiles"`
	Schedule   ScheduleCmd   `cmd:"" help:"Manage djs schedules"`
	Switch     SwitchCmd     `cmd:"" help:"Inspect and select charging switches"`
	Volt       VoltCmd       `cmd:"" help:"List voltage control files"`
	ChargeOnce ChargeOnceCmd `cmd:"" help:"Charge once to the given capacity, ignoring the pause limit"`
	ResetStats ResetStatsCmd `cmd:"" help:"Reset battery statistics"`
}

// AfterApply runs after flag parsing; setup logging once.
// The configured level and format replace this logger once a command loads the config file.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logging := config.LoggingConfig{Level: config.LogLevelInfo, Format: config.LogFormatText}
	slog.SetDefault(logging.NewLogger(os.Stderr, c.Verbose))
	return nil
}

// ErrorAdapter returns the adapter main uses to report command failures.
func (c *CLI) ErrorAdapter() *errors.CLIErrorAdapter {
	return errors.NewCLIErrorAdapter(c.Verbose, slog.Default())
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode output").Build()
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// onOff maps the on/off positional used by boolean config groups.
func onOff(s string) bool { return s == "on" }

// optional maps an empty positional to "unset".
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// editFailed reports a rejected acc edit.
func editFailed(group string) error {
	return errors.ExecutionError("acc rejected the edit").WithContext("group", group).Build()
}
