package accd

import (
	"context"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/executor"
	"git.home.luguber.info/inful/accctl/internal/foundation/normalization"
	"git.home.luguber.info/inful/accctl/internal/logfields"
)

// DefaultConfigPath is where the daemon keeps config.txt on the device.
const DefaultConfigPath = "/sdcard/acc/config.txt"

// daemonRunningMarker is printed by `acc -D` while accd is up.
const daemonRunningMarker = "accd is running"

// Client issues daemon commands and reads the daemon's config file.
type Client struct {
	exec       executor.Executor
	configPath string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for failed operations.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client. An empty configPath uses DefaultConfigPath.
func New(exec executor.Executor, configPath string, opts ...Option) *Client {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	c := &Client{exec: exec, configPath: configPath, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConfigPath returns the config.txt location this client reads.
func (c *Client) ConfigPath() string { return c.configPath }

// Run executes a single command line and reports success.
func (c *Client) Run(ctx context.Context, command string) bool {
	res := c.exec.Execute(ctx, command)
	if !res.Success {
		c.logger.Debug("Daemon command failed", logfields.Command(command), logfields.ExitCode(res.ExitCode))
	}
	return res.Success
}

// Telemetry reads and parses the `acc -i` status dump.
func (c *Client) Telemetry(ctx context.Context) acc.Telemetry {
	return acc.ParseTelemetryLines(c.exec.Execute(ctx, "acc -i").Output)
}

// IsCharging reports whether the status dump contains STATUS=Charging.
func (c *Client) IsCharging(ctx context.Context) bool {
	for _, line := range c.exec.Execute(ctx, "acc -i").Output {
		if acc.IsChargingLine(line) {
			return true
		}
	}
	return false
}

// IsDaemonRunning checks the `acc -D` output for the running marker.
func (c *Client) IsDaemonRunning(ctx context.Context) bool {
	for _, line := range c.exec.Execute(ctx, "acc -D").Output {
		if strings.Contains(line, daemonRunningMarker) {
			return true
		}
	}
	return false
}

// DaemonAction is a daemon lifecycle verb accepted by `acc -D`.
type DaemonAction string

const (
	DaemonStart   DaemonAction = "start"
	DaemonStop    DaemonAction = "stop"
	DaemonRestart DaemonAction = "restart"
	DaemonToggle  DaemonAction = "toggle"
)

// ParseDaemonAction validates a lifecycle verb.
func ParseDaemonAction(s string) (DaemonAction, bool) {
	return daemonActions.Lookup(s)
}

var daemonActions = normalization.New("daemon action", map[string]DaemonAction{
	string(DaemonStart):   DaemonStart,
	string(DaemonStop):    DaemonStop,
	string(DaemonRestart): DaemonRestart,
	string(DaemonToggle):  DaemonToggle,
})

func (c *Client) StartDaemon(ctx context.Context) bool   { return c.Run(ctx, "acc -D start") }
func (c *Client) StopDaemon(ctx context.Context) bool    { return c.Run(ctx, "acc -D stop") }
func (c *Client) RestartDaemon(ctx context.Context) bool { return c.Run(ctx, "acc -D restart") }

// ToggleDaemon stops a running daemon or starts a stopped one.
func (c *Client) ToggleDaemon(ctx context.Context) bool {
	if c.IsDaemonRunning(ctx) {
		return c.StopDaemon(ctx)
	}
	return c.StartDaemon(ctx)
}

// ControlDaemon dispatches a lifecycle verb.
func (c *Client) ControlDaemon(ctx context.Context, action DaemonAction) bool {
	switch action {
	case DaemonStart:
		return c.StartDaemon(ctx)
	case DaemonStop:
		return c.StopDaemon(ctx)
	case DaemonRestart:
		return c.RestartDaemon(ctx)
	case DaemonToggle:
		return c.ToggleDaemon(ctx)
	default:
		return false
	}
}

// ListChargingSwitches returns the switches the daemon knows, or none on failure.
func (c *Client) ListChargingSwitches(ctx context.Context) []string {
	return nonEmptyLines(c.exec.Execute(ctx, "acc -s s:"))
}

// TestChargingSwitch returns the raw exit code of `acc -t [switch]`;
// the daemon encodes the test verdict in it.
func (c *Client) TestChargingSwitch(ctx context.Context, sw *string) int {
	return c.exec.Execute(ctx, acc.TestChargingSwitchCommand(sw)).ExitCode
}

// ListVoltageControlFiles returns the candidate voltage control files.
func (c *Client) ListVoltageControlFiles(ctx context.Context) []string {
	return nonEmptyLines(c.exec.Execute(ctx, "acc -v :"))
}

// ResetBatteryStats clears the battery statistics.
func (c *Client) ResetBatteryStats(ctx context.Context) bool {
	return c.Run(ctx, "acc -R")
}

// ChargeOnce charges to limit percent for the current cycle only.
func (c *Client) ChargeOnce(ctx context.Context, limit int) bool {
	return c.Run(ctx, acc.ChargeOnceCommand(limit))
}

// IsInstalled probes for the acc binary.
func (c *Client) IsInstalled(ctx context.Context) bool {
	return c.Run(ctx, "which acc 1>/dev/null")
}

// InstalledPendingReboot reports whether the module was installed but the
// device has not been rebooted yet.
func (c *Client) InstalledPendingReboot(ctx context.Context) bool {
	return c.exec.Execute(ctx, "test -f /dev/acc/installed").ExitCode == 0
}

func nonEmptyLines(res executor.Result) []string {
	if !res.Success {
		return nil
	}
	out := make([]string, 0, len(res.Output))
	for _, line := range res.Output {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}
