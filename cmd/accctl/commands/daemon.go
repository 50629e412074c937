package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/server/responses"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Action string `arg:"" optional:"" default:"status" enum:"status,start,stop,restart,toggle" help:"status, start, stop, restart or toggle"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		if d.Action == "status" {
			return printJSON(g.out(), responses.DaemonStatusResponse{Running: a.client.IsDaemonRunning(ctx)})
		}
		action, ok := accd.ParseDaemonAction(d.Action)
		if !ok {
			return errors.ValidationError("unknown daemon action").WithContext("action", d.Action).Build()
		}
		done := a.client.ControlDaemon(ctx, action)
		if err := printJSON(g.out(), responses.ResultResponse{Success: done}); err != nil {
			return err
		}
		if !done {
			return errors.ExecutionError("daemon control failed").WithContext("action", d.Action).Build()
		}
		return nil
	})
}

// TelemetryCmd implements the 'telemetry' command.
type TelemetryCmd struct{}

func (t *TelemetryCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		return printJSON(g.out(), responses.TelemetryResponse{
			Telemetry:     a.client.Telemetry(ctx),
			DaemonRunning: a.client.IsDaemonRunning(ctx),
			TakenAt:       time.Now(),
		})
	})
}

// SwitchCmd implements the 'switch' command group.
type SwitchCmd struct {
	List SwitchListCmd `cmd:"" default:"1" help:"List charging switches known to acc"`
	Test SwitchTestCmd `cmd:"" help:"Test a switch, or the configured one when omitted"`
}

type SwitchListCmd struct{}

func (s *SwitchListCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		return printJSON(g.out(), responses.ListResponse{Items: nonNil(a.client.ListChargingSwitches(ctx))})
	})
}

type SwitchTestCmd struct {
	Switch string `arg:"" optional:"" help:"Switch as listed by 'switch list'"`
}

func (s *SwitchTestCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		sw := optional(s.Switch)
		code := a.client.TestChargingSwitch(ctx, sw)
		return printJSON(g.out(), responses.SwitchTestResponse{Switch: sw, ExitCode: code, Works: code == 0})
	})
}

// VoltCmd implements the 'volt' command.
type VoltCmd struct{}

func (v *VoltCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		return printJSON(g.out(), responses.ListResponse{Items: nonNil(a.client.ListVoltageControlFiles(ctx))})
	})
}

// ChargeOnceCmd implements the 'charge-once' command.
type ChargeOnceCmd struct {
	Limit int `arg:"" help:"Capacity to charge to (1-100)"`
}

func (c *ChargeOnceCmd) Run(g *Global, root *CLI) error {
	if c.Limit < 1 || c.Limit > 100 {
		return errors.ValidationError("limit must be between 1 and 100").WithContext("limit", c.Limit).Build()
	}
	return withApp(g, root, func(ctx context.Context, a *app) error {
		return reportResult(g, a.client.ChargeOnce(ctx, c.Limit), "charge once")
	})
}

// ResetStatsCmd implements the 'reset-stats' command.
type ResetStatsCmd struct{}

func (r *ResetStatsCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		return reportResult(g, a.client.ResetBatteryStats(ctx), "reset battery stats")
	})
}

func reportResult(g *Global, ok bool, op string) error {
	if err := printJSON(g.out(), responses.ResultResponse{Success: ok}); err != nil {
		return err
	}
	if !ok {
		return errors.ExecutionError(op + " failed").Build()
	}
	return nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
