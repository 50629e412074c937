package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/server/responses"
)

// ConfigCmd implements the 'config' command group.
type ConfigCmd struct {
	Show  ConfigShowCmd  `cmd:"" default:"1" help:"Print the live acc config"`
	Raw   ConfigRawCmd   `cmd:"" help:"Print config.txt line by line"`
	Write ConfigWriteCmd `cmd:"" help:"Replace config.txt with lines from a file or stdin"`
	Apply ConfigApplyCmd `cmd:"" help:"Push every field group of a JSON config"`
	Set   ConfigSetCmd   `cmd:"" help:"Change a single field group"`
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(_ context.Context, a *app) error {
		return printJSON(g.out(), responses.ConfigResponse{
			Config:          a.session.Config(),
			Fallback:        a.session.UsingFallback(),
			SelectedProfile: a.session.SelectedProfile(),
		})
	})
}

type ConfigRawCmd struct{}

func (c *ConfigRawCmd) Run(g *Global, root *CLI) error {
	return withApp(g, root, func(_ context.Context, a *app) error {
		lines, err := a.client.ReadRawConfig()
		if err != nil {
			return err
		}
		_, err = io.WriteString(g.out(), strings.Join(lines, "\n"))
		return err
	})
}

type ConfigWriteCmd struct {
	File string `arg:"" optional:"" help:"File holding the new lines; stdin when omitted" type:"existingfile"`
}

func (c *ConfigWriteCmd) Run(g *Global, root *CLI) error {
	lines, err := readLines(c.File)
	if err != nil {
		return err
	}
	return withApp(g, root, func(ctx context.Context, a *app) error {
		written, err := a.session.WriteRawConfig(ctx, lines)
		if err != nil {
			return err
		}
		if !written {
			return errors.NotFoundError("acc config file").WithContext("path", a.client.ConfigPath()).Build()
		}
		return printJSON(g.out(), responses.ConfigResponse{
			Config:          a.session.Config(),
			Fallback:        a.session.UsingFallback(),
			SelectedProfile: a.session.SelectedProfile(),
		})
	})
}

// openInput opens path, or stdin when path is empty.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open input").WithContext("path", path).Build()
	}
	return f, nil
}

func readLines(path string) ([]string, error) {
	r, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read input").Build()
	}
	return lines, nil
}

type ConfigApplyCmd struct {
	File string `arg:"" optional:"" help:"JSON config file; stdin when omitted" type:"existingfile"`
}

func (c *ConfigApplyCmd) Run(g *Global, root *CLI) error {
	cfg, err := readConfigJSON(c.File)
	if err != nil {
		return err
	}
	return withApp(g, root, func(ctx context.Context, a *app) error {
		res, err := a.session.ApplyConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if err := printJSON(g.out(), responses.NewApplyResponse(res)); err != nil {
			return err
		}
		return res.Err()
	})
}

func readConfigJSON(path string) (acc.Config, error) {
	r, err := openInput(path)
	if err != nil {
		return acc.Config{}, err
	}
	defer func() { _ = r.Close() }()

	var cfg acc.Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return acc.Config{}, errors.WrapError(err, errors.CategoryValidation, "invalid config JSON").Build()
	}
	if err := cfg.Validate(); err != nil {
		return acc.Config{}, err
	}
	return cfg, nil
}

// ConfigSetCmd edits one field group of the live config.
type ConfigSetCmd struct {
	Capacity       SetCapacityCmd       `cmd:"" help:"Set shutdown, cool-down, resume and pause capacities"`
	Cooldown       SetCooldownCmd       `cmd:"" help:"Set or clear the cool-down charge/pause cycle"`
	Temp           SetTempCmd           `cmd:"" help:"Set temperature limits in whole degrees"`
	ResetUnplugged SetResetUnpluggedCmd `cmd:"" help:"Reset battery stats when unplugged"`
	OnBootExit     SetOnBootExitCmd     `cmd:"" help:"Exit the daemon after running the on-boot command"`
	OnBoot         SetOnBootCmd         `cmd:"" help:"Set or clear the on-boot command"`
	OnPlugged      SetOnPluggedCmd      `cmd:"" help:"Set or clear the on-plugged command"`
	Volt           SetVoltCmd           `cmd:"" help:"Set or clear the voltage limit"`
	Switch         SetSwitchCmd         `cmd:"" help:"Select a charging switch, or automatic selection when omitted"`
}

func runEdit(g *Global, root *CLI, group string, edit func(ctx context.Context, a *app) (bool, error)) error {
	return withApp(g, root, func(ctx context.Context, a *app) error {
		ok, err := edit(ctx, a)
		if err != nil {
			return err
		}
		if err := printJSON(g.out(), responses.EditResponse{Group: group, Success: ok}); err != nil {
			return err
		}
		if !ok {
			return editFailed(group)
		}
		return nil
	})
}

type SetCapacityCmd struct {
	Shutdown int `arg:"" help:"Shutdown capacity"`
	CoolDown int `arg:"" help:"Cool-down capacity (101 disables)"`
	Resume   int `arg:"" help:"Resume capacity"`
	Pause    int `arg:"" help:"Pause capacity"`
}

func (c *SetCapacityCmd) Run(g *Global, root *CLI) error {
	return runEdit(g, root, acc.GroupCapacity, func(ctx context.Context, a *app) (bool, error) {
		return a.session.SetCapacity(ctx, acc.Capacity{Shutdown: c.Shutdown, CoolDown: c.CoolDown, Resume: c.Resume, Pause: c.Pause})
	})
}

type SetCooldownCmd struct {
	ChargeSeconds int  `arg:"" optional:"" help:"Seconds to charge per cycle"`
	PauseSeconds  int  `arg:"" optional:"" help:"Seconds to pause per cycle"`
	Clear         bool `help:"Remove the cool-down cycle"`
}

func (c *SetCooldownCmd) Run(g *Global, root *CLI) error {
	var cd *acc.Cooldown
	if !c.Clear {
		if c.ChargeSeconds <= 0 || c.PauseSeconds <= 0 {
			return errors.ValidationError("cooldown needs positive charge and pause seconds, or --clear").Build()
		}
		cd = &acc.Cooldown{ChargeSeconds: c.ChargeSeconds, PauseSeconds: c.PauseSeconds}
	}
	return runEdit(g, root, acc.GroupCooldown, func(ctx context.Context, a *app) (bool, error) {
		return a.session.SetCooldown(ctx, cd), nil
	})
}

type SetTempCmd struct {
	CoolDown      int `arg:"" help:"Cool-down temperature"`
	PauseCharging int `arg:"" help:"Pause-charging temperature"`
	WaitSeconds   int `arg:"" help:"Seconds to wait before resuming"`
}

func (c *SetTempCmd) Run(g *Global, root *CLI) error {
	return runEdit(g, root, acc.GroupTemp, func(ctx context.Context, a *app) (bool, error) {
		return a.session.SetTemp(ctx, acc.Temp{CoolDownTemp: c.CoolDown, PauseChargingTemp: c.PauseCharging, WaitSeconds: c.WaitSeconds}), nil
	})
}

type SetResetUnpluggedCmd struct {
	State string `arg:"" enum:"on,off" help:"on or off"`
}

func (c *SetResetUnpluggedCmd) Run(g *Global, root *CLI) error {
	return runEdit(g, root, acc.GroupResetUnplugged, func(ctx context.Context, a *app) (bool, error) {
		return a.session.SetResetUnplugged(ctx, onOff(c.State)), nil
	})
}

type SetOnBootExitCmd struct {
	State string `arg:"" enum:"on,off" help:"on or off"`
}

func (c *SetOnBootExitCmd) Run(g *Global, root *CLI) error {
	return runEdit(g, root, acc.GroupOnBootExit, func(ctx context.Context, a *app) (bool, error) {
		return a.session.SetOnBootExit(ctx, onOff(c.State)), nil
	})
}

type SetOnBootCmd struct {
	Command string `arg:"" optional:"" help:"Shell command; cleared when omitted"`
}

func (c *SetOnBootCmd) Run(g *Global, root *CLI) error {
	return runEdit(g, root, acc.GroupOnBoot, func(ctx context.Context, a *app) (bool, error) {
		return a.session.SetOnBoot(ctx, optional(c.Command)), nil
	})
}

type SetOnPluggedCmd struct {
	Command string `arg:"" optional:"" help:"Shell command; cleared when omitted"`
}

func (c *SetOnPluggedCmd) Run(g *Global, root *CLI) error {
	return runEdit(g, root, acc.GroupOnPlugged, func(ctx context.Context, a *app) (bool, error) {
		return a.session.SetOnPlugged(ctx, optional(c.Command)), nil
	})
}

type SetVoltCmd struct {
	File       string `help:"Voltage control file"`
	MilliVolts int    `name:"millivolts" help:"Maximum charging voltage in mV"`
	Clear      bool   `help:"Remove the voltage limit"`
}

func (c *SetVoltCmd) Run(g *Global, root *CLI) error {
	var vc *acc.VoltControl
	if !c.Clear {
		if c.File == "" && c.MilliVolts == 0 {
			return errors.ValidationError("volt needs --file, --millivolts or --clear").Build()
		}
		vc = &acc.VoltControl{ControlFile: optional(c.File)}
		if c.MilliVolts != 0 {
			vc.MaxMilliVolts = acc.Ptr(c.MilliVolts)
		}
	}
	return runEdit(g, root, acc.GroupVoltControl, func(ctx context.Context, a *app) (bool, error) {
		return a.session.SetVoltControl(ctx, vc), nil
	})
}

type SetSwitchCmd struct {
	Switch string `arg:"" optional:"" help:"Switch as listed by 'switch list'"`
}

func (c *SetSwitchCmd) Run(g *Global, root *CLI) error {
	return runEdit(g, root, acc.GroupChargingSwitch, func(ctx context.Context, a *app) (bool, error) {
		return a.session.SetChargingSwitch(ctx, optional(c.Switch)), nil
	})
}
