package accd

import (
	"context"
	"os"
	"strings"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/logfields"
)

// ReadRawConfig returns config.txt split into lines, or no lines if the file is absent.
func (c *Client) ReadRawConfig() ([]string, error) {
	data, err := os.ReadFile(c.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read daemon config").
			WithContext("path", c.configPath).Build()
	}
	return strings.Split(string(data), "\n"), nil
}

// WriteRawConfig replaces config.txt with lines. It returns false without
// writing when the file does not already exist; it never creates one.
func (c *Client) WriteRawConfig(lines []string) (bool, error) {
	f, err := os.OpenFile(c.configPath, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Warn("Refusing to create daemon config", logfields.Path(c.configPath))
			return false, nil
		}
		return false, errors.WrapError(err, errors.CategoryFileSystem, "open daemon config").
			WithContext("path", c.configPath).Build()
	}
	if _, err := f.WriteString(strings.Join(lines, "\n")); err != nil {
		_ = f.Close()
		return false, errors.WrapError(err, errors.CategoryFileSystem, "write daemon config").
			WithContext("path", c.configPath).Build()
	}
	if err := f.Close(); err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "close daemon config").
			WithContext("path", c.configPath).Build()
	}
	return true, nil
}

// ReadConfig reads and parses the live config. Parse failures are returned
// as CategoryParse errors; callers that need a renderable value fall back to
// acc.DefaultConfig.
func (c *Client) ReadConfig(_ context.Context) (acc.Config, error) {
	lines, err := c.ReadRawConfig()
	if err != nil {
		return acc.Config{}, err
	}
	return acc.ParseConfigLines(lines)
}

// UpdateCapacity pushes the four capacity thresholds.
func (c *Client) UpdateCapacity(ctx context.Context, v acc.Capacity) bool {
	return c.Run(ctx, acc.CapacityCommand(v.Shutdown, v.CoolDown, v.Resume, v.Pause))
}

// UpdateCooldown pushes the cooldown charge/pause cycle.
func (c *Client) UpdateCooldown(ctx context.Context, v acc.Cooldown) bool {
	return c.Run(ctx, acc.CooldownCommand(v.ChargeSeconds, v.PauseSeconds))
}

// ClearCooldown removes the cooldown cycle.
func (c *Client) ClearCooldown(ctx context.Context) bool {
	return c.Run(ctx, acc.ClearCooldownCommand())
}

// UpdateTemp pushes the temperature limits in whole degrees.
func (c *Client) UpdateTemp(ctx context.Context, v acc.Temp) bool {
	return c.Run(ctx, acc.TempCommand(v.CoolDownTemp, v.PauseChargingTemp, v.WaitSeconds))
}

// UpdateResetUnplugged toggles the stats reset on unplug.
func (c *Client) UpdateResetUnplugged(ctx context.Context, v bool) bool {
	return c.Run(ctx, acc.ResetUnpluggedCommand(v))
}

// UpdateOnBootExit toggles exiting after the boot command.
func (c *Client) UpdateOnBootExit(ctx context.Context, v bool) bool {
	return c.Run(ctx, acc.OnBootExitCommand(v))
}

// UpdateOnBoot sets or, for nil, clears the boot command.
func (c *Client) UpdateOnBoot(ctx context.Context, v *string) bool {
	return c.Run(ctx, acc.OnBootCommand(v))
}

// UpdateOnPlugged sets or, for nil, clears the plug-in command.
func (c *Client) UpdateOnPlugged(ctx context.Context, v *string) bool {
	return c.Run(ctx, acc.OnPluggedCommand(v))
}

// UpdateVoltage sets or, for nil, removes the voltage limit.
func (c *Client) UpdateVoltage(ctx context.Context, v *acc.VoltControl) bool {
	if v == nil {
		return c.Run(ctx, acc.VoltageCommand(nil, nil))
	}
	return c.Run(ctx, acc.VoltageCommand(v.ControlFile, v.MaxMilliVolts))
}

// UpdateChargingSwitch sets or, for nil, unsets the charging switch.
func (c *Client) UpdateChargingSwitch(ctx context.Context, sw *string) bool {
	return c.Run(ctx, acc.ChargingSwitchCommand(sw))
}
