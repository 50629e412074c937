package session

import (
	"context"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/logfields"
)

// SetCapacity validates and pushes the capacity thresholds.
func (s *Session) SetCapacity(ctx context.Context, c acc.Capacity) (bool, error) {
	if err := c.Validate(); err != nil {
		return false, err
	}
	cmd := acc.CapacityCommand(c.Shutdown, c.CoolDown, c.Resume, c.Pause)
	return s.edit(ctx, acc.GroupCapacity, cmd, func(cfg *acc.Config) { cfg.Capacity = c }), nil
}

// SetCooldown pushes the cooldown cycle; nil removes it.
func (s *Session) SetCooldown(ctx context.Context, c *acc.Cooldown) bool {
	cmd := acc.ClearCooldownCommand()
	if c != nil {
		cmd = acc.CooldownCommand(c.ChargeSeconds, c.PauseSeconds)
	}
	return s.edit(ctx, acc.GroupCooldown, cmd, func(cfg *acc.Config) {
		if c == nil {
			cfg.Cooldown = nil
			return
		}
		v := *c
		cfg.Cooldown = &v
	})
}

// SetTemp pushes the temperature limits.
func (s *Session) SetTemp(ctx context.Context, t acc.Temp) bool {
	cmd := acc.TempCommand(t.CoolDownTemp, t.PauseChargingTemp, t.WaitSeconds)
	return s.edit(ctx, acc.GroupTemp, cmd, func(cfg *acc.Config) { cfg.Temp = t })
}

// SetResetUnplugged pushes the toggle and mirrors it in preferences.
func (s *Session) SetResetUnplugged(ctx context.Context, v bool) bool {
	ok := s.edit(ctx, acc.GroupResetUnplugged, acc.ResetUnpluggedCommand(v), func(cfg *acc.Config) { cfg.ResetUnplugged = v })
	if ok {
		if err := s.prefs.SetResetUnplugged(v); err != nil {
			s.logger.Error("Failed to mirror resetUnplugged", logfields.Error(err))
		}
	}
	return ok
}

// SetOnBootExit pushes the exit-after-boot toggle.
func (s *Session) SetOnBootExit(ctx context.Context, v bool) bool {
	return s.edit(ctx, acc.GroupOnBootExit, acc.OnBootExitCommand(v), func(cfg *acc.Config) { cfg.OnBootExit = v })
}

// SetOnBoot sets or, for nil, clears the boot command.
func (s *Session) SetOnBoot(ctx context.Context, v *string) bool {
	return s.edit(ctx, acc.GroupOnBoot, acc.OnBootCommand(v), func(cfg *acc.Config) { cfg.OnBoot = clonePtr(v) })
}

// SetOnPlugged sets or, for nil, clears the plug-in command.
func (s *Session) SetOnPlugged(ctx context.Context, v *string) bool {
	return s.edit(ctx, acc.GroupOnPlugged, acc.OnPluggedCommand(v), func(cfg *acc.Config) { cfg.OnPlugged = clonePtr(v) })
}

// SetVoltControl pushes the voltage limit; nil removes it.
func (s *Session) SetVoltControl(ctx context.Context, v *acc.VoltControl) bool {
	var cmd string
	if v == nil {
		cmd = acc.VoltageCommand(nil, nil)
	} else {
		cmd = acc.VoltageCommand(v.ControlFile, v.MaxMilliVolts)
	}
	return s.edit(ctx, acc.GroupVoltControl, cmd, func(cfg *acc.Config) {
		if v == nil {
			cfg.VoltControl = nil
			return
		}
		cfg.VoltControl = &acc.VoltControl{ControlFile: clonePtr(v.ControlFile), MaxMilliVolts: clonePtr(v.MaxMilliVolts)}
	})
}

// SetChargingSwitch sets the switch; nil unsets it.
func (s *Session) SetChargingSwitch(ctx context.Context, sw *string) bool {
	return s.edit(ctx, acc.GroupChargingSwitch, acc.ChargingSwitchCommand(sw), func(cfg *acc.Config) {
		cfg.ChargingSwitch = clonePtr(sw)
	})
}

// ApplyConfig pushes a whole edited config. It clears the selection like any
// other live edit.
func (s *Session) ApplyConfig(ctx context.Context, cfg acc.Config) (accd.ApplyResult, error) {
	if err := cfg.Validate(); err != nil {
		return accd.ApplyResult{}, err
	}
	res := s.push(ctx, cfg)
	s.clearSelection()
	return res, nil
}

func (s *Session) push(ctx context.Context, cfg acc.Config) accd.ApplyResult {
	res := s.daemon.ApplyConfig(ctx, cfg)
	if res.Successful() {
		s.mu.Lock()
		s.current, s.fallback = cfg, false
		s.mu.Unlock()
	}
	return res
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
