package acc

import (
	"fmt"
	"strconv"
)

// CapacityCommand encodes all four capacity thresholds positionally.
func CapacityCommand(shutdown, coolDown, resume, pause int) string {
	return fmt.Sprintf("acc -s capacity %d,%d,%d-%d", shutdown, coolDown, resume, pause)
}

// CooldownCommand sets the cooldown charge/pause cycle in seconds.
func CooldownCommand(chargeSeconds, pauseSeconds int) string {
	return fmt.Sprintf("acc -s coolDown %d/%d", chargeSeconds, pauseSeconds)
}

// ClearCooldownCommand removes the cooldown cycle.
func ClearCooldownCommand() string {
	return "acc -s coolDown"
}

// TempCommand re-encodes whole degrees as the daemon's deci-degrees.
func TempCommand(coolDownTemp, pauseChargingTemp, waitSeconds int) string {
	return fmt.Sprintf("acc -s temp %d-%d_%d", coolDownTemp*10, pauseChargingTemp*10, waitSeconds)
}

// ResetUnpluggedCommand toggles the battery stats reset on unplug.
func ResetUnpluggedCommand(v bool) string {
	return "acc -s resetUnplugged " + strconv.FormatBool(v)
}

// OnBootExitCommand toggles whether accd exits after running the boot command.
func OnBootExitCommand(v bool) string {
	return "acc -s onBootExit " + strconv.FormatBool(v)
}

// OnBootCommand sets or, for nil, clears the boot-time command.
func OnBootCommand(cmd *string) string {
	return withOptional("acc -s onBoot", cmd)
}

// OnPluggedCommand sets or, for nil, clears the plug-in command.
func OnPluggedCommand(cmd *string) string {
	return withOptional("acc -s onPlugged", cmd)
}

// VoltageCommand sets the voltage limit. With a control file the daemon gets
// "file:mv"; with only a limit it gets "mv"; with neither the limit is removed.
func VoltageCommand(controlFile *string, maxMilliVolts *int) string {
	switch {
	case controlFile != nil && maxMilliVolts != nil:
		return fmt.Sprintf("acc --set cVolt %s:%d", *controlFile, *maxMilliVolts)
	case maxMilliVolts != nil:
		return fmt.Sprintf("acc --set cVolt %d", *maxMilliVolts)
	default:
		return "acc --set cVolt"
	}
}

// SetChargingSwitchCommand pins the daemon to one charging switch.
func SetChargingSwitchCommand(sw string) string {
	return "acc -s s " + sw
}

// UnsetChargingSwitchCommand returns switch selection to the daemon.
func UnsetChargingSwitchCommand() string {
	return "acc -s s-"
}

// ChargingSwitchCommand picks set or unset based on presence.
func ChargingSwitchCommand(sw *string) string {
	if sw == nil || *sw == "" {
		return UnsetChargingSwitchCommand()
	}
	return SetChargingSwitchCommand(*sw)
}

// ChargeOnceCommand charges to limit percent a single time, ignoring the pause threshold.
func ChargeOnceCommand(limit int) string {
	return fmt.Sprintf("acc -f %d", limit)
}

// TestChargingSwitchCommand tests the given switch, or every known switch for nil.
func TestChargingSwitchCommand(sw *string) string {
	return withOptional("acc -t", sw)
}

// GroupCommand pairs a field group with the command that pushes it.
type GroupCommand struct {
	Group   string
	Command string
}

// GroupCommands returns one command per field group, in push order.
func GroupCommands(cfg Config) []GroupCommand {
	cooldown := ClearCooldownCommand()
	if cfg.Cooldown != nil {
		cooldown = CooldownCommand(cfg.Cooldown.ChargeSeconds, cfg.Cooldown.PauseSeconds)
	}
	var file *string
	var mv *int
	if cfg.VoltControl != nil {
		file, mv = cfg.VoltControl.ControlFile, cfg.VoltControl.MaxMilliVolts
	}
	c := cfg.Capacity
	return []GroupCommand{
		{GroupCapacity, CapacityCommand(c.Shutdown, c.CoolDown, c.Resume, c.Pause)},
		{GroupCooldown, cooldown},
		{GroupTemp, TempCommand(cfg.Temp.CoolDownTemp, cfg.Temp.PauseChargingTemp, cfg.Temp.WaitSeconds)},
		{GroupResetUnplugged, ResetUnpluggedCommand(cfg.ResetUnplugged)},
		{GroupOnBootExit, OnBootExitCommand(cfg.OnBootExit)},
		{GroupOnBoot, OnBootCommand(cfg.OnBoot)},
		{GroupOnPlugged, OnPluggedCommand(cfg.OnPlugged)},
		{GroupChargingSwitch, ChargingSwitchCommand(cfg.ChargingSwitch)},
		{GroupVoltControl, VoltageCommand(file, mv)},
	}
}

// Commands returns the full push sequence for cfg, e.g. for scheduling a profile.
func Commands(cfg Config) []string {
	groups := GroupCommands(cfg)
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Command)
	}
	return out
}

func withOptional(base string, v *string) string {
	if v == nil || *v == "" {
		return base
	}
	return base + " " + *v
}
