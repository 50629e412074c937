package acc

import (
	"fmt"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
)

// CoolDownDisabled is the capacity coolDown sentinel meaning "no cooldown phase".
const CoolDownDisabled = 101

// Capacity holds the percentage thresholds of the charging cycle.
type Capacity struct {
	Shutdown int `json:"shutdown"`
	CoolDown int `json:"coolDown"`
	Resume   int `json:"resume"`
	Pause    int `json:"pause"`
}

// Validate checks shutdown ≤ resume < pause and the percentage ranges.
// The parser never calls it; edit paths do.
func (c Capacity) Validate() error {
	for _, f := range []struct {
		name  string
		value int
	}{{"shutdown", c.Shutdown}, {"resume", c.Resume}, {"pause", c.Pause}} {
		if f.value < 0 || f.value > 100 {
			return errors.ValidationError(fmt.Sprintf("capacity %s out of range", f.name)).
				WithContext("value", f.value).Build()
		}
	}
	if c.CoolDown < 0 || c.CoolDown > CoolDownDisabled {
		return errors.ValidationError("capacity coolDown out of range").WithContext("value", c.CoolDown).Build()
	}
	if c.Shutdown > c.Resume {
		return errors.ValidationError("capacity shutdown must not exceed resume").
			WithContext("shutdown", c.Shutdown).WithContext("resume", c.Resume).Build()
	}
	if c.Resume >= c.Pause {
		return errors.ValidationError("capacity resume must be below pause").
			WithContext("resume", c.Resume).WithContext("pause", c.Pause).Build()
	}
	return nil
}

// CoolDownEnabled reports whether the coolDown threshold is active.
func (c Capacity) CoolDownEnabled() bool {
	return c.CoolDown < CoolDownDisabled
}

// Cooldown is the charge/pause cycle applied above the coolDown threshold.
type Cooldown struct {
	ChargeSeconds int `json:"chargeSeconds"`
	PauseSeconds  int `json:"pauseSeconds"`
}

// Temp holds temperature limits in whole degrees Celsius.
type Temp struct {
	CoolDownTemp      int `json:"coolDownTemp"`
	PauseChargingTemp int `json:"pauseChargingTemp"`
	WaitSeconds       int `json:"waitSeconds"`
}

// VoltControl limits the charging voltage; either part may be absent.
type VoltControl struct {
	ControlFile   *string `json:"controlFile,omitempty"`
	MaxMilliVolts *int    `json:"maxMilliVolts,omitempty"`
}

// Config is the daemon's mutable configuration.
type Config struct {
	Capacity       Capacity     `json:"capacity"`
	Cooldown       *Cooldown    `json:"cooldown,omitempty"`
	Temp           Temp         `json:"temp"`
	VoltControl    *VoltControl `json:"voltControl,omitempty"`
	ResetUnplugged bool         `json:"resetUnplugged"`
	OnBootExit     bool         `json:"onBootExit"`
	OnBoot         *string      `json:"onBoot,omitempty"`
	OnPlugged      *string      `json:"onPlugged,omitempty"`
	ChargingSwitch *string      `json:"chargingSwitch,omitempty"`
}

// DefaultConfig is the renderable fallback used when the live config cannot be parsed.
func DefaultConfig() Config {
	return Config{
		Capacity: Capacity{Shutdown: 5, CoolDown: 60, Resume: 70, Pause: 80},
		Cooldown: &Cooldown{ChargeSeconds: 50, PauseSeconds: 10},
		Temp:     Temp{CoolDownTemp: 40, PauseChargingTemp: 45, WaitSeconds: 90},
	}
}

// Validate checks the invariants an edited config must satisfy before it is pushed.
func (c Config) Validate() error {
	if err := c.Capacity.Validate(); err != nil {
		return err
	}
	if c.Cooldown != nil && (c.Cooldown.ChargeSeconds < 0 || c.Cooldown.PauseSeconds < 0) {
		return errors.ValidationError("cooldown seconds must not be negative").Build()
	}
	if c.Temp.WaitSeconds < 0 {
		return errors.ValidationError("temp wait seconds must not be negative").Build()
	}
	if c.Temp.CoolDownTemp > c.Temp.PauseChargingTemp {
		return errors.ValidationError("temp coolDown must not exceed pause temperature").
			WithContext("coolDownTemp", c.Temp.CoolDownTemp).
			WithContext("pauseChargingTemp", c.Temp.PauseChargingTemp).Build()
	}
	return nil
}

// Ptr returns a pointer to v. Handy for the optional string and int fields.
func Ptr[T any](v T) *T {
	return &v
}
