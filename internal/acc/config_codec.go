package acc

import (
	"regexp"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
)

// Field group names, shared by parse rules, command builders and apply results.
const (
	GroupCapacity       = "capacity"
	GroupCooldown       = "cooldown"
	GroupTemp           = "temp"
	GroupResetUnplugged = "resetUnplugged"
	GroupOnBootExit     = "onBootExit"
	GroupOnBoot         = "onBoot"
	GroupOnPlugged      = "onPlugged"
	GroupChargingSwitch = "chargingSwitch"
	GroupVoltControl    = "voltControl"
)

// Fallbacks applied when a temp capture is missing or not numeric.
const (
	fallbackCoolDownTemp      = 90
	fallbackPauseChargingTemp = 95
	fallbackWaitSeconds       = 90
)

// fieldRule extracts one field group from the config text. Rules run
// independently over a fallback-initialised Config; apply receives the
// submatches of the first match, or nil when nothing matched.
type fieldRule struct {
	group   string
	pattern *regexp.Regexp
	apply   func(cfg *Config, m []string) error
}

func linePattern(body string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*` + body)
}

var configRules = []fieldRule{
	{GroupCapacity, linePattern(`capacity=(\d*),(\d*),(\d+)-(\d+)`), applyCapacity},
	{GroupCooldown, linePattern(`coolDown=(\d*)/(\d*)`), applyCooldown},
	{GroupTemp, linePattern(`temp=(\d*)-(\d*)_(\d*)`), applyTemp},
	{GroupResetUnplugged, linePattern(`resetUnplugged=(true|false)`), func(cfg *Config, m []string) error {
		cfg.ResetUnplugged = m != nil && m[1] == "true"
		return nil
	}},
	{GroupOnBootExit, linePattern(`onBootExit=(true|false)`), func(cfg *Config, m []string) error {
		cfg.OnBootExit = m != nil && m[1] == "true"
		return nil
	}},
	{GroupOnBoot, linePattern(`onBoot=([^#\n]*)`), func(cfg *Config, m []string) error {
		cfg.OnBoot = optionalText(m)
		return nil
	}},
	{GroupOnPlugged, linePattern(`onPlugged=([^#\n]*)`), func(cfg *Config, m []string) error {
		cfg.OnPlugged = optionalText(m)
		return nil
	}},
	{GroupChargingSwitch, linePattern(`switch=([^#\n]*)`), func(cfg *Config, m []string) error {
		cfg.ChargingSwitch = optionalText(m)
		return nil
	}},
	{GroupVoltControl, linePattern(`cVolt=([^:#\s]+):(\d+)`), applyVoltControl},
}

// bareVoltPattern matches a cVolt line carrying only the millivolt limit.
var bareVoltPattern = linePattern(`cVolt=(\d+)[ \t]*(?:#|$)`)

// ParseConfig maps config.txt content onto a Config. Only a missing or
// malformed capacity resume/pause pair fails the parse; every other group
// degrades to its documented fallback.
func ParseConfig(text string) (Config, error) {
	cfg := Config{
		Capacity: Capacity{CoolDown: CoolDownDisabled},
		Temp: Temp{
			CoolDownTemp:      fallbackCoolDownTemp,
			PauseChargingTemp: fallbackPauseChargingTemp,
			WaitSeconds:       fallbackWaitSeconds,
		},
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	for _, rule := range configRules {
		m := rule.pattern.FindStringSubmatch(text)
		if err := rule.apply(&cfg, m); err != nil {
			return Config{}, err
		}
	}
	if cfg.VoltControl == nil {
		if m := bareVoltPattern.FindStringSubmatch(text); m != nil {
			if mv, ok := atoi(m[1]); ok {
				cfg.VoltControl = &VoltControl{MaxMilliVolts: &mv}
			}
		}
	}
	return cfg, nil
}

// ParseConfigLines is ParseConfig over the line slice returned by a raw read.
func ParseConfigLines(lines []string) (Config, error) {
	return ParseConfig(strings.Join(lines, "\n"))
}

func applyCapacity(cfg *Config, m []string) error {
	if m == nil {
		return errors.ParseError("capacity line missing").WithContext("group", GroupCapacity).Build()
	}
	resume, okResume := atoi(m[3])
	pause, okPause := atoi(m[4])
	if !okResume || !okPause {
		return errors.ParseError("capacity resume/pause not numeric").
			WithContext("group", GroupCapacity).
			WithContext("match", m[0]).Build()
	}
	cfg.Capacity.Resume = resume
	cfg.Capacity.Pause = pause
	if v, ok := atoi(m[1]); ok {
		cfg.Capacity.Shutdown = v
	}
	if v, ok := atoi(m[2]); ok {
		cfg.Capacity.CoolDown = v
	}
	return nil
}

func applyCooldown(cfg *Config, m []string) error {
	if m == nil {
		return nil
	}
	charge, okCharge := atoi(m[1])
	pause, okPause := atoi(m[2])
	if okCharge && okPause {
		cfg.Cooldown = &Cooldown{ChargeSeconds: charge, PauseSeconds: pause}
	}
	return nil
}

func applyTemp(cfg *Config, m []string) error {
	if m == nil {
		return nil
	}
	if v, ok := atoi(m[1]); ok {
		cfg.Temp.CoolDownTemp = v / 10
	}
	if v, ok := atoi(m[2]); ok {
		cfg.Temp.PauseChargingTemp = v / 10
	}
	if v, ok := atoi(m[3]); ok {
		cfg.Temp.WaitSeconds = v
	}
	return nil
}

func applyVoltControl(cfg *Config, m []string) error {
	if m == nil {
		return nil
	}
	file := m[1]
	vc := &VoltControl{ControlFile: &file}
	if mv, ok := atoi(m[2]); ok {
		vc.MaxMilliVolts = &mv
	}
	cfg.VoltControl = vc
	return nil
}

func optionalText(m []string) *string {
	if m == nil {
		return nil
	}
	v := strings.TrimSpace(m[1])
	if v == "" {
		return nil
	}
	return &v
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
