package acc

import (
	"regexp"
	"strconv"
	"strings"
)

// Sentinels for telemetry fields missing from the status dump.
const (
	UnknownNumber = -1
	UnknownString = "Unknown"
	// DefaultStatus is reported when no STATUS line can be read.
	DefaultStatus = "Discharging"
)

// Charging statuses reported by the daemon.
const (
	StatusCharging    = "Charging"
	StatusDischarging = "Discharging"
	StatusNotCharging = "Not charging"
)

// Telemetry is an immutable snapshot of the `acc -i` status dump.
//
// Boolean flags are true exactly when the daemon reports the digit 0, which
// matches what the shipped front end shows. The undecoded digits are kept in
// Flags, keyed by the daemon's field name, with -1 for absent fields.
type Telemetry struct {
	Name                     string `json:"name"`
	InputSuspended           bool   `json:"inputSuspended"`
	Status                   string `json:"status"`
	Health                   string `json:"health"`
	Present                  int    `json:"present"`
	ChargeType               string `json:"chargeType"`
	Capacity                 int    `json:"capacity"`
	ChargerTemp              int    `json:"chargerTemp"`
	ChargerTempMax           int    `json:"chargerTempMax"`
	InputCurrentLimited      bool   `json:"inputCurrentLimited"`
	VoltageNow               int    `json:"voltageNow"`
	VoltageMax               int    `json:"voltageMax"`
	VoltageQnovo             int    `json:"voltageQnovo"`
	CurrentNow               int    `json:"currentNow"`
	CurrentQnovo             int    `json:"currentQnovo"`
	ConstantChargeCurrentMax int    `json:"constantChargeCurrentMax"`
	Temperature              int    `json:"temperature"`
	Technology               string `json:"technology"`
	StepChargingEnabled      bool   `json:"stepChargingEnabled"`
	SwJeitaEnabled           bool   `json:"swJeitaEnabled"`
	TaperControlEnabled      bool   `json:"taperControlEnabled"`
	ChargeDisable            bool   `json:"chargeDisable"`
	ChargeDone               bool   `json:"chargeDone"`
	ParallelDisable          bool   `json:"parallelDisable"`
	SetShipMode              bool   `json:"setShipMode"`
	DieHealth                string `json:"dieHealth"`
	RerunAICL                bool   `json:"rerunAICL"`
	DpDm                     bool   `json:"dpDm"`
	ChargeControlLimitMax    int    `json:"chargeControlLimitMax"`
	ChargeControlLimit       int    `json:"chargeControlLimit"`
	ChargeCounter            int    `json:"chargeCounter"`
	InputCurrentMax          int    `json:"inputCurrentMax"`
	CycleCount               int    `json:"cycleCount"`

	Flags map[string]int `json:"flags"`
}

// IsCharging reports whether the battery status is Charging.
func (t Telemetry) IsCharging() bool {
	return t.Status == StatusCharging
}

// CurrentMilliAmps converts CURRENT_NOW (µA) to mA.
func (t Telemetry) CurrentMilliAmps() int {
	return t.CurrentNow / 1000
}

// VoltageVolts converts VOLTAGE_NOW (µV) to volts, or -1 when unknown.
func (t Telemetry) VoltageVolts() float64 {
	if t.VoltageNow < 0 {
		return UnknownNumber
	}
	return float64(t.VoltageNow) / 1_000_000
}

// Flag returns the raw digit reported for a boolean field, or -1.
func (t Telemetry) Flag(key string) int {
	if v, ok := t.Flags[key]; ok {
		return v
	}
	return UnknownNumber
}

type telemetryField struct {
	key     string
	pattern *regexp.Regexp
	set     func(t *Telemetry, raw string, found bool)
}

func keyPattern(key, value string) *regexp.Regexp {
	return linePattern(regexp.QuoteMeta(key) + `=(` + value + `)`)
}

func numberField(key string, target func(*Telemetry) *int) telemetryField {
	return scaledField(key, `-?\d+`, 1, target)
}

func scaledField(key, value string, divisor int, target func(*Telemetry) *int) telemetryField {
	return telemetryField{key: key, pattern: keyPattern(key, value), set: func(t *Telemetry, raw string, found bool) {
		v, err := strconv.Atoi(raw)
		if !found || err != nil {
			*target(t) = UnknownNumber
			return
		}
		*target(t) = v / divisor
	}}
}

func textField(key, value, fallback string, target func(*Telemetry) *string) telemetryField {
	return telemetryField{key: key, pattern: keyPattern(key, value), set: func(t *Telemetry, raw string, found bool) {
		if !found {
			*target(t) = fallback
			return
		}
		*target(t) = raw
	}}
}

func flagField(key, value string, target func(*Telemetry) *bool) telemetryField {
	return telemetryField{key: key, pattern: keyPattern(key, value), set: func(t *Telemetry, raw string, found bool) {
		digit := UnknownNumber
		if found {
			if v, err := strconv.Atoi(raw); err == nil {
				digit = v
			}
		}
		t.Flags[key] = digit
		*target(t) = digit == 0
	}}
}

var telemetryFields = []telemetryField{
	textField("NAME", `[a-zA-Z0-9]+`, UnknownString, func(t *Telemetry) *string { return &t.Name }),
	flagField("INPUT_SUSPEND", `0|1`, func(t *Telemetry) *bool { return &t.InputSuspended }),
	textField("STATUS", `Charging|Discharging|Not charging`, DefaultStatus, func(t *Telemetry) *string { return &t.Status }),
	textField("HEALTH", `[a-zA-Z]+`, UnknownString, func(t *Telemetry) *string { return &t.Health }),
	numberField("PRESENT", func(t *Telemetry) *int { return &t.Present }),
	textField("CHARGE_TYPE", `N/A|[a-zA-Z]+`, UnknownString, func(t *Telemetry) *string { return &t.ChargeType }),
	numberField("CAPACITY", func(t *Telemetry) *int { return &t.Capacity }),
	scaledField("CHARGER_TEMP", `\d+`, 10, func(t *Telemetry) *int { return &t.ChargerTemp }),
	scaledField("CHARGER_TEMP_MAX", `\d+`, 10, func(t *Telemetry) *int { return &t.ChargerTempMax }),
	flagField("INPUT_CURRENT_LIMITED", `0|1`, func(t *Telemetry) *bool { return &t.InputCurrentLimited }),
	numberField("VOLTAGE_NOW", func(t *Telemetry) *int { return &t.VoltageNow }),
	numberField("VOLTAGE_MAX", func(t *Telemetry) *int { return &t.VoltageMax }),
	numberField("VOLTAGE_QNOVO", func(t *Telemetry) *int { return &t.VoltageQnovo }),
	numberField("CURRENT_NOW", func(t *Telemetry) *int { return &t.CurrentNow }),
	numberField("CURRENT_QNOVO", func(t *Telemetry) *int { return &t.CurrentQnovo }),
	numberField("CONSTANT_CHARGE_CURRENT_MAX", func(t *Telemetry) *int { return &t.ConstantChargeCurrentMax }),
	scaledField("TEMP", `-?\d+`, 10, func(t *Telemetry) *int { return &t.Temperature }),
	textField("TECHNOLOGY", `[a-zA-Z\-]+`, UnknownString, func(t *Telemetry) *string { return &t.Technology }),
	flagField("STEP_CHARGING_ENABLED", `0|1`, func(t *Telemetry) *bool { return &t.StepChargingEnabled }),
	flagField("SW_JEITA_ENABLED", `0|1`, func(t *Telemetry) *bool { return &t.SwJeitaEnabled }),
	flagField("TAPER_CONTROL_ENABLED", `0|1`, func(t *Telemetry) *bool { return &t.TaperControlEnabled }),
	flagField("CHARGE_DISABLE", `0|1`, func(t *Telemetry) *bool { return &t.ChargeDisable }),
	flagField("CHARGE_DONE", `0|1`, func(t *Telemetry) *bool { return &t.ChargeDone }),
	flagField("PARALLEL_DISABLE", `0|1`, func(t *Telemetry) *bool { return &t.ParallelDisable }),
	flagField("SET_SHIP_MODE", `0|1`, func(t *Telemetry) *bool { return &t.SetShipMode }),
	textField("DIE_HEALTH", `[a-zA-Z]+`, UnknownString, func(t *Telemetry) *string { return &t.DieHealth }),
	flagField("RERUN_AICL", `0|1`, func(t *Telemetry) *bool { return &t.RerunAICL }),
	flagField("DP_DM", `\d+`, func(t *Telemetry) *bool { return &t.DpDm }),
	numberField("CHARGE_CONTROL_LIMIT_MAX", func(t *Telemetry) *int { return &t.ChargeControlLimitMax }),
	numberField("CHARGE_CONTROL_LIMIT", func(t *Telemetry) *int { return &t.ChargeControlLimit }),
	numberField("CHARGE_COUNTER", func(t *Telemetry) *int { return &t.ChargeCounter }),
	numberField("INPUT_CURRENT_MAX", func(t *Telemetry) *int { return &t.InputCurrentMax }),
	numberField("CYCLE_COUNT", func(t *Telemetry) *int { return &t.CycleCount }),
}

// ParseTelemetry maps an `acc -i` dump onto a Telemetry value. Every field
// falls back independently; the call never fails.
func ParseTelemetry(text string) Telemetry {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	t := Telemetry{Flags: make(map[string]int)}
	for _, f := range telemetryFields {
		m := f.pattern.FindStringSubmatch(text)
		if m == nil {
			f.set(&t, "", false)
			continue
		}
		f.set(&t, m[1], true)
	}
	return t
}

// ParseTelemetryLines is ParseTelemetry over executor output lines.
func ParseTelemetryLines(lines []string) Telemetry {
	return ParseTelemetry(strings.Join(lines, "\n"))
}

// IsChargingLine reports whether a single dump line is exactly STATUS=Charging.
func IsChargingLine(line string) bool {
	return strings.TrimSpace(line) == "STATUS="+StatusCharging
}
