package domain

import "fmt"

// MetricUnit describes how one metric key is presented. Raw values arrive in
// the bus's SI units (kelvin, pascal, m3/h); conversion happens on demand at
// display time, never at storage time.
type MetricUnit struct {
	Mnemonic string
	Symbol   string
	Convert  func(float64) float64
	Decimals int
}

func identity(v float64) float64    { return v }
func kelvinToC(v float64) float64   { return v - 273.15 }
func pascalToKPa(v float64) float64 { return v / 1000 }
func m3hToLh(v float64) float64     { return v * 1000 }

var metricUnits = map[string]MetricUnit{
	MetricRPM:               {Mnemonic: "RPM", Symbol: "rpm", Convert: identity, Decimals: 0},
	MetricCoolantTemp:       {Mnemonic: "ECT", Symbol: "°C", Convert: kelvinToC, Decimals: 1},
	MetricOilPressure:       {Mnemonic: "EOP", Symbol: "kPa", Convert: pascalToKPa, Decimals: 0},
	MetricAlternatorVoltage: {Mnemonic: "ALT", Symbol: "V", Convert: identity, Decimals: 1},
	MetricFuelRate:          {Mnemonic: "FLOW", Symbol: "L/h", Convert: m3hToLh, Decimals: 1},
	MetricEngineHours:       {Mnemonic: "EHR", Symbol: "h", Convert: identity, Decimals: 0},
	MetricVoltage:           {Mnemonic: "VLT", Symbol: "V", Convert: identity, Decimals: 2},
	MetricCurrent:           {Mnemonic: "AMP", Symbol: "A", Convert: identity, Decimals: 1},
	MetricBatteryTemp:       {Mnemonic: "TMP", Symbol: "°C", Convert: kelvinToC, Decimals: 1},
	MetricStateOfCharge:     {Mnemonic: "SOC", Symbol: "%", Convert: identity, Decimals: 0},
	MetricLevel:             {Mnemonic: "LVL", Symbol: "%", Convert: identity, Decimals: 0},
	MetricCapacity:          {Mnemonic: "CAP", Symbol: "L", Convert: identity, Decimals: 0},
}

// Metric keys follow the schema vocabulary of the instrument registry.
const (
	MetricRPM               = "rpm"
	MetricCoolantTemp       = "coolantTemp"
	MetricOilPressure       = "oilPressure"
	MetricAlternatorVoltage = "alternatorVoltage"
	MetricFuelRate          = "fuelRate"
	MetricEngineHours       = "hours"
	MetricVoltage           = "voltage"
	MetricCurrent           = "current"
	MetricBatteryTemp       = "temperature"
	MetricStateOfCharge     = "stateOfCharge"
	MetricLevel             = "level"
	MetricCapacity          = "capacity"
)

// UnitFor returns the display unit for a metric key, with a dimensionless
// fallback for keys outside the registry.
func UnitFor(key string) MetricUnit {
	if u, ok := metricUnits[key]; ok {
		return u
	}
	return MetricUnit{Mnemonic: "VAL", Convert: identity, Decimals: 2}
}

// FormatMetric converts a raw value to its display unit and renders it with
// the key's unit symbol, e.g. FormatMetric("coolantTemp", 358.15) → "85.0 °C".
func FormatMetric(key string, raw float64) string {
	u := UnitFor(key)
	v := u.Convert(raw)
	if u.Symbol == "" {
		return fmt.Sprintf("%.*f", u.Decimals, v)
	}
	return fmt.Sprintf("%.*f %s", u.Decimals, v, u.Symbol)
}
