package marinecore

import (
	"marinecore/internal/detect"
	"marinecore/internal/domain"
	"marinecore/internal/ports"
)

// Snapshot is the per-tick view of detected instruments handed to
// subscribers and the diagnostics API.
type Snapshot = domain.Snapshot

// InstanceDescriptor is the user-facing identity of one detected instrument.
type InstanceDescriptor = domain.InstanceDescriptor

// RuntimeMetrics aggregates detection and cleanup counters.
type RuntimeMetrics = domain.RuntimeMetrics

// RawRecord is one decoded telemetry frame published into the record store.
type RawRecord = domain.RawRecord

// EngineFields, BatteryFields, and TankFields are the typed record variants.
type (
	EngineFields  = domain.EngineFields
	BatteryFields = domain.BatteryFields
	TankFields    = domain.TankFields
)

// SensorType classifies a logical instrument.
type SensorType = domain.SensorType

const (
	SensorEngine  = domain.SensorEngine
	SensorBattery = domain.SensorBattery
	SensorTank    = domain.SensorTank
)

// PGN identifies an NMEA 2000 parameter group.
type PGN = domain.PGN

const (
	PGNEngineParams  = domain.PGNEngineParams
	PGNFluidLevel    = domain.PGNFluidLevel
	PGNBatteryStatus = domain.PGNBatteryStatus
)

// AlarmLevel is the evaluated severity of one metric.
type AlarmLevel = domain.AlarmLevel

const (
	AlarmNone     = domain.AlarmNone
	AlarmStale    = domain.AlarmStale
	AlarmWarning  = domain.AlarmWarning
	AlarmCritical = domain.AlarmCritical
)

// MetricValue is one stored reading; MetricThresholds configures evaluation.
type (
	MetricValue      = domain.MetricValue
	MetricThresholds = domain.MetricThresholds
	Band             = domain.Band
)

// Callback receives the post-tick snapshot.
type Callback = detect.Callback

// RecordSource is the upstream decoder's snapshot store.
type RecordSource = ports.RecordSource

// ConfigStore is the user-editable threshold configuration layer.
type ConfigStore = ports.ConfigStore

// Scheduler abstracts timers and the clock for deterministic testing.
type Scheduler = ports.Scheduler

// Observability emits logs and metrics about the detection loop.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// MetricUnit describes how one metric key is presented.
type MetricUnit = domain.MetricUnit

// UnitFor returns the display unit for a metric key.
func UnitFor(key string) MetricUnit { return domain.UnitFor(key) }

// FormatMetric converts a raw stored value to its display unit and renders
// it with the unit symbol.
func FormatMetric(key string, raw float64) string { return domain.FormatMetric(key, raw) }
