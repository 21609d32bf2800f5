package marinecore

import (
	base "marinecore/pkg/marinecore"
)

// Type aliases so consumers can import the module root directly.
type (
	Config             = base.Config
	DetectionConfig    = base.DetectionConfig
	ThresholdsConfig   = base.ThresholdsConfig
	MetricsConfig      = base.MetricsConfig
	SimulatorConfig    = base.SimulatorConfig
	Runtime            = base.Runtime
	RuntimeOption      = base.RuntimeOption
	Snapshot           = base.Snapshot
	InstanceDescriptor = base.InstanceDescriptor
	RuntimeMetrics     = base.RuntimeMetrics
	RawRecord          = base.RawRecord
	EngineFields       = base.EngineFields
	BatteryFields      = base.BatteryFields
	TankFields         = base.TankFields
	SensorType         = base.SensorType
	PGN                = base.PGN
	AlarmLevel         = base.AlarmLevel
	MetricValue        = base.MetricValue
	MetricThresholds   = base.MetricThresholds
	Band               = base.Band
	Callback           = base.Callback
	RecordSource       = base.RecordSource
	ConfigStore        = base.ConfigStore
	Scheduler          = base.Scheduler
	Observability      = base.Observability
	Field              = base.Field
	MetricUnit         = base.MetricUnit
	MetricReading      = base.MetricReading
)

// Re-exported classification constants.
const (
	SensorEngine  = base.SensorEngine
	SensorBattery = base.SensorBattery
	SensorTank    = base.SensorTank

	PGNEngineParams  = base.PGNEngineParams
	PGNFluidLevel    = base.PGNFluidLevel
	PGNBatteryStatus = base.PGNBatteryStatus

	AlarmNone     = base.AlarmNone
	AlarmStale    = base.AlarmStale
	AlarmWarning  = base.AlarmWarning
	AlarmCritical = base.AlarmCritical
)

// ErrConfigRequired is returned by NewRuntime when no configuration is given.
var ErrConfigRequired = base.ErrConfigRequired

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithRecordSource(src RecordSource) RuntimeOption {
	return base.WithRecordSource(src)
}

func WithConfigStore(store ConfigStore) RuntimeOption {
	return base.WithConfigStore(store)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithScheduler(s Scheduler) RuntimeOption {
	return base.WithScheduler(s)
}

// Display formatting.
func UnitFor(key string) MetricUnit {
	return base.UnitFor(key)
}

func FormatMetric(key string, raw float64) string {
	return base.FormatMetric(key, raw)
}
