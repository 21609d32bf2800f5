package marinecore

import (
	"marinecore/internal/app/config"
)

// Config re-exports the root configuration struct so embedding applications
// can construct or modify it programmatically.
type Config = config.Config

type (
	// DetectionConfig tunes the scan loop.
	DetectionConfig = config.DetectionConfig
	// ThresholdsConfig points at the threshold YAML and sets the debounce.
	ThresholdsConfig = config.ThresholdsConfig
	// MetricsConfig configures the diagnostics HTTP server.
	MetricsConfig = config.MetricsConfig
	// SimulatorConfig sizes the optional simulated fleet.
	SimulatorConfig = config.SimulatorConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
