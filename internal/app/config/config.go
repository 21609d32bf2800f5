package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"marinecore/internal/adapters/source"
	"marinecore/internal/detect"
)

// Durations are carried as millisecond integers in YAML, matching the
// threshold document's stale_ms convention.
type Config struct {
	Detection  DetectionConfig  `yaml:"detection"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Simulator  SimulatorConfig  `yaml:"simulator"`
}

type DetectionConfig struct {
	TickIntervalMs int64  `yaml:"tick_interval_ms"`
	InstanceTTLMs  int64  `yaml:"instance_ttl_ms"`
	Bank2Role      string `yaml:"bank2_role"`
}

// Detect converts to the detection service's config struct.
func (d DetectionConfig) Detect() detect.Config {
	return detect.Config{
		TickInterval: time.Duration(d.TickIntervalMs) * time.Millisecond,
		InstanceTTL:  time.Duration(d.InstanceTTLMs) * time.Millisecond,
		Bank2Role:    d.Bank2Role,
	}
}

type ThresholdsConfig struct {
	Path       string `yaml:"path"`
	DebounceMs int64  `yaml:"debounce_ms"`
}

func (t ThresholdsConfig) Debounce() time.Duration {
	return time.Duration(t.DebounceMs) * time.Millisecond
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type SimulatorConfig struct {
	Enabled    bool  `yaml:"enabled"`
	Engines    int   `yaml:"engines"`
	Batteries  int   `yaml:"batteries"`
	Tanks      int   `yaml:"tanks"`
	IntervalMs int64 `yaml:"interval_ms"`
}

// Fleet converts to the simulator adapter's config struct.
func (s SimulatorConfig) Fleet() source.SimulatorConfig {
	return source.SimulatorConfig{
		Engines:   s.Engines,
		Batteries: s.Batteries,
		Tanks:     s.Tanks,
		Interval:  time.Duration(s.IntervalMs) * time.Millisecond,
	}
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Detection.TickIntervalMs <= 0 {
		c.Detection.TickIntervalMs = 1000
	}
	if c.Detection.InstanceTTLMs <= 0 {
		c.Detection.InstanceTTLMs = 30000
	}
	if c.Detection.Bank2Role == "" {
		c.Detection.Bank2Role = "starter"
	}
	if c.Thresholds.DebounceMs <= 0 {
		c.Thresholds.DebounceMs = 50
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9144"
	}
	if c.Simulator.IntervalMs <= 0 {
		c.Simulator.IntervalMs = 500
	}
}

func (c *Config) Validate() error {
	dc := c.Detection.Detect()
	if err := dc.Validate(); err != nil {
		return fmt.Errorf("detection config: %w", err)
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}
