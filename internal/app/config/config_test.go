package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
detection:
  bank2_role: thruster
simulator:
  enabled: true
  engines: 2
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	det := cfg.Detection.Detect()
	if det.TickInterval != time.Second {
		t.Fatalf("expected default tick interval 1s, got %s", det.TickInterval)
	}
	if det.InstanceTTL != 30*time.Second {
		t.Fatalf("expected default instance TTL 30s, got %s", det.InstanceTTL)
	}
	if det.Bank2Role != "thruster" {
		t.Fatalf("expected configured bank2 role, got %s", det.Bank2Role)
	}
	if cfg.Thresholds.Debounce() != 50*time.Millisecond {
		t.Fatalf("expected default debounce 50ms, got %s", cfg.Thresholds.Debounce())
	}
	if cfg.Metrics.Addr != ":9144" {
		t.Fatalf("expected default metrics addr :9144, got %s", cfg.Metrics.Addr)
	}
	if !cfg.Simulator.Enabled || cfg.Simulator.Engines != 2 {
		t.Fatalf("unexpected simulator config: %+v", cfg.Simulator)
	}
	if cfg.Simulator.Fleet().Interval != 500*time.Millisecond {
		t.Fatalf("expected default simulator interval 500ms, got %s", cfg.Simulator.Fleet().Interval)
	}
}

func TestLoadParsesMillisecondDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
detection:
  tick_interval_ms: 250
  instance_ttl_ms: 10000
thresholds:
  debounce_ms: 100
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	det := cfg.Detection.Detect()
	if det.TickInterval != 250*time.Millisecond || det.InstanceTTL != 10*time.Second {
		t.Fatalf("unexpected detection durations: %+v", det)
	}
	if cfg.Thresholds.Debounce() != 100*time.Millisecond {
		t.Fatalf("expected debounce 100ms, got %s", cfg.Thresholds.Debounce())
	}
}

func TestLoadRejectsBadBankRole(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
detection:
  bank2_role: windlass
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for unknown bank role")
	}
}
