package marinecore

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marinecore/internal/domain"
	"marinecore/internal/ports"
)

type testSched struct {
	now    time.Time
	timers []*testTimer
}

type testTimer struct {
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newTestSched() *testSched { return &testSched{now: time.Unix(30000, 0)} }

func (m *testSched) Now() time.Time { return m.now }

func (m *testSched) After(d time.Duration, fn func()) ports.Timer {
	t := &testTimer{at: m.now.Add(d), fn: fn}
	m.timers = append(m.timers, t)
	return t
}

func (t *testTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (m *testSched) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		var next *testTimer
		for _, t := range m.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			break
		}
		m.now = next.at
		next.fired = true
		next.fn()
	}
	m.now = target
}

type quietObs struct{}

func (quietObs) LogInfo(string, ...ports.Field)         {}
func (quietObs) LogError(string, error, ...ports.Field) {}
func (quietObs) IncCounter(string, float64)             {}
func (quietObs) ObserveLatency(string, float64)         {}
func (quietObs) SetGauge(string, float64)               {}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestNewRuntimeRequiresConfig(t *testing.T) {
	if _, err := NewRuntime(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestRuntimeWiresDefaultRecordStore(t *testing.T) {
	sched := newTestSched()
	rt, err := NewRuntime(defaultConfig(), WithObservability(quietObs{}), WithScheduler(sched))
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}

	store := rt.RecordStore()
	if store == nil {
		t.Fatalf("expected default in-memory record store")
	}

	store.Publish(RawRecord{
		PGN:        PGNBatteryStatus,
		Instance:   0,
		ReceivedAt: sched.Now(),
		Battery:    &BatteryFields{Voltage: 12.6},
	})

	rt.Service().StartScanning()
	sched.Advance(time.Second)

	snap := rt.Detected()
	if len(snap.Batteries) != 1 || snap.Batteries[0].Title != "HOUSE" {
		t.Fatalf("expected detected house battery, got %+v", snap)
	}
	if rt.RuntimeMetrics().TotalInstances != 1 {
		t.Fatalf("expected one tracked instance, got %+v", rt.RuntimeMetrics())
	}
}

func TestInstanceMetricsEndpointRendersDisplayUnits(t *testing.T) {
	sched := newTestSched()
	rt, err := NewRuntime(defaultConfig(), WithObservability(quietObs{}), WithScheduler(sched))
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}

	temp := 358.15 // 85 °C
	rt.RecordStore().Publish(RawRecord{
		PGN:        PGNBatteryStatus,
		Instance:   0,
		ReceivedAt: sched.Now(),
		Battery:    &BatteryFields{Voltage: 12.6, Temperature: &temp},
	})
	rt.Service().StartScanning()
	sched.Advance(time.Second)

	rec := httptest.NewRecorder()
	rt.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/instances/battery/0/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var readings []MetricReading
	if err := json.NewDecoder(rec.Body).Decode(&readings); err != nil {
		t.Fatalf("decode metrics payload: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected voltage and temperature readings, got %+v", readings)
	}

	byKey := make(map[string]MetricReading)
	for _, r := range readings {
		byKey[r.Key] = r
	}
	if got := byKey["voltage"]; got.Display != "12.60 V" || got.Mnemonic != "VLT" {
		t.Fatalf("unexpected voltage rendering: %+v", got)
	}
	if got := byKey["temperature"]; got.Display != "85.0 °C" || got.Value != 358.15 {
		t.Fatalf("expected raw kelvin with celsius display, got %+v", got)
	}

	rec = httptest.NewRecorder()
	rt.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/instances/battery/7/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown instance, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	rt.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/instances/toaster/0/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown type, got %d", rec.Code)
	}
}

type emptySource struct{}

func (emptySource) RecordsByPGN(domain.PGN) []domain.RawRecord { return nil }

func TestRuntimeSourceOverride(t *testing.T) {
	rt, err := NewRuntime(defaultConfig(),
		WithObservability(quietObs{}),
		WithScheduler(newTestSched()),
		WithRecordSource(emptySource{}),
	)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	if rt.RecordStore() != nil {
		t.Fatalf("record store accessor must be nil when a source is injected")
	}
}
