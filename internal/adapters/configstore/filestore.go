// Package configstore implements the threshold configuration store over a
// YAML document: per-type defaults plus per-instance overrides, with a
// change feed for the coordinator.
package configstore

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"marinecore/internal/domain"
	"marinecore/internal/ports"
)

type bandSpec struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

type thresholdSpec struct {
	Warning    bandSpec `yaml:"warning"`
	Critical   bandSpec `yaml:"critical"`
	StaleMs    int64    `yaml:"stale_ms"`
	Hysteresis float64  `yaml:"hysteresis"`
}

type overrideSpec struct {
	Type     string                   `yaml:"type"`
	Instance int                      `yaml:"instance"`
	Metrics  map[string]thresholdSpec `yaml:"metrics"`
}

type document struct {
	Defaults  map[string]map[string]thresholdSpec `yaml:"defaults"`
	Overrides []overrideSpec                      `yaml:"overrides"`
}

type instanceKey struct {
	typ      domain.SensorType
	instance int
}

// FileStore resolves thresholds from per-instance overrides first, then
// per-type defaults. Runtime edits go through Set, which records the change
// and notifies subscribers.
type FileStore struct {
	mu        sync.RWMutex
	defaults  map[domain.SensorType]map[string]domain.MetricThresholds
	overrides map[instanceKey]map[string]domain.MetricThresholds
	subs      []func(ports.ConfigChange)
	now       func() time.Time
}

// Load parses a threshold YAML document.
func Load(path string) (*FileStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	return fromDocument(doc), nil
}

// NewEmpty returns a store with no configuration, useful when no threshold
// file is present.
func NewEmpty() *FileStore {
	return fromDocument(document{})
}

func fromDocument(doc document) *FileStore {
	fs := &FileStore{
		defaults:  make(map[domain.SensorType]map[string]domain.MetricThresholds),
		overrides: make(map[instanceKey]map[string]domain.MetricThresholds),
		now:       time.Now,
	}
	for typ, metrics := range doc.Defaults {
		byKey := make(map[string]domain.MetricThresholds, len(metrics))
		for key, spec := range metrics {
			byKey[key] = spec.toDomain()
		}
		fs.defaults[domain.SensorType(typ)] = byKey
	}
	for _, ov := range doc.Overrides {
		byKey := make(map[string]domain.MetricThresholds, len(ov.Metrics))
		for key, spec := range ov.Metrics {
			byKey[key] = spec.toDomain()
		}
		fs.overrides[instanceKey{typ: domain.SensorType(ov.Type), instance: ov.Instance}] = byKey
	}
	return fs
}

func (t thresholdSpec) toDomain() domain.MetricThresholds {
	return domain.MetricThresholds{
		Warning:         domain.Band{Min: t.Warning.Min, Max: t.Warning.Max},
		Critical:        domain.Band{Min: t.Critical.Min, Max: t.Critical.Max},
		StaleAfter:      time.Duration(t.StaleMs) * time.Millisecond,
		HysteresisRatio: t.Hysteresis,
	}
}

// Thresholds resolves configuration for one instrument metric. Absence is
// reported, never an error.
func (f *FileStore) Thresholds(t domain.SensorType, instance int, metricKey string) (domain.MetricThresholds, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if byKey, ok := f.overrides[instanceKey{typ: t, instance: instance}]; ok {
		if th, ok := byKey[metricKey]; ok {
			return th, true
		}
	}
	if byKey, ok := f.defaults[t]; ok {
		if th, ok := byKey[metricKey]; ok {
			return th, true
		}
	}
	return domain.MetricThresholds{}, false
}

// OnChange registers a subscriber for threshold edits.
func (f *FileStore) OnChange(fn func(ports.ConfigChange)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
}

// Set installs a per-instance override and notifies subscribers.
func (f *FileStore) Set(t domain.SensorType, instance int, metricKey string, th domain.MetricThresholds) {
	f.mu.Lock()
	key := instanceKey{typ: t, instance: instance}
	byKey, ok := f.overrides[key]
	if !ok {
		byKey = make(map[string]domain.MetricThresholds)
		f.overrides[key] = byKey
	}
	byKey[metricKey] = th
	subs := make([]func(ports.ConfigChange), len(f.subs))
	copy(subs, f.subs)
	at := f.now()
	f.mu.Unlock()

	ev := ports.ConfigChange{Type: t, Instance: instance, MetricKey: metricKey, ModifiedAt: at}
	for _, fn := range subs {
		fn(ev)
	}
}

var _ ports.ConfigStore = (*FileStore)(nil)
