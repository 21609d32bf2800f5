// Package sensor holds the per-instrument aggregate: metric series, cached
// alarm levels, and threshold configuration for one detected device.
package sensor

import (
	"sort"
	"time"

	"marinecore/internal/alarm"
	"marinecore/internal/domain"
	"marinecore/internal/history"
)

// Instance aggregates the live state for one (type, instance) pair. It is
// not self-synchronizing: the detection service owns it and serializes all
// access, including coordinator-driven threshold writes.
type Instance struct {
	Type   domain.SensorType
	Number int

	class      domain.UpdateClass
	now        func() time.Time
	series     map[string]*history.Series
	levels     map[string]domain.AlarmLevel
	thresholds map[string]domain.MetricThresholds
}

// New builds an instance with buffers sized for the type's update class.
// now supplies evaluation time; pass nil for the wall clock.
func New(t domain.SensorType, number int, now func() time.Time) *Instance {
	if now == nil {
		now = time.Now
	}
	return &Instance{
		Type:       t,
		Number:     number,
		class:      domain.ClassForSensor(t),
		now:        now,
		series:     make(map[string]*history.Series),
		levels:     make(map[string]domain.AlarmLevel),
		thresholds: make(map[string]domain.MetricThresholds),
	}
}

// UpdateMetric stores the reading and re-evaluates the key's alarm level
// exactly once, caching the result for AlarmState reads.
func (i *Instance) UpdateMetric(key string, value float64, ts time.Time) {
	s, ok := i.series[key]
	if !ok {
		s = history.NewSeries(i.class)
		i.series[key] = s
	}
	s.Push(value, ts)
	i.levels[key] = alarm.Evaluate(value, ts, i.thresholdsFor(key), i.levels[key], i.now())
}

// AlarmState is a cache read; it never recomputes. Unknown keys are none.
func (i *Instance) AlarmState(key string) domain.AlarmLevel {
	return i.levels[key]
}

// SetThresholds replaces the key's configuration and immediately re-evaluates
// the cached reading, so edits take effect without waiting for new data.
func (i *Instance) SetThresholds(key string, th domain.MetricThresholds) {
	if th.StaleAfter <= 0 {
		th.StaleAfter = i.class.DefaultStaleAfter()
	}
	i.thresholds[key] = th
	if s, ok := i.series[key]; ok {
		if v, has := s.Latest(); has {
			i.levels[key] = alarm.Evaluate(v.Value, v.Timestamp, th, i.levels[key], i.now())
		}
	}
}

// Thresholds returns the configured thresholds for a key, if any.
func (i *Instance) Thresholds(key string) (domain.MetricThresholds, bool) {
	th, ok := i.thresholds[key]
	return th, ok
}

// Latest returns the newest reading for a key.
func (i *Instance) Latest(key string) (domain.MetricValue, bool) {
	s, ok := i.series[key]
	if !ok {
		return domain.MetricValue{}, false
	}
	return s.Latest()
}

// Window returns the key's readings within d of the instance clock's now,
// oldest first.
func (i *Instance) Window(key string, d time.Duration) []domain.MetricValue {
	s, ok := i.series[key]
	if !ok {
		return nil
	}
	return s.Window(d, i.now())
}

// Stats reduces a key's window to min/max/avg.
func (i *Instance) Stats(key string, d time.Duration) (min, max, avg float64, count int) {
	s, ok := i.series[key]
	if !ok {
		return 0, 0, 0, 0
	}
	return s.Stats(d, i.now())
}

// MetricKeys returns the keys that have received at least one reading.
func (i *Instance) MetricKeys() []string {
	keys := make([]string, 0, len(i.series))
	for k := range i.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SizeBytes estimates buffered storage for the runtime memory gauge.
func (i *Instance) SizeBytes() int64 {
	var total int64
	for _, s := range i.series {
		total += s.SizeBytes()
	}
	return total
}

// thresholdsFor falls back to a staleness-only configuration derived from
// the update class when the key has no explicit thresholds.
func (i *Instance) thresholdsFor(key string) domain.MetricThresholds {
	if th, ok := i.thresholds[key]; ok {
		return th
	}
	return domain.MetricThresholds{StaleAfter: i.class.DefaultStaleAfter()}
}
