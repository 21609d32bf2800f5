package domain

import "time"

// MetricValue is the latest numeric reading for one metric key. Values are
// replaced, never mutated; history lives in the owning instance's series.
type MetricValue struct {
	Value     float64
	Timestamp time.Time
}

// AlarmLevel is the evaluated severity of one metric. Staleness strictly
// dominates threshold comparison: once data is stale, thresholds are skipped.
type AlarmLevel int

const (
	AlarmNone AlarmLevel = iota
	AlarmStale
	AlarmWarning
	AlarmCritical
)

func (l AlarmLevel) String() string {
	switch l {
	case AlarmNone:
		return "none"
	case AlarmStale:
		return "stale"
	case AlarmWarning:
		return "warning"
	case AlarmCritical:
		return "critical"
	}
	return "unknown"
}

// Band is a closed comparison band. A nil bound is unbounded on that side.
type Band struct {
	Min *float64
	Max *float64
}

// Defined reports whether the band constrains anything at all.
func (b Band) Defined() bool { return b.Min != nil || b.Max != nil }

// Breached reports whether v falls outside the band.
func (b Band) Breached(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return true
	}
	if b.Max != nil && v > *b.Max {
		return true
	}
	return false
}

// DefaultHysteresisRatio shrinks the warning band once a metric is already
// in warning, so it needs a real excursion back toward normal to clear.
const DefaultHysteresisRatio = 0.1

// MetricThresholds configures alarm evaluation for one metric key. The same
// value is shared by reference across instances of a type until a per-instance
// override replaces it; mutation goes through the config coordinator only.
type MetricThresholds struct {
	Warning         Band
	Critical        Band
	StaleAfter      time.Duration
	HysteresisRatio float64
}

// UpdateClass buckets sensors by expected report rate. It selects history
// buffer capacities and the default staleness window.
type UpdateClass int

const (
	ClassHigh UpdateClass = iota
	ClassMedium
	ClassLow
)

// DefaultStaleAfter returns the staleness window used when no threshold
// configuration names one.
func (c UpdateClass) DefaultStaleAfter() time.Duration {
	switch c {
	case ClassHigh:
		return 2 * time.Second
	case ClassLow:
		return 30 * time.Second
	}
	return 5 * time.Second
}

// ClassForSensor maps an instrument type to its update-frequency class:
// engines report several times a second, batteries about once a second,
// tanks every couple of seconds at best.
func ClassForSensor(t SensorType) UpdateClass {
	switch t {
	case SensorEngine:
		return ClassHigh
	case SensorTank:
		return ClassLow
	}
	return ClassMedium
}
