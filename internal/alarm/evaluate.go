// Package alarm evaluates metric readings against configured thresholds.
// Evaluation is a pure function: everything it needs, including the previous
// level driving hysteresis, is passed in explicitly.
package alarm

import (
	"math"
	"time"

	"marinecore/internal/domain"
)

// Evaluate maps one reading to an alarm level.
//
// Staleness strictly dominates: data older than the stale window cannot be
// trusted for threshold comparison, so thresholds are never consulted for it.
// Critical is checked before warning. The warning band is shrunk by the
// hysteresis ratio only while the previous level was already warning, so a
// metric hovering at the boundary does not flap.
func Evaluate(value float64, ts time.Time, th domain.MetricThresholds, prev domain.AlarmLevel, now time.Time) domain.AlarmLevel {
	if th.StaleAfter > 0 && now.Sub(ts) > th.StaleAfter {
		return domain.AlarmStale
	}

	if !th.Critical.Defined() && !th.Warning.Defined() {
		return domain.AlarmNone
	}

	if th.Critical.Breached(value) {
		return domain.AlarmCritical
	}

	warn := th.Warning
	if prev == domain.AlarmWarning {
		warn = shrink(warn, hysteresisRatio(th))
	}
	if warn.Breached(value) {
		return domain.AlarmWarning
	}

	return domain.AlarmNone
}

func hysteresisRatio(th domain.MetricThresholds) float64 {
	if th.HysteresisRatio > 0 {
		return th.HysteresisRatio
	}
	return domain.DefaultHysteresisRatio
}

// shrink moves each warning bound toward normal by ratio of its magnitude,
// widening the breach region for a metric that is already in warning.
func shrink(b domain.Band, ratio float64) domain.Band {
	out := domain.Band{}
	if b.Min != nil {
		min := *b.Min + ratio*math.Abs(*b.Min)
		out.Min = &min
	}
	if b.Max != nil {
		max := *b.Max - ratio*math.Abs(*b.Max)
		out.Max = &max
	}
	return out
}
