package alarm

import (
	"testing"
	"time"

	"marinecore/internal/domain"
)

func f(v float64) *float64 { return &v }

func TestEvaluateStalenessBeatsThresholds(t *testing.T) {
	now := time.Unix(2000, 0)
	th := domain.MetricThresholds{
		Critical:   domain.Band{Max: f(100)},
		StaleAfter: 5 * time.Second,
	}

	// Value is far past critical, but the sample is too old to trust.
	got := Evaluate(500, now.Add(-10*time.Second), th, domain.AlarmNone, now)
	if got != domain.AlarmStale {
		t.Fatalf("expected stale to dominate critical, got %s", got)
	}
}

func TestEvaluateNoThresholds(t *testing.T) {
	now := time.Unix(2000, 0)
	th := domain.MetricThresholds{StaleAfter: 5 * time.Second}

	if got := Evaluate(9999, now, th, domain.AlarmCritical, now); got != domain.AlarmNone {
		t.Fatalf("expected none with no bands configured, got %s", got)
	}
}

func TestEvaluateLevels(t *testing.T) {
	now := time.Unix(2000, 0)
	th := domain.MetricThresholds{
		Warning:    domain.Band{Max: f(90)},
		Critical:   domain.Band{Max: f(105)},
		StaleAfter: 5 * time.Second,
	}

	cases := []struct {
		name  string
		value float64
		prev  domain.AlarmLevel
		want  domain.AlarmLevel
	}{
		{"normal", 70, domain.AlarmNone, domain.AlarmNone},
		{"warning", 95, domain.AlarmNone, domain.AlarmWarning},
		{"critical", 110, domain.AlarmNone, domain.AlarmCritical},
		{"critical beats warning history", 110, domain.AlarmWarning, domain.AlarmCritical},
	}
	for _, tc := range cases {
		if got := Evaluate(tc.value, now, th, tc.prev, now); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestEvaluateWarningHysteresis(t *testing.T) {
	now := time.Unix(2000, 0)
	th := domain.MetricThresholds{
		Warning:    domain.Band{Max: f(100)},
		StaleAfter: time.Minute,
	}

	// Fresh excursion just under the bound stays normal.
	if got := Evaluate(95, now, th, domain.AlarmNone, now); got != domain.AlarmNone {
		t.Fatalf("expected none below bound, got %s", got)
	}

	// Already in warning: the default 0.1 ratio keeps anything above 90
	// in warning until it drops clear of the shrunk bound.
	if got := Evaluate(95, now, th, domain.AlarmWarning, now); got != domain.AlarmWarning {
		t.Fatalf("expected hysteresis to hold warning at 95, got %s", got)
	}
	if got := Evaluate(89, now, th, domain.AlarmWarning, now); got != domain.AlarmNone {
		t.Fatalf("expected warning to clear at 89, got %s", got)
	}
}

func TestEvaluateHysteresisMinBound(t *testing.T) {
	now := time.Unix(2000, 0)
	th := domain.MetricThresholds{
		Warning:         domain.Band{Min: f(10)},
		StaleAfter:      time.Minute,
		HysteresisRatio: 0.2,
	}

	if got := Evaluate(11, now, th, domain.AlarmWarning, now); got != domain.AlarmWarning {
		t.Fatalf("expected min-bound hysteresis to hold warning at 11, got %s", got)
	}
	if got := Evaluate(13, now, th, domain.AlarmWarning, now); got != domain.AlarmNone {
		t.Fatalf("expected warning to clear at 13, got %s", got)
	}
}
