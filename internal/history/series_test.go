package history

import (
	"testing"
	"time"

	"marinecore/internal/domain"
)

func TestSeriesLatest(t *testing.T) {
	s := NewSeries(domain.ClassMedium)

	if _, ok := s.Latest(); ok {
		t.Fatalf("empty series should report no latest value")
	}

	base := time.Unix(1000, 0)
	s.Push(12.5, base)
	s.Push(12.7, base.Add(time.Second))

	v, ok := s.Latest()
	if !ok || v.Value != 12.7 || !v.Timestamp.Equal(base.Add(time.Second)) {
		t.Fatalf("unexpected latest value: %+v ok=%v", v, ok)
	}
}

func TestSeriesWindowOrdering(t *testing.T) {
	s := NewSeries(domain.ClassMedium)
	base := time.Unix(1000, 0)

	for i := 0; i < 10; i++ {
		s.Push(float64(i), base.Add(time.Duration(i)*time.Second))
	}

	now := base.Add(9 * time.Second)
	got := s.Window(5*time.Second, now)
	if len(got) != 5 {
		t.Fatalf("expected 5 points in window, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Fatalf("window not ordered oldest to newest: %+v", got)
		}
	}
	if got[0].Value != 5 || got[len(got)-1].Value != 9 {
		t.Fatalf("unexpected window bounds: first=%f last=%f", got[0].Value, got[len(got)-1].Value)
	}
}

func TestSeriesRecentRingEvictsOldest(t *testing.T) {
	s := NewSeries(domain.ClassLow) // recent capacity 20
	base := time.Unix(1000, 0)

	for i := 0; i < 30; i++ {
		s.Push(float64(i), base.Add(time.Duration(i)*time.Second))
	}

	recent := s.recent.slice()
	if len(recent) != 20 {
		t.Fatalf("expected recent ring full at 20, got %d", len(recent))
	}
	if recent[0].Value != 10 || recent[19].Value != 29 {
		t.Fatalf("ring did not evict oldest: first=%f last=%f", recent[0].Value, recent[19].Value)
	}
}

func TestSeriesWindowFallsBackToDecimatedTier(t *testing.T) {
	s := NewSeries(domain.ClassLow) // recent 20, stride 4
	base := time.Unix(1000, 0)

	for i := 0; i < 60; i++ {
		s.Push(float64(i), base.Add(time.Duration(i)*time.Second))
	}
	now := base.Add(59 * time.Second)

	// The recent ring only reaches back 20s; a 50s window must pick up
	// decimated points older than the ring's span.
	got := s.Window(50*time.Second, now)
	if len(got) <= 20 {
		t.Fatalf("expected decimated points beyond the recent tier, got %d points", len(got))
	}
	if got[0].Timestamp.Before(now.Add(-50 * time.Second)) {
		t.Fatalf("window includes point older than cutoff: %+v", got[0])
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Fatalf("merged window out of order at %d", i)
		}
	}
}

func TestSeriesStats(t *testing.T) {
	s := NewSeries(domain.ClassMedium)
	base := time.Unix(1000, 0)

	for i, v := range []float64{10, 20, 30} {
		s.Push(v, base.Add(time.Duration(i)*time.Second))
	}

	min, max, avg, n := s.Stats(time.Minute, base.Add(2*time.Second))
	if n != 3 || min != 10 || max != 30 || avg != 20 {
		t.Fatalf("unexpected stats min=%f max=%f avg=%f n=%d", min, max, avg, n)
	}

	if _, _, _, n := NewSeries(domain.ClassMedium).Stats(time.Minute, base); n != 0 {
		t.Fatalf("empty series should report zero count, got %d", n)
	}
}
