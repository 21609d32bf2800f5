// Package history holds per-metric value series: the latest reading plus a
// two-tier bounded buffer for trend queries. The recent tier is a ring sized
// to roughly one minute of the metric's update rate; every strideth sample is
// also copied into a decimated tier that extends coverage several times
// further at reduced resolution.
package history

import (
	"math"
	"time"

	"marinecore/internal/domain"
)

type tierSpec struct {
	recentCap int
	stride    int
	olderCap  int
}

// Capacities per update-frequency class. High-rate sensors report up to
// 10 Hz, medium around 1 Hz, low every few seconds.
var tierSpecs = map[domain.UpdateClass]tierSpec{
	domain.ClassHigh:   {recentCap: 600, stride: 8, olderCap: 600},
	domain.ClassMedium: {recentCap: 60, stride: 6, olderCap: 80},
	domain.ClassLow:    {recentCap: 20, stride: 4, olderCap: 40},
}

// Series stores one metric's latest value and bounded history.
type Series struct {
	latest domain.MetricValue
	has    bool

	recent *ring
	older  *ring
	stride int
	pushes uint64
}

// NewSeries sizes the buffers for the given update class.
func NewSeries(class domain.UpdateClass) *Series {
	spec, ok := tierSpecs[class]
	if !ok {
		spec = tierSpecs[domain.ClassMedium]
	}
	return &Series{
		recent: newRing(spec.recentCap),
		older:  newRing(spec.olderCap),
		stride: spec.stride,
	}
}

// Push replaces the latest value and appends to the history tiers.
func (s *Series) Push(value float64, ts time.Time) {
	v := domain.MetricValue{Value: value, Timestamp: ts}
	s.latest = v
	s.has = true
	s.recent.push(v)
	if s.pushes%uint64(s.stride) == 0 {
		s.older.push(v)
	}
	s.pushes++
}

// Latest returns the most recent value. The second result is false when the
// series has never been written.
func (s *Series) Latest() (domain.MetricValue, bool) {
	return s.latest, s.has
}

// Len returns the number of buffered points across both tiers.
func (s *Series) Len() int { return s.recent.size + s.older.size }

// Window returns the values observed within d of now, oldest first. It is
// served from the recent ring alone when that ring spans the window, and
// falls back to prepending the decimated tier otherwise.
func (s *Series) Window(d time.Duration, now time.Time) []domain.MetricValue {
	if s.recent.size == 0 {
		return nil
	}
	cutoff := now.Add(-d)

	recent := s.recent.slice()
	if !recent[0].Timestamp.After(cutoff) {
		return trim(recent, cutoff)
	}

	out := make([]domain.MetricValue, 0, s.older.size+len(recent))
	oldest := recent[0].Timestamp
	for _, v := range s.older.slice() {
		if v.Timestamp.After(cutoff) && v.Timestamp.Before(oldest) {
			out = append(out, v)
		}
	}
	return append(out, recent...)
}

// Stats reduces a window to min/max/avg. count is zero for an empty window.
func (s *Series) Stats(d time.Duration, now time.Time) (min, max, avg float64, count int) {
	pts := s.Window(d, now)
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}
	min, max = math.MaxFloat64, -math.MaxFloat64
	sum := 0.0
	for _, p := range pts {
		if p.Value < min {
			min = p.Value
		}
		if p.Value > max {
			max = p.Value
		}
		sum += p.Value
	}
	return min, max, sum / float64(len(pts)), len(pts)
}

// SizeBytes is a rough accounting of buffered storage, used for the runtime
// memory estimate.
func (s *Series) SizeBytes() int64 {
	const pointSize = 24 // float64 + time.Time wall/ext
	return int64((s.recent.cap + s.older.cap) * pointSize)
}

func trim(pts []domain.MetricValue, cutoff time.Time) []domain.MetricValue {
	for i, p := range pts {
		if p.Timestamp.After(cutoff) {
			return pts[i:]
		}
	}
	return nil
}

// ring is a fixed-capacity circular buffer with O(1) push.
type ring struct {
	buf  []domain.MetricValue
	head int
	size int
	cap  int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]domain.MetricValue, capacity), cap: capacity}
}

func (r *ring) push(v domain.MetricValue) {
	idx := (r.head + r.size) % r.cap
	r.buf[idx] = v
	if r.size < r.cap {
		r.size++
	} else {
		r.head = (r.head + 1) % r.cap
	}
}

// slice copies the buffered values out in chronological order.
func (r *ring) slice() []domain.MetricValue {
	if r.size == 0 {
		return nil
	}
	out := make([]domain.MetricValue, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%r.cap]
	}
	return out
}
