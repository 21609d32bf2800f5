package coordinator

import (
	"testing"
	"time"

	"marinecore/internal/domain"
	"marinecore/internal/ports"
)

type manualSched struct {
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newManualSched() *manualSched {
	return &manualSched{now: time.Unix(20000, 0)}
}

func (m *manualSched) Now() time.Time { return m.now }

func (m *manualSched) After(d time.Duration, fn func()) ports.Timer {
	t := &manualTimer{at: m.now.Add(d), fn: fn}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (m *manualSched) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		var next *manualTimer
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

type fakeStore struct {
	th   map[string]domain.MetricThresholds
	subs []func(ports.ConfigChange)
}

func (f *fakeStore) Thresholds(t domain.SensorType, instance int, key string) (domain.MetricThresholds, bool) {
	th, ok := f.th[string(t)+"/"+key]
	return th, ok
}

func (f *fakeStore) OnChange(fn func(ports.ConfigChange)) {
	f.subs = append(f.subs, fn)
}

func (f *fakeStore) emit(ev ports.ConfigChange) {
	for _, fn := range f.subs {
		fn(ev)
	}
}

type applied struct {
	typ      domain.SensorType
	instance int
	key      string
}

type fakeApplier struct {
	known map[applied]bool
	calls []applied
}

func (f *fakeApplier) ApplyThresholds(t domain.SensorType, instance int, key string, th domain.MetricThresholds) bool {
	a := applied{typ: t, instance: instance, key: key}
	f.calls = append(f.calls, a)
	return f.known[a]
}

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogError(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)             {}
func (nopObs) ObserveLatency(string, float64)         {}
func (nopObs) SetGauge(string, float64)               {}

func TestDebouncedSyncAppliesThresholds(t *testing.T) {
	sched := newManualSched()
	store := &fakeStore{th: map[string]domain.MetricThresholds{
		"battery/voltage": {StaleAfter: 10 * time.Second},
	}}
	target := &fakeApplier{known: map[applied]bool{
		{typ: domain.SensorBattery, instance: 0, key: "voltage"}: true,
	}}

	New(store, target, sched, nopObs{}, 0)

	store.emit(ports.ConfigChange{
		Type: domain.SensorBattery, Instance: 0, MetricKey: "voltage", ModifiedAt: sched.Now(),
	})

	if len(target.calls) != 0 {
		t.Fatalf("sync must wait for the debounce window, got %d calls", len(target.calls))
	}

	sched.Advance(DefaultDebounce)
	if len(target.calls) != 1 {
		t.Fatalf("expected one apply after debounce, got %d", len(target.calls))
	}
}

func TestBurstCoalescesIntoOneSync(t *testing.T) {
	sched := newManualSched()
	store := &fakeStore{th: map[string]domain.MetricThresholds{
		"engine/rpm": {StaleAfter: 2 * time.Second},
	}}
	target := &fakeApplier{known: map[applied]bool{
		{typ: domain.SensorEngine, instance: 0, key: "rpm"}: true,
	}}

	New(store, target, sched, nopObs{}, 0)

	// Five rapid edits to the same key end up as a single apply.
	for i := 0; i < 5; i++ {
		store.emit(ports.ConfigChange{
			Type: domain.SensorEngine, Instance: 0, MetricKey: "rpm",
			ModifiedAt: sched.Now().Add(time.Duration(i) * time.Millisecond),
		})
	}

	sched.Advance(time.Second)
	if len(target.calls) != 1 {
		t.Fatalf("expected burst to coalesce into one apply, got %d", len(target.calls))
	}
}

func TestUnchangedKeySkippedOnResync(t *testing.T) {
	sched := newManualSched()
	store := &fakeStore{th: map[string]domain.MetricThresholds{
		"engine/rpm": {StaleAfter: 2 * time.Second},
	}}
	target := &fakeApplier{known: map[applied]bool{
		{typ: domain.SensorEngine, instance: 0, key: "rpm"}: true,
	}}

	New(store, target, sched, nopObs{}, 0)

	ev := ports.ConfigChange{
		Type: domain.SensorEngine, Instance: 0, MetricKey: "rpm", ModifiedAt: sched.Now(),
	}
	store.emit(ev)
	sched.Advance(time.Second)

	// Replaying the same modification timestamp must not re-apply.
	store.emit(ev)
	sched.Advance(time.Second)

	if len(target.calls) != 1 {
		t.Fatalf("expected stale timestamp to be skipped, got %d applies", len(target.calls))
	}
}

func TestMissingInstanceDroppedNotRetried(t *testing.T) {
	sched := newManualSched()
	store := &fakeStore{th: map[string]domain.MetricThresholds{
		"tank/level": {StaleAfter: 30 * time.Second},
	}}
	target := &fakeApplier{} // knows no instances, every apply reports false

	New(store, target, sched, nopObs{}, 0)

	store.emit(ports.ConfigChange{
		Type: domain.SensorTank, Instance: 4, MetricKey: "level", ModifiedAt: sched.Now(),
	})
	sched.Advance(time.Second)

	if len(target.calls) != 1 {
		t.Fatalf("expected one attempted apply, got %d", len(target.calls))
	}
	// No retry timer: the edit is picked up from the store at creation time.
	sched.Advance(time.Minute)
	if len(target.calls) != 1 {
		t.Fatalf("dropped edit must not be retried, got %d applies", len(target.calls))
	}
}

func TestFlushSyncsImmediately(t *testing.T) {
	sched := newManualSched()
	store := &fakeStore{th: map[string]domain.MetricThresholds{
		"battery/voltage": {StaleAfter: 10 * time.Second},
	}}
	target := &fakeApplier{known: map[applied]bool{
		{typ: domain.SensorBattery, instance: 1, key: "voltage"}: true,
	}}

	c := New(store, target, sched, nopObs{}, 0)

	store.emit(ports.ConfigChange{
		Type: domain.SensorBattery, Instance: 1, MetricKey: "voltage", ModifiedAt: sched.Now(),
	})
	c.Flush()

	if len(target.calls) != 1 {
		t.Fatalf("expected flush to sync without waiting, got %d", len(target.calls))
	}
}
