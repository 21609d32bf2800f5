// Package coordinator bridges user-edited threshold configuration into live
// sensor instances. Edits are bursty and UI-driven, so they are debounced
// before syncing to keep them off the scan loop's real-time path.
package coordinator

import (
	"sync"
	"time"

	"marinecore/internal/domain"
	"marinecore/internal/ports"
)

// DefaultDebounce batches configuration edits before a sync pass.
const DefaultDebounce = 50 * time.Millisecond

// Applier is the target of a sync pass, satisfied by the detection service.
// Apply reports false when the instance does not exist; the edit is then
// picked up lazily from the store when the instance is created.
type Applier interface {
	ApplyThresholds(t domain.SensorType, instance int, key string, th domain.MetricThresholds) bool
}

type changeKey struct {
	typ      domain.SensorType
	instance int
	metric   string
}

// Coordinator subscribes to the config store and syncs changed thresholds
// into live instances after a debounce delay. Per-key last-modified tracking
// skips entries already synced.
type Coordinator struct {
	store    ports.ConfigStore
	target   Applier
	sched    ports.Scheduler
	obs      ports.Observability
	debounce time.Duration

	mu       sync.Mutex
	dirty    map[changeKey]time.Time
	lastSync map[changeKey]time.Time
	timer    ports.Timer
}

// New wires the coordinator to the store's change feed.
func New(store ports.ConfigStore, target Applier, sched ports.Scheduler, obs ports.Observability, debounce time.Duration) *Coordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	c := &Coordinator{
		store:    store,
		target:   target,
		sched:    sched,
		obs:      obs,
		debounce: debounce,
		dirty:    make(map[changeKey]time.Time),
		lastSync: make(map[changeKey]time.Time),
	}
	store.OnChange(c.noteChange)
	return c
}

func (c *Coordinator) noteChange(ev ports.ConfigChange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := changeKey{typ: ev.Type, instance: ev.Instance, metric: ev.MetricKey}
	mod := ev.ModifiedAt
	if mod.IsZero() {
		mod = c.sched.Now()
	}
	if mod.After(c.dirty[k]) {
		c.dirty[k] = mod
	}
	if c.timer == nil {
		c.timer = c.sched.After(c.debounce, c.sync)
	}
}

// sync drains the dirty set and pushes each changed threshold into its live
// instance, skipping keys unchanged since the last pass.
func (c *Coordinator) sync() {
	c.mu.Lock()
	c.timer = nil
	pending := c.dirty
	c.dirty = make(map[changeKey]time.Time)
	c.mu.Unlock()

	for k, mod := range pending {
		if !mod.After(c.lastSyncFor(k)) {
			continue
		}
		th, ok := c.store.Thresholds(k.typ, k.instance, k.metric)
		if !ok {
			continue
		}
		if c.target.ApplyThresholds(k.typ, k.instance, k.metric, th) {
			c.setLastSync(k, mod)
		} else {
			c.obs.LogInfo("threshold_deferred",
				ports.Field{Key: "type", Value: string(k.typ)},
				ports.Field{Key: "instance", Value: k.instance},
				ports.Field{Key: "metric", Value: k.metric})
		}
	}
}

// Flush runs a pending sync immediately. Intended for shutdown and tests.
func (c *Coordinator) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.sync()
}

func (c *Coordinator) lastSyncFor(k changeKey) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSync[k]
}

func (c *Coordinator) setLastSync(k changeKey, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSync[k] = t
}
