// Package detect turns raw parameter-group records into a stable set of
// logical instrument instances with live alarm state. A scheduler-driven
// scanner groups records per type, assigns deterministic identity, reclaims
// instruments that stop reporting, and notifies subscribers with a consistent
// snapshot after every tick.
package detect

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"marinecore/internal/domain"
	"marinecore/internal/ports"
	"marinecore/internal/sensor"
)

// Config tunes the scan loop.
type Config struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	InstanceTTL  time.Duration `yaml:"instance_ttl"`
	Bank2Role    string        `yaml:"bank2_role"` // "starter" or "thruster"
}

func (c *Config) ApplyDefaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.InstanceTTL <= 0 {
		c.InstanceTTL = 30 * time.Second
	}
	if c.Bank2Role == "" {
		c.Bank2Role = "starter"
	}
}

func (c *Config) Validate() error {
	if c.Bank2Role != "starter" && c.Bank2Role != "thruster" {
		return fmt.Errorf("bank2_role must be starter or thruster, got %q", c.Bank2Role)
	}
	return nil
}

// Callback receives the post-tick snapshot. Callbacks run synchronously in
// registration order; a panicking callback is isolated and logged.
type Callback func(domain.Snapshot)

type callbackEntry struct {
	ptr uintptr
	fn  Callback
}

type tracked struct {
	desc  domain.InstanceDescriptor
	inst  *sensor.Instance
	fluid domain.FluidType
}

// Service is the instance detection scanner. All state is guarded by one
// mutex: tick, forced cleanup, snapshot reads, and threshold writes
// serialize on it, so subscribers always observe a consistent view.
type Service struct {
	cfg   Config
	src   ports.RecordSource
	store ports.ConfigStore // may be nil
	obs   ports.Observability
	sched ports.Scheduler

	mu        sync.Mutex
	running   bool
	timer     ports.Timer
	tracked   map[domain.InstanceKey]*tracked
	engineNum map[uint8]int // source address → assigned number, first-seen order
	nextEng   int
	callbacks []callbackEntry
	metrics   domain.RuntimeMetrics
}

// New builds a stopped service. store may be nil when no threshold
// configuration layer is present.
func New(cfg Config, src ports.RecordSource, store ports.ConfigStore, obs ports.Observability, sched ports.Scheduler) *Service {
	cfg.ApplyDefaults()
	return &Service{
		cfg:       cfg,
		src:       src,
		store:     store,
		obs:       obs,
		sched:     sched,
		tracked:   make(map[domain.InstanceKey]*tracked),
		engineNum: make(map[uint8]int),
	}
}

// StartScanning begins the periodic tick. Calling it while already running
// is a no-op.
func (s *Service) StartScanning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.timer = s.sched.After(s.cfg.TickInterval, s.tick)
	s.obs.LogInfo("detection_started", ports.Field{Key: "interval", Value: s.cfg.TickInterval})
}

// StopScanning cancels the pending tick. No mutation happens after it
// returns. Safe to call when never started.
func (s *Service) StopScanning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.obs.LogInfo("detection_stopped")
}

// IsScanning reports whether the periodic tick is active.
func (s *Service) IsScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ForceCleanup runs the orphan sweep immediately, independent of the tick
// schedule. Safe whether or not scanning is active.
func (s *Service) ForceCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked(s.sched.Now())
	s.recomputeLocked()
}

// Detected returns the current snapshot. Without an intervening tick,
// repeated calls return identical results.
func (s *Service) Detected() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// RuntimeMetrics returns the aggregate detection/cleanup counters.
func (s *Service) RuntimeMetrics() domain.RuntimeMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// ResetRuntimeMetrics zeroes the counters while keeping live instance counts.
func (s *Service) ResetRuntimeMetrics() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = domain.RuntimeMetrics{}
	s.recomputeLocked()
}

// OnInstancesDetected registers a snapshot callback.
func (s *Service) OnInstancesDetected(fn Callback) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, callbackEntry{ptr: reflect.ValueOf(fn).Pointer(), fn: fn})
}

// OffInstancesDetected unregisters a previously registered callback by
// function identity.
func (s *Service) OffInstancesDetected(fn Callback) {
	if fn == nil {
		return
	}
	ptr := reflect.ValueOf(fn).Pointer()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cb := range s.callbacks {
		if cb.ptr == ptr {
			s.callbacks = append(s.callbacks[:i], s.callbacks[i+1:]...)
			return
		}
	}
}

// AlarmStates returns a copy of the cached alarm levels for one instrument.
func (s *Service) AlarmStates(t domain.SensorType, number int) map[string]domain.AlarmLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.tracked[domain.InstanceKey{Type: t, Number: number}]
	if !ok {
		return nil
	}
	out := make(map[string]domain.AlarmLevel)
	for _, k := range tr.inst.MetricKeys() {
		out[k] = tr.inst.AlarmState(k)
	}
	return out
}

// Metric returns the latest reading for one instrument metric.
func (s *Service) Metric(t domain.SensorType, number int, key string) (domain.MetricValue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.tracked[domain.InstanceKey{Type: t, Number: number}]
	if !ok {
		return domain.MetricValue{}, false
	}
	return tr.inst.Latest(key)
}

// MetricWindow returns an instrument metric's history within d, oldest first.
func (s *Service) MetricWindow(t domain.SensorType, number int, key string, d time.Duration) []domain.MetricValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.tracked[domain.InstanceKey{Type: t, Number: number}]
	if !ok {
		return nil
	}
	return tr.inst.Window(key, d)
}

// ApplyThresholds installs thresholds on a live instance. It reports false
// when the instance does not exist yet; the edit is then applied lazily at
// creation time from the config store.
func (s *Service) ApplyThresholds(t domain.SensorType, number int, key string, th domain.MetricThresholds) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.tracked[domain.InstanceKey{Type: t, Number: number}]
	if !ok {
		return false
	}
	tr.inst.SetThresholds(key, th)
	return true
}

// tick runs one scan cycle: detection, cleanup, metrics recomputation, then
// callback dispatch, strictly in that order, so callbacks always observe a
// fully consistent snapshot.
func (s *Service) tick() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	start := s.sched.Now()
	s.scanLocked(start)
	s.cleanupLocked(start)
	s.recomputeLocked()
	snap := s.snapshotLocked()
	cbs := make([]callbackEntry, len(s.callbacks))
	copy(cbs, s.callbacks)
	s.timer = s.sched.After(s.cfg.TickInterval, s.tick)
	s.mu.Unlock()

	s.obs.ObserveLatency("marinecore_scan_duration_seconds", s.sched.Now().Sub(start).Seconds())
	s.dispatch(cbs, snap)
}

// scanLocked skips records already older than the instance TTL: a snapshot
// entry lingering for a silent device must not resurrect the instance the
// cleanup sweep just removed.
func (s *Service) scanLocked(now time.Time) {
	for _, rec := range s.src.RecordsByPGN(domain.PGNEngineParams) {
		if rec.Engine != nil && s.fresh(rec, now) {
			s.scanEngine(rec, now)
		}
	}
	for _, rec := range s.src.RecordsByPGN(domain.PGNBatteryStatus) {
		if rec.Battery != nil && s.fresh(rec, now) {
			s.scanBattery(rec, now)
		}
	}
	for _, rec := range s.src.RecordsByPGN(domain.PGNFluidLevel) {
		if rec.Tank != nil && s.fresh(rec, now) {
			s.scanTank(rec, now)
		}
	}
}

func (s *Service) fresh(rec domain.RawRecord, now time.Time) bool {
	return now.Sub(seenAt(rec, now)) <= s.cfg.InstanceTTL
}

// scanEngine groups by source address. The raw instance field is unreliable
// on multi-engine installations, so numbers are assigned sequentially in
// first-seen source order and survive dropouts for identity stability.
func (s *Service) scanEngine(rec domain.RawRecord, now time.Time) {
	num, ok := s.engineNum[rec.Source]
	if !ok {
		num = s.nextEng
		s.nextEng++
		s.engineNum[rec.Source] = num
	}

	tr := s.ensure(domain.SensorEngine, num, int(rec.Source), now)
	tr.desc.LastSeen = seenAt(rec, now)
	tr.desc.Source = int(rec.Source)

	ts := seenAt(rec, now)
	e := rec.Engine
	tr.inst.UpdateMetric(domain.MetricRPM, e.RPM, ts)
	updateOptional(tr.inst, domain.MetricCoolantTemp, e.CoolantTemp, ts)
	updateOptional(tr.inst, domain.MetricOilPressure, e.OilPressure, ts)
	updateOptional(tr.inst, domain.MetricAlternatorVoltage, e.AlternatorVoltage, ts)
	updateOptional(tr.inst, domain.MetricFuelRate, e.FuelRate, ts)
	updateOptional(tr.inst, domain.MetricEngineHours, e.Hours, ts)
}

// scanBattery groups by the bus-reported instance field; a frame with no
// instance is treated as bank 0 rather than rejected.
func (s *Service) scanBattery(rec domain.RawRecord, now time.Time) {
	num := rec.Instance
	if num < 0 {
		num = 0
	}

	tr := s.ensure(domain.SensorBattery, num, -1, now)
	tr.desc.LastSeen = seenAt(rec, now)
	tr.desc.Title, tr.desc.Priority = batteryIdentity(num, s.cfg.Bank2Role)
	tr.desc.Icon = batteryIcon

	ts := seenAt(rec, now)
	b := rec.Battery
	tr.inst.UpdateMetric(domain.MetricVoltage, b.Voltage, ts)
	updateOptional(tr.inst, domain.MetricCurrent, b.Current, ts)
	updateOptional(tr.inst, domain.MetricBatteryTemp, b.Temperature, ts)
	updateOptional(tr.inst, domain.MetricStateOfCharge, b.StateOfCharge, ts)
}

func (s *Service) scanTank(rec domain.RawRecord, now time.Time) {
	num := rec.Instance
	if num < 0 {
		num = 0
	}

	tr := s.ensure(domain.SensorTank, num, -1, now)
	tr.desc.LastSeen = seenAt(rec, now)
	tr.fluid = rec.Tank.FluidType
	tr.desc.Priority = num + 1

	ts := seenAt(rec, now)
	tr.inst.UpdateMetric(domain.MetricLevel, rec.Tank.Level, ts)
	updateOptional(tr.inst, domain.MetricCapacity, rec.Tank.Capacity, ts)
}

// ensure returns the tracked entry for a key, creating descriptor and sensor
// instance on first sight and applying any stored threshold configuration.
func (s *Service) ensure(t domain.SensorType, number, source int, now time.Time) *tracked {
	key := domain.InstanceKey{Type: t, Number: number}
	if tr, ok := s.tracked[key]; ok {
		return tr
	}

	inst := sensor.New(t, number, s.sched.Now)
	if s.store != nil {
		for _, mk := range metricKeysFor(t) {
			if th, ok := s.store.Thresholds(t, number, mk); ok {
				inst.SetThresholds(mk, th)
			}
		}
	}

	tr := &tracked{
		desc: domain.InstanceDescriptor{
			ID:       domain.DescriptorID(t, source, number),
			Type:     t,
			Number:   number,
			Source:   source,
			LastSeen: now,
		},
		inst: inst,
	}
	s.tracked[key] = tr
	s.obs.LogInfo("instance_detected",
		ports.Field{Key: "id", Value: tr.desc.ID},
		ports.Field{Key: "type", Value: string(t)})
	return tr
}

// cleanupLocked removes descriptors whose lastSeen exceeds the instance TTL.
// Engine number assignments are kept so a returning engine regains its
// previous identity.
func (s *Service) cleanupLocked(now time.Time) {
	removed := 0
	for key, tr := range s.tracked {
		if now.Sub(tr.desc.LastSeen) > s.cfg.InstanceTTL {
			delete(s.tracked, key)
			removed++
			s.obs.LogInfo("instance_orphaned",
				ports.Field{Key: "id", Value: tr.desc.ID},
				ports.Field{Key: "last_seen", Value: tr.desc.LastSeen})
		}
	}
	if removed > 0 {
		s.metrics.OrphanedInstances += removed
		s.metrics.CleanupCount++
		s.metrics.LastCleanupTime = now
		s.obs.IncCounter("marinecore_orphans_cleaned_total", float64(removed))
	}
}

func (s *Service) recomputeLocked() {
	var engines, batteries, tanks int
	var memory int64
	for key, tr := range s.tracked {
		switch key.Type {
		case domain.SensorEngine:
			engines++
		case domain.SensorBattery:
			batteries++
		case domain.SensorTank:
			tanks++
		}
		memory += 512 + tr.inst.SizeBytes()
	}
	s.metrics.ActiveEngines = engines
	s.metrics.ActiveBatteries = batteries
	s.metrics.ActiveTanks = tanks
	s.metrics.TotalInstances = engines + batteries + tanks
	s.metrics.MemoryUsageBytes = memory

	s.obs.SetGauge("marinecore_instances_total", float64(s.metrics.TotalInstances))
	s.obs.SetGauge("marinecore_engines_active", float64(engines))
	s.obs.SetGauge("marinecore_batteries_active", float64(batteries))
	s.obs.SetGauge("marinecore_tanks_active", float64(tanks))
	s.obs.SetGauge("marinecore_memory_estimate_bytes", float64(memory))
}

// snapshotLocked assembles the per-type display lists. Titles that depend on
// the currently known set (engine ordinals, tank positions) are recomputed
// here so cleanup immediately reflows them.
func (s *Service) snapshotLocked() domain.Snapshot {
	var snap domain.Snapshot
	var engines, tanks []*tracked
	fluidCounts := make(map[domain.FluidType]int)

	for key, tr := range s.tracked {
		switch key.Type {
		case domain.SensorEngine:
			engines = append(engines, tr)
		case domain.SensorBattery:
			snap.Batteries = append(snap.Batteries, tr.desc)
		case domain.SensorTank:
			tanks = append(tanks, tr)
			fluidCounts[tr.fluid]++
		}
	}

	// Engines: ordered and titled by ascending source address, 1-based.
	sort.Slice(engines, func(i, j int) bool { return engines[i].desc.Source < engines[j].desc.Source })
	for i, tr := range engines {
		tr.desc.Title = engineTitle(i + 1)
		tr.desc.Priority = i + 1
		snap.Engines = append(snap.Engines, tr.desc)
	}

	// Batteries: ascending priority per the bank table.
	sort.Slice(snap.Batteries, func(i, j int) bool { return snap.Batteries[i].Priority < snap.Batteries[j].Priority })

	// Tanks: ordered by instance; position labels by ordinal within fluid.
	sort.Slice(tanks, func(i, j int) bool { return tanks[i].desc.Number < tanks[j].desc.Number })
	fluidSeen := make(map[domain.FluidType]int)
	for _, tr := range tanks {
		ordinal := fluidSeen[tr.fluid]
		fluidSeen[tr.fluid]++
		tr.desc.Title, tr.desc.Icon = tankIdentity(tr.desc.Number, tr.fluid, ordinal, fluidCounts[tr.fluid])
		snap.Tanks = append(snap.Tanks, tr.desc)
	}

	return snap
}

func (s *Service) dispatch(cbs []callbackEntry, snap domain.Snapshot) {
	for _, cb := range cbs {
		s.invoke(cb.fn, snap)
	}
}

// invoke isolates one callback: a panic is caught and logged and never
// prevents the remaining callbacks or the next tick.
func (s *Service) invoke(fn Callback, snap domain.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.obs.IncCounter("marinecore_callback_panics_total", 1)
			s.obs.LogError("callback_panic", fmt.Errorf("%v", r))
		}
	}()
	fn(snap)
}

func seenAt(rec domain.RawRecord, now time.Time) time.Time {
	if rec.ReceivedAt.IsZero() {
		return now
	}
	return rec.ReceivedAt
}

func updateOptional(inst *sensor.Instance, key string, v *float64, ts time.Time) {
	if v != nil {
		inst.UpdateMetric(key, *v, ts)
	}
}

func metricKeysFor(t domain.SensorType) []string {
	switch t {
	case domain.SensorEngine:
		return []string{domain.MetricRPM, domain.MetricCoolantTemp, domain.MetricOilPressure,
			domain.MetricAlternatorVoltage, domain.MetricFuelRate, domain.MetricEngineHours}
	case domain.SensorBattery:
		return []string{domain.MetricVoltage, domain.MetricCurrent, domain.MetricBatteryTemp,
			domain.MetricStateOfCharge}
	case domain.SensorTank:
		return []string{domain.MetricLevel, domain.MetricCapacity}
	}
	return nil
}
