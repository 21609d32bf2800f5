package source

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"marinecore/internal/domain"
)

// SimulatorConfig sizes the simulated fleet.
type SimulatorConfig struct {
	Engines   int           `yaml:"engines"`
	Batteries int           `yaml:"batteries"`
	Tanks     int           `yaml:"tanks"`
	Interval  time.Duration `yaml:"interval"`
}

func (c *SimulatorConfig) ApplyDefaults() {
	if c.Engines <= 0 {
		c.Engines = 2
	}
	if c.Batteries <= 0 {
		c.Batteries = 2
	}
	if c.Tanks <= 0 {
		c.Tanks = 2
	}
	if c.Interval <= 0 {
		c.Interval = 500 * time.Millisecond
	}
}

// Simulator publishes plausible engine, battery, and tank records into a
// MemStore so the full detection pipeline can run without a bus.
type Simulator struct {
	cfg   SimulatorConfig
	store *MemStore
	rng   *rand.Rand

	mu      sync.Mutex
	stopCh  chan struct{}
	started bool
	phase   float64
}

func NewSimulator(cfg SimulatorConfig, store *MemStore) *Simulator {
	cfg.ApplyDefaults()
	return &Simulator{
		cfg:   cfg,
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.stopCh = make(chan struct{})
	go s.loop(s.stopCh)
}

func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	close(s.stopCh)
}

func (s *Simulator) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.emit()
		}
	}
}

func (s *Simulator) emit() {
	s.mu.Lock()
	s.phase += 0.05
	phase := s.phase
	s.mu.Unlock()

	now := time.Now()

	for i := 0; i < s.cfg.Engines; i++ {
		rpm := 1800 + 400*math.Sin(phase+float64(i)) + s.rng.Float64()*40
		coolant := 358.0 + 4*math.Sin(phase/3) // kelvin, ~85-89°C
		oil := 380_000 + 20_000*math.Sin(phase/2)
		alt := 13.8 + 0.3*math.Sin(phase)
		s.store.Publish(domain.RawRecord{
			PGN:        domain.PGNEngineParams,
			Source:     uint8(0xA0 + i),
			Instance:   i,
			ReceivedAt: now,
			Engine: &domain.EngineFields{
				RPM:               rpm,
				CoolantTemp:       &coolant,
				OilPressure:       &oil,
				AlternatorVoltage: &alt,
			},
		})
	}

	for i := 0; i < s.cfg.Batteries; i++ {
		volts := 12.6 - 0.2*float64(i) + 0.1*math.Sin(phase/4)
		amps := -5 + 10*math.Sin(phase/6)
		soc := 85 - 2*float64(i)
		s.store.Publish(domain.RawRecord{
			PGN:        domain.PGNBatteryStatus,
			Source:     uint8(0x30 + i),
			Instance:   i,
			ReceivedAt: now,
			Battery: &domain.BatteryFields{
				Voltage:       volts,
				Current:       &amps,
				StateOfCharge: &soc,
			},
		})
	}

	for i := 0; i < s.cfg.Tanks; i++ {
		level := 75 - 5*float64(i) - phase/10
		if level < 5 {
			level = 5
		}
		s.store.Publish(domain.RawRecord{
			PGN:        domain.PGNFluidLevel,
			Source:     uint8(0x40 + i),
			Instance:   i,
			ReceivedAt: now,
			Tank: &domain.TankFields{
				FluidType: domain.FluidType(i % 2), // alternate fuel / fresh water
				Level:     level,
			},
		})
	}
}
