package marinecore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marinecore/internal/adapters/configstore"
	"marinecore/internal/adapters/observability"
	"marinecore/internal/adapters/sched"
	"marinecore/internal/adapters/source"
	"marinecore/internal/adapters/ws"
	"marinecore/internal/coordinator"
	"marinecore/internal/detect"
	"marinecore/internal/domain"
	"marinecore/internal/ports"
)

// ErrConfigRequired is returned by NewRuntime when no configuration is given.
var ErrConfigRequired = errors.New("marinecore: config required")

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	source    RecordSource
	store     ConfigStore
	obs       Observability
	scheduler Scheduler
}

// WithRecordSource injects a custom record source (a live bus decoder,
// replay file, test fixture, etc.) instead of the in-memory store.
func WithRecordSource(src RecordSource) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.source = src
	}
}

// WithConfigStore injects a custom threshold configuration backend.
func WithConfigStore(store ConfigStore) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.store = store
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.obs = obs
	}
}

// WithScheduler swaps the wall-clock scheduler, e.g. for a simulated clock.
func WithScheduler(s Scheduler) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.scheduler = s
	}
}

// Runtime wires the record store → detection service → subscriber pipeline
// together with the threshold coordinator and the diagnostics HTTP surface,
// exposing simple lifecycle hooks for embedding marinecore in any Go service.
type Runtime struct {
	cfg      *Config
	obs      ports.Observability
	svc      *detect.Service
	coord    *coordinator.Coordinator
	hub      *ws.Hub
	memStore *source.MemStore
	sim      *source.Simulator
	httpSrv  *http.Server
	feed     detect.Callback
	expire   detect.Callback
}

// NewRuntime bootstraps the default adapters (in-memory record store with
// optional simulator, YAML threshold store, Prometheus observability,
// wall-clock scheduler). Options override any dependency.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.obs
	if obs == nil {
		obs = observability.NewPromObs()
	}

	scheduler := overrides.scheduler
	if scheduler == nil {
		scheduler = sched.System{}
	}

	r := &Runtime{cfg: cfg, obs: obs}

	src := overrides.source
	if src == nil {
		r.memStore = source.NewMemStore()
		src = r.memStore
		if cfg.Simulator.Enabled {
			r.sim = source.NewSimulator(cfg.Simulator.Fleet(), r.memStore)
		}
	}

	store := overrides.store
	if store == nil {
		if cfg.Thresholds.Path != "" {
			loaded, err := configstore.Load(cfg.Thresholds.Path)
			if err != nil {
				return nil, fmt.Errorf("load thresholds: %w", err)
			}
			store = loaded
		} else {
			store = configstore.NewEmpty()
		}
	}

	detCfg := cfg.Detection.Detect()
	detCfg.ApplyDefaults()

	r.svc = detect.New(detCfg, src, store, obs, scheduler)
	r.coord = coordinator.New(store, r.svc, scheduler, obs, cfg.Thresholds.Debounce())
	r.hub = ws.NewHub(obs)
	r.feed = func(snap domain.Snapshot) { r.hub.Broadcast(snap) }
	if r.memStore != nil {
		// Age silent devices out of the snapshot store after every tick,
		// the way a live decoder drops entries it stops hearing from.
		ttl := detCfg.InstanceTTL
		r.expire = func(domain.Snapshot) { r.memStore.Expire(ttl, scheduler.Now()) }
	}

	return r, nil
}

// Start begins scanning and launches the diagnostics HTTP server. It returns
// immediately; call Run to block on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	r.svc.OnInstancesDetected(r.feed)
	if r.expire != nil {
		r.svc.OnInstancesDetected(r.expire)
	}
	if r.sim != nil {
		r.sim.Start()
	}
	r.svc.StartScanning()
	r.startHTTP()
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled,
// then attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops scanning, flushes pending threshold edits, and tears down
// the simulator, websocket clients, and HTTP server.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	r.svc.StopScanning()
	r.svc.OffInstancesDetected(r.feed)
	if r.expire != nil {
		r.svc.OffInstancesDetected(r.expire)
	}
	r.coord.Flush()

	if r.sim != nil {
		r.sim.Stop()
	}
	r.hub.Close()

	if r.httpSrv != nil {
		if err := r.httpSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Service exposes the detection service for direct snapshot and alarm reads.
func (r *Runtime) Service() *detect.Service { return r.svc }

// RecordStore returns the in-memory record store, or nil when a custom
// record source was injected. Upstream decoders publish into it.
func (r *Runtime) RecordStore() *source.MemStore { return r.memStore }

// Detected returns the current instrument snapshot.
func (r *Runtime) Detected() Snapshot { return r.svc.Detected() }

// RuntimeMetrics returns the aggregate detection counters.
func (r *Runtime) RuntimeMetrics() RuntimeMetrics { return r.svc.RuntimeMetrics() }

// MetricReading is one metric in the diagnostics API, carrying both the raw
// stored value and its display rendering.
type MetricReading struct {
	Key       string    `json:"key"`
	Value     float64   `json:"value"`
	Display   string    `json:"display"`
	Mnemonic  string    `json:"mnemonic"`
	Alarm     string    `json:"alarm"`
	Timestamp time.Time `json:"timestamp"`
}

func (r *Runtime) router() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/api/instances", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, r.svc.Detected())
	})
	router.Get("/api/instances/{type}/{instance}/metrics", r.handleInstanceMetrics)
	router.Get("/api/runtime", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, r.svc.RuntimeMetrics())
	})
	router.Handle("/ws", r.hub)

	return router
}

// handleInstanceMetrics lists one instrument's metrics with values converted
// to display units (kelvin to celsius, pascal to kilopascal, and so on).
func (r *Runtime) handleInstanceMetrics(w http.ResponseWriter, req *http.Request) {
	typ := domain.SensorType(chi.URLParam(req, "type"))
	switch typ {
	case domain.SensorEngine, domain.SensorBattery, domain.SensorTank:
	default:
		http.Error(w, "unknown instrument type", http.StatusNotFound)
		return
	}
	number, err := strconv.Atoi(chi.URLParam(req, "instance"))
	if err != nil {
		http.Error(w, "bad instance number", http.StatusBadRequest)
		return
	}

	states := r.svc.AlarmStates(typ, number)
	if states == nil {
		http.Error(w, "unknown instance", http.StatusNotFound)
		return
	}

	readings := make([]MetricReading, 0, len(states))
	for key, level := range states {
		v, ok := r.svc.Metric(typ, number, key)
		if !ok {
			continue
		}
		readings = append(readings, MetricReading{
			Key:       key,
			Value:     v.Value,
			Display:   domain.FormatMetric(key, v.Value),
			Mnemonic:  domain.UnitFor(key).Mnemonic,
			Alarm:     level.String(),
			Timestamp: v.Timestamp,
		})
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].Key < readings[j].Key })
	writeJSON(w, readings)
}

func (r *Runtime) startHTTP() {
	r.httpSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: r.router(),
	}

	go func() {
		if err := r.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("diagnostics server exited: %v", err)
		}
	}()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
