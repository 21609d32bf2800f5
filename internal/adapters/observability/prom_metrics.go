package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"marinecore/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	orphans := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marinecore_orphans_cleaned_total",
		Help: "Instance descriptors removed because they stopped reporting.",
	})
	panics := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marinecore_callback_panics_total",
		Help: "Subscriber callbacks that panicked during dispatch.",
	})
	instances := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "marinecore_instances_total",
		Help: "Currently tracked instrument instances.",
	})
	engines := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "marinecore_engines_active",
		Help: "Currently tracked engines.",
	})
	batteries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "marinecore_batteries_active",
		Help: "Currently tracked battery banks.",
	})
	tanks := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "marinecore_tanks_active",
		Help: "Currently tracked tanks.",
	})
	memory := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "marinecore_memory_estimate_bytes",
		Help: "Estimated bytes held by instance metric history.",
	})
	scan := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "marinecore_scan_duration_seconds",
		Help:    "Full detection tick duration: scan, cleanup, recompute.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10),
	})

	prometheus.MustRegister(orphans, panics, instances, engines, batteries, tanks, memory, scan)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"marinecore_orphans_cleaned_total": orphans,
			"marinecore_callback_panics_total": panics,
		},
		gauges: map[string]prometheus.Gauge{
			"marinecore_instances_total":       instances,
			"marinecore_engines_active":        engines,
			"marinecore_batteries_active":      batteries,
			"marinecore_tanks_active":          tanks,
			"marinecore_memory_estimate_bytes": memory,
		},
		histos: map[string]prometheus.Observer{
			"marinecore_scan_duration_seconds": scan,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, renderFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, renderFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func renderFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}
