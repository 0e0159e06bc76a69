package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Transcription outcomes
const (
	OutcomeSuccess    = "success"
	OutcomeIneligible = "ineligible"
	OutcomeDuplicate  = "duplicate"
	OutcomeFailed     = "failed"
)

// Store modes reported by the store_mode gauge
const (
	StoreModeMemory  = 0
	StoreModeDurable = 1
)

// Metrics holds the bot's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	// Labels: outcome (success/ineligible/duplicate/failed), stage (""/download/conversion/recognition)
	transcriptions *prometheus.CounterVec
	// Labels: stage (download/conversion/recognition)
	stageDuration *prometheus.HistogramVec
	// Labels: operation (put/get)
	storeErrors *prometheus.CounterVec
	storeMode   prometheus.Gauge
	cacheHits   prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry
// together with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		transcriptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vmt_transcriptions_total",
				Help: "Total number of transcription requests by outcome and failing stage",
			},
			[]string{"outcome", "stage"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vmt_stage_duration_seconds",
				Help:    "Pipeline stage duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vmt_store_errors_total",
				Help: "Result store operations that failed and were swallowed",
			},
			[]string{"operation"},
		),
		storeMode: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vmt_store_durable",
				Help: "Result store mode (0=in-memory, 1=durable)",
			},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vmt_lookup_hits_total",
				Help: "Context-menu lookups answered from an existing record",
			},
		),
	}

	m.Registry.MustRegister(
		m.transcriptions,
		m.stageDuration,
		m.storeErrors,
		m.storeMode,
		m.cacheHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordOutcome counts a finished Handle call.
func (m *Metrics) RecordOutcome(outcome, stage string) {
	m.transcriptions.WithLabelValues(outcome, stage).Inc()
}

// RecordDuration observes a stage duration in seconds.
func (m *Metrics) RecordDuration(stage string, seconds float64) {
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordStoreError counts a swallowed store failure.
func (m *Metrics) RecordStoreError(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}

// RecordLookupHit counts a lookup that found a record.
func (m *Metrics) RecordLookupHit() {
	m.cacheHits.Inc()
}

// SetStoreMode reports which ResultStore variant is active.
func (m *Metrics) SetStoreMode(durable bool) {
	if durable {
		m.storeMode.Set(StoreModeDurable)
		return
	}
	m.storeMode.Set(StoreModeMemory)
}
