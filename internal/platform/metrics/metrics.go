package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	SyncRows            *prometheus.CounterVec
	SyncCycles          *prometheus.CounterVec
	CycleItems          *prometheus.CounterVec
	CycleDuration       prometheus.Histogram
	EnrichAttempts      prometheus.Counter
	EnrichFailures      prometheus.Counter
	FanoutDeliveries    *prometheus.CounterVec
	BroadcastsPublished *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SyncRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pravaha_sync_rows_total",
			Help: "Directory sync row outcomes by source and result.",
		}, []string{"source", "result"}),
		SyncCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pravaha_sync_cycles_total",
			Help: "Directory sync cycles by source and outcome.",
		}, []string{"source", "outcome"}),
		CycleItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pravaha_cycle_items_total",
			Help: "Ingestion cycle item outcomes.",
		}, []string{"outcome"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pravaha_cycle_duration_seconds",
			Help:    "Wall-clock duration of one ingestion cycle.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		EnrichAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "pravaha_enrich_attempts_total",
			Help: "Calls made to the structured-analysis capability.",
		}),
		EnrichFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pravaha_enrich_failures_total",
			Help: "Enrichments that exhausted all retry attempts.",
		}),
		FanoutDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pravaha_fanout_deliveries_total",
			Help: "Per-subscriber push delivery outcomes.",
		}, []string{"result"}),
		BroadcastsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pravaha_broadcasts_published_total",
			Help: "Live-channel broadcast outcomes by sink.",
		}, []string{"sink", "result"}),
	}
}

// NewDefault registers the metrics with the default Prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
