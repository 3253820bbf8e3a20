package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	readingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anomaly_pipeline_readings_total",
		Help: "Processed readings by terminal outcome.",
	}, []string{"outcome"})

	appendSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "anomaly_pipeline_ledger_append_seconds",
		Help:    "Ledger append latency, including the finality wait.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})
)
