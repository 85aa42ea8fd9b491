package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRoundsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agrismart_fl_rounds_completed_total",
			Help: "Total number of committed federated training rounds",
		},
	)

	metricRoundFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agrismart_fl_round_failures_total",
			Help: "Total number of round attempts that failed quorum",
		},
	)

	metricWorkerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrismart_fl_worker_failures_total",
			Help: "Total number of per-worker failures, by phase",
		},
		[]string{"phase"},
	)

	metricConnectedWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agrismart_fl_connected_workers",
			Help: "Number of workers currently registered with the coordinator",
		},
	)

	metricRoundDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agrismart_fl_round_duration_seconds",
			Help:    "Duration of successful round attempts in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3m
		},
	)
)
