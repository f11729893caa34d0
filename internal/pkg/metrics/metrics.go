package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auditgate_records_total",
		Help: "The total number of log records written, by kind",
	}, []string{"kind"})

	RecordFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auditgate_record_failures_total",
		Help: "Failed writes to the log store, by kind",
	}, []string{"kind"})

	SuppressedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auditgate_suppressed_requests_total",
		Help: "Requests skipped by the request-log suppression list",
	})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auditgate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
