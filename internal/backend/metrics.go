// metrics.go — Prometheus-метрики исходящих запросов к backend.
package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// backendRequestsTotal — количество запросов к backend по операциям и результату.
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_backend_requests_total",
			Help: "Общее количество запросов портала к backend",
		},
		[]string{"operation", "status"},
	)

	// backendRequestDuration — длительность запросов к backend.
	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_backend_request_duration_seconds",
			Help:    "Длительность запросов портала к backend в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
