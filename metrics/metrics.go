package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewer_http_requests_total",
			Help: "Total number of HTTP requests completed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interviewer_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIPanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewer_api_panics_recovered_total",
			Help: "Total number of handler panics recovered at the API boundary",
		},
		[]string{"method", "route"},
	)

	GoroutinePanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewer_goroutine_panics_recovered_total",
			Help: "Total number of panics recovered in supervised goroutines",
		},
		[]string{"goroutine"},
	)

	DependencyConnectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewer_dependency_connect_failures_total",
			Help: "Total number of failed connection attempts to the store or cache",
		},
		[]string{"dependency"},
	)

	LifecycleState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "interviewer_lifecycle_state",
			Help: "Current server lifecycle state (0=starting, 1=listening, 2=draining, 3=stopped)",
		},
	)
)
