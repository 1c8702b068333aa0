// Package metrics exposes routing outcomes two ways: Prometheus
// counters/histograms for scraping, and a JSON snapshot built from the
// state store for the analytics and providers endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
}

var (
	// requestsTotal counts every routing attempt against a provider, labelled
	// by its outcome.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total routing attempts per provider, labelled by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// requestLatency tracks successful-request latency in seconds.
	requestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_latency_seconds",
			Help:      "Successful provider request latency in seconds",
			Buckets:   latencyBuckets,
		},
		[]string{"provider"},
	)

	// costTotal accumulates estimated spend per provider.
	costTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_cost_usd_total",
			Help:      "Total estimated cost in USD per provider",
		},
		[]string{"provider"},
	)
)
