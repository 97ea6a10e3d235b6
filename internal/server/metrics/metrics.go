// Package metrics defines the Prometheus instruments exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the server's instruments. Using a struct with its own
// registry keeps tests isolated from the global default registry.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
	EventsIngestedTotal     *prometheus.CounterVec
	NotificationsDispatched prometheus.Counter
	StreamClients           prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "safewatch_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "safewatch_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		EventsIngestedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "safewatch_events_ingested_total",
				Help: "Total number of events accepted for storage by table",
			},
			[]string{"table"},
		),

		NotificationsDispatched: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "safewatch_notifications_dispatched_total",
				Help: "Total number of live notifications delivered to stream subscribers",
			},
		),

		StreamClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "safewatch_stream_clients",
				Help: "Number of currently connected stream clients",
			},
		),
	}
}
