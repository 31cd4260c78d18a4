// Package observability exposes the application's prometheus metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the application's prometheus collectors around a
// private registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	// API metrics
	HTTPRequests *prometheus.CounterVec

	// Importer metrics
	HearingsImported prometheus.Counter
	HearingsSkipped  prometheus.Counter
	HearingsFailed   prometheus.Counter
	CommentsImported prometheus.Counter

	// Vote/follow toggles by outcome
	Toggles *prometheus.CounterVec
}

// NewMetrics creates a metrics bundle with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hearing_http_requests_total",
			Help: "HTTP requests served by the v1 API.",
		}, []string{"method", "path", "status"}),
		HearingsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "hearing_import_hearings_total",
			Help: "Hearings successfully imported from legacy archives.",
		}),
		HearingsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "hearing_import_skipped_total",
			Help: "Hearings skipped during import due to slug collisions.",
		}),
		HearingsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "hearing_import_failed_total",
			Help: "Hearings whose import aborted with an error.",
		}),
		CommentsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "hearing_import_comments_total",
			Help: "Comments imported from legacy archives.",
		}),
		Toggles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hearing_toggles_total",
			Help: "Vote/follow toggle operations by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
