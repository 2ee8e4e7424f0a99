package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "devsim"

// Metrics holds the Prometheus collectors for one server instance. Each
// instance has its own registry so tests can build servers freely.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Saves        prometheus.Counter
	SaveFailures prometheus.Counter
	DroppedEdges prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Saves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "graph_saves_total",
			Help:      "Total number of committed graph saves",
		}),
		SaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "graph_save_failures_total",
			Help:      "Total number of graph saves rolled back",
		}),
		DroppedEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "graph_dropped_edges_total",
			Help:      "Total number of edges dropped because an endpoint did not resolve",
		}),
	}
	m.registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.Saves,
		m.SaveFailures,
		m.DroppedEdges,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
