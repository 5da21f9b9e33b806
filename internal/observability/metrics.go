package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. Each
// instance owns its registry so handlers and tests never share state.
type Metrics struct {
	Routes          *prometheus.CounterVec
	ProviderErrors  *prometheus.CounterVec
	StoreErrors     *prometheus.CounterVec
	ResponseLatency prometheus.Histogram

	registry *prometheus.Registry
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Routes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Replies by the rule that produced them.",
		}, []string{"route"}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Failed calls to external providers.",
		}, []string{"provider"}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Failed transcript store operations by op.",
		}, []string{"op"}),
		ResponseLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_latency_ms",
			Help:      "Time to produce a reply in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000},
		}),
		registry: reg,
	}
}

func (m *Metrics) RouteSelected(route string) {
	m.Routes.WithLabelValues(route).Inc()
}

func (m *Metrics) ProviderFailed(provider string) {
	m.ProviderErrors.WithLabelValues(provider).Inc()
}

func (m *Metrics) StoreFailed(op string) {
	m.StoreErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveResponse(d time.Duration) {
	m.ResponseLatency.Observe(float64(d.Milliseconds()))
}

// Handler exposes the instance registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
