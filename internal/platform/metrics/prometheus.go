package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager holds the service's Prometheus collectors.
type MetricsManager struct {
	Registry          *prometheus.Registry
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPLatency       *prometheus.HistogramVec
	FeedPageItems     *prometheus.HistogramVec
	SignFailuresTotal prometheus.Counter
	EventsPublished   *prometheus.CounterVec
}

// NewMetricsManager registers the collectors on a private registry.
func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route and status code.",
	}, []string{"route", "method", "code"})

	httpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	feedPageItems := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feed_page_items",
		Help:      "Number of items returned per feed page.",
		Buckets:   []float64{0, 1, 5, 10, 15, 20, 25},
	}, []string{"feed"})

	signFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_sign_failures_total",
		Help:      "Signed URL generations that fell back to the placeholder image.",
	})

	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Domain events published by subject and outcome.",
	}, []string{"subject", "outcome"})

	registry.MustRegister(
		httpRequestsTotal,
		httpLatency,
		feedPageItems,
		signFailuresTotal,
		eventsPublished,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:          registry,
		HTTPRequestsTotal: httpRequestsTotal,
		HTTPLatency:       httpLatency,
		FeedPageItems:     feedPageItems,
		SignFailuresTotal: signFailuresTotal,
		EventsPublished:   eventsPublished,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveFeedPage records the size of a served feed page.
func (m *MetricsManager) ObserveFeedPage(feed string, n int) {
	if m == nil {
		return
	}
	m.FeedPageItems.WithLabelValues(feed).Observe(float64(n))
}

// IncSignFailure counts a signing fallback.
func (m *MetricsManager) IncSignFailure() {
	if m == nil {
		return
	}
	m.SignFailuresTotal.Inc()
}

// IncEvent counts a publish attempt.
func (m *MetricsManager) IncEvent(subject, outcome string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(subject, outcome).Inc()
}
