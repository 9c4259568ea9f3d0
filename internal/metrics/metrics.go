package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zionnet/newsflow/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	FetchMisses    *prometheus.CounterVec
	SinkDeliveries *prometheus.CounterVec
	SinkLatency    *prometheus.HistogramVec
	SignupMessages *prometheus.CounterVec
}

// New registers all instruments with the given Prometheus registerer.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "news_cache_hits_total",
			Help: "Category requests served from a fresh cache entry.",
		}, []string{"category"}),

		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "news_cache_misses_total",
			Help: "Category requests that required an upstream fetch.",
		}, []string{"category"}),

		FetchMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "news_fetch_misses_total",
			Help: "Upstream fetches that produced no usable article.",
		}, []string{"category"}),

		SinkDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sink_deliveries_total",
			Help: "Fan-out delivery attempts by sink and outcome.",
		}, []string{"sink", "outcome"}),

		SinkLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sink_delivery_seconds",
			Help:    "Wall time of one sink delivery attempt.",
			Buckets: prometheus.DefBuckets,
		}, []string{"sink"}),

		SignupMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_messages_total",
			Help: "Signup queue messages by outcome (committed, duplicate, requeued, dropped).",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.CacheHits,
		m.CacheMisses,
		m.FetchMisses,
		m.SinkDeliveries,
		m.SinkLatency,
		m.SignupMessages,
	)

	return m
}

// PipelineHooks returns the metric callbacks expected by pipeline.Hooks.
// Centralises the prometheus observation calls so the pipeline stays
// metrics-agnostic.
func (m *Metrics) PipelineHooks() (
	onCacheHit func(domain.Category),
	onCacheMiss func(domain.Category),
	onFetchMiss func(domain.Category),
	onSink func(name string, err error, elapsed time.Duration),
) {
	onCacheHit = func(c domain.Category) {
		m.CacheHits.WithLabelValues(string(c)).Inc()
	}
	onCacheMiss = func(c domain.Category) {
		m.CacheMisses.WithLabelValues(string(c)).Inc()
	}
	onFetchMiss = func(c domain.Category) {
		m.FetchMisses.WithLabelValues(string(c)).Inc()
	}
	onSink = func(name string, err error, elapsed time.Duration) {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		m.SinkDeliveries.WithLabelValues(name, outcome).Inc()
		m.SinkLatency.WithLabelValues(name).Observe(elapsed.Seconds())
	}
	return
}

// ConsumerHook returns the callback expected by consumer.Hooks.
func (m *Metrics) ConsumerHook() func(outcome string) {
	return func(outcome string) {
		m.SignupMessages.WithLabelValues(outcome).Inc()
	}
}
