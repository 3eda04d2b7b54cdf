package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the server's collectors on a private registry so several
// servers can coexist in one process.
type metrics struct {
	registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	paymentMutations *prometheus.CounterVec
	rateLimitHits    prometheus.Counter
	suspicious       prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paytrack",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "paytrack",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		paymentMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paytrack",
			Name:      "payment_mutations_total",
			Help:      "Successful payment mutations by operation.",
		}, []string{"operation"}),
		rateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paytrack",
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paytrack",
			Name:      "suspicious_requests_total",
			Help:      "Requests matching known probing patterns.",
		}),
	}
	reg.MustRegister(
		m.requests,
		m.duration,
		m.paymentMutations,
		m.rateLimitHits,
		m.suspicious,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
