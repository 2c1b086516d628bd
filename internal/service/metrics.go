package service

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GenerationMetrics exposes generation pipeline counters and timings.
type GenerationMetrics struct {
	generations *prometheus.CounterVec
	duration    prometheus.Histogram
	conflicts   prometheus.Histogram
	audits      *prometheus.CounterVec
}

// NewGenerationMetrics registers the generator metrics on the given registry.
func NewGenerationMetrics(reg prometheus.Registerer) *GenerationMetrics {
	m := &GenerationMetrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timetable",
			Name:      "generations_total",
			Help:      "Completed generation runs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "timetable",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of generation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		conflicts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "timetable",
			Name:      "generation_conflicts",
			Help:      "Conflicts reported per generation run.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timetable",
			Name:      "audit_findings_total",
			Help:      "Audit findings by severity.",
		}, []string{"severity"}),
	}
	if reg != nil {
		reg.MustRegister(m.generations, m.duration, m.conflicts, m.audits)
	}
	return m
}

// ObserveGeneration records one finished run.
func (m *GenerationMetrics) ObserveGeneration(elapsed time.Duration, success bool, conflicts int) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.generations.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
	m.conflicts.Observe(float64(conflicts))
}

// ObserveAudit records audit findings.
func (m *GenerationMetrics) ObserveAudit(errors, warnings int) {
	m.audits.WithLabelValues("error").Add(float64(errors))
	m.audits.WithLabelValues("warning").Add(float64(warnings))
}

// HTTPMetrics tracks request counts and latency per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the given registry.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timetable",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "timetable",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency)
	}
	return m
}

// ObserveHTTPRequest records one served request.
func (m *HTTPMetrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, fmt.Sprintf("%d", status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
