package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce              sync.Once
	httpRequestsTotal         *prometheus.CounterVec
	httpLatencySeconds        *prometheus.HistogramVec
	httpErrorsTotal           *prometheus.CounterVec
	assessmentsTotal          *prometheus.CounterVec
	assessmentDurationSeconds prometheus.Histogram
	appealsSubmittedTotal     prometheus.Counter
	programCacheTotal         *prometheus.CounterVec
	eventsPublishedTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mihas",
			Name:      "http_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mihas",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mihas",
			Name:      "http_errors_total",
			Help:      "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		assessmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mihas",
			Subsystem: "eligibility",
			Name:      "assessments_total",
			Help:      "Eligibility assessments computed, by resulting status.",
		}, []string{"status"})

		assessmentDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mihas",
			Subsystem: "eligibility",
			Name:      "assessment_duration_seconds",
			Help:      "Time spent loading rules, scoring and persisting an assessment.",
			Buckets:   prometheus.DefBuckets,
		})

		appealsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mihas",
			Subsystem: "eligibility",
			Name:      "appeals_submitted_total",
			Help:      "Eligibility appeals recorded.",
		})

		programCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mihas",
			Subsystem: "eligibility",
			Name:      "program_cache_requests_total",
			Help:      "Programme criteria cache lookups, by result.",
		}, []string{"result"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mihas",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events published to brokers, by event type.",
		}, []string{"type"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			assessmentsTotal,
			assessmentDurationSeconds,
			appealsSubmittedTotal,
			programCacheTotal,
			eventsPublishedTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Assessments exposes the assessment counter.
func Assessments() *prometheus.CounterVec {
	RegisterMetrics()
	return assessmentsTotal
}

// AssessmentDuration exposes the assessment duration histogram.
func AssessmentDuration() prometheus.Histogram {
	RegisterMetrics()
	return assessmentDurationSeconds
}

// AppealsSubmitted exposes the appeal counter.
func AppealsSubmitted() prometheus.Counter {
	RegisterMetrics()
	return appealsSubmittedTotal
}

// ProgramCache exposes the criteria cache counter.
func ProgramCache() *prometheus.CounterVec {
	RegisterMetrics()
	return programCacheTotal
}

// EventsPublished exposes the published events counter.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}
