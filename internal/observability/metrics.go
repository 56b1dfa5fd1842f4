package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	generationsTotal      *prometheus.CounterVec
	generationLatency     *prometheus.HistogramVec
	taskTogglesTotal      *prometheus.CounterVec
	documentConflictTotal *prometheus.CounterVec
	notificationsTotal    *prometheus.CounterVec
	sseClientsActive      prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ascent_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ascent_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ascent_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		generationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ascent_roadmap_generations_total",
			Help: "Roadmap and learning-plan generations by kind and outcome.",
		}, []string{"kind", "outcome"})

		generationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ascent_roadmap_generation_seconds",
			Help:    "Latency distribution for roadmap and learning-plan generation.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"kind"})

		taskTogglesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ascent_roadmap_task_toggles_total",
			Help: "Task completion toggles by result.",
		}, []string{"result"})

		documentConflictTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ascent_roadmap_write_conflicts_total",
			Help: "Optimistic-concurrency conflicts on roadmap document writes.",
		}, []string{"operation"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ascent_notifications_published_total",
			Help: "Notifications published, by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ascent_sse_clients_active",
			Help: "Currently connected notification stream clients.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			generationsTotal,
			generationLatency,
			taskTogglesTotal,
			documentConflictTotal,
			notificationsTotal,
			sseClientsActive,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Generations exposes the counter for generation outcomes.
func Generations() *prometheus.CounterVec {
	RegisterMetrics()
	return generationsTotal
}

// GenerationLatency exposes the generation latency histogram.
func GenerationLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return generationLatency
}

// TaskToggles exposes the counter for task completion updates.
func TaskToggles() *prometheus.CounterVec {
	RegisterMetrics()
	return taskTogglesTotal
}

// DocumentConflicts exposes the counter for CAS write conflicts.
func DocumentConflicts() *prometheus.CounterVec {
	RegisterMetrics()
	return documentConflictTotal
}

// NotificationsPublished exposes the counter for published notifications.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// SSEClients exposes the gauge of connected notification stream clients.
func SSEClients() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}
