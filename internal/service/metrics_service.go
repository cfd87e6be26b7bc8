package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the governance workflow.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	requestsCreated *prometheus.CounterVec
	requestsClosed  *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	requestsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_requests_created_total",
		Help: "Approval requests created, by initial status",
	}, []string{"status"})

	requestsClosed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_requests_resolved_total",
		Help: "Approval requests resolved, by decision",
	}, []string{"decision"})

	registry.MustRegister(requestDuration, requestTotal, requestsCreated, requestsClosed)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		requestsCreated: requestsCreated,
		requestsClosed:  requestsClosed,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveRequestCreated records an approval request entering the queue.
func (s *MetricsService) ObserveRequestCreated(status string) {
	s.requestsCreated.WithLabelValues(status).Inc()
}

// ObserveRequestResolved records a terminal decision.
func (s *MetricsService) ObserveRequestResolved(decision string) {
	s.requestsClosed.WithLabelValues(decision).Inc()
}
