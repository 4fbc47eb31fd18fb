package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sandcastle/microservices/internal/infrastructure/scheduler"
)

const namespace = "sandcastle"

// Breaker states exported by SetBreakerState
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// Metrics is the per-process Prometheus registry. All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	messagesPublished  *prometheus.CounterVec
	messagesConsumed   *prometheus.CounterVec
	downstreamRequests *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
}

// NewMetrics creates a registry with process and Go runtime collectors
// plus the service's own metrics, labelled with service.
func NewMetrics(service string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	constLabels := prometheus.Labels{"service": service}
	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "HTTP requests served, by route and status.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		messagesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "messages_published_total",
			Help:        "Event messages handed to the transport.",
			ConstLabels: constLabels,
		}, []string{"channel", "result"}),
		messagesConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "messages_consumed_total",
			Help:        "Event messages consumed, by outcome.",
			ConstLabels: constLabels,
		}, []string{"channel", "outcome"}),
		downstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "downstream_requests_total",
			Help:        "Reads issued to backing services.",
			ConstLabels: constLabels,
		}, []string{"target", "result"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "circuit_breaker_state",
			Help:        "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
			ConstLabels: constLabels,
		}, []string{"name"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.messagesPublished,
		m.messagesConsumed,
		m.downstreamRequests,
		m.breakerState,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTPRequest records one served request
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// MessagePublished records a publish attempt
func (m *Metrics) MessagePublished(channel string, err error) {
	if m == nil {
		return
	}
	m.messagesPublished.WithLabelValues(channel, result(err)).Inc()
}

// MessageConsumed records a consume outcome
func (m *Metrics) MessageConsumed(channel, outcome string) {
	if m == nil {
		return
	}
	m.messagesConsumed.WithLabelValues(channel, outcome).Inc()
}

// DownstreamRequest records a read against a backing service
func (m *Metrics) DownstreamRequest(target string, err error) {
	if m == nil {
		return
	}
	m.downstreamRequests.WithLabelValues(target, result(err)).Inc()
}

// SetBreakerState records the state of a named circuit breaker
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// RegisterScheduler exports queue depth, active workers and task totals for s
func (m *Metrics) RegisterScheduler(s *scheduler.Scheduler) {
	if m == nil || s == nil {
		return
	}
	labels := prometheus.Labels{"pool": s.Name()}
	gauge := func(name, help string, value func(scheduler.Stats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "pool",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return value(s.Stats()) })
	}
	counter := func(name, help string, value func(scheduler.Stats) float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "pool",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return value(s.Stats()) })
	}

	m.registry.MustRegister(
		gauge("queued_tasks", "Tasks waiting for a worker.", func(st scheduler.Stats) float64 { return float64(st.Queued) }),
		gauge("active_tasks", "Tasks currently running.", func(st scheduler.Stats) float64 { return float64(st.Active) }),
		counter("completed_tasks_total", "Tasks that returned without error.", func(st scheduler.Stats) float64 { return float64(st.Completed) }),
		counter("failed_tasks_total", "Tasks that returned an error.", func(st scheduler.Stats) float64 { return float64(st.Failed) }),
		counter("rejected_tasks_total", "Tasks rejected because the queue was full.", func(st scheduler.Stats) float64 { return float64(st.Rejected) }),
	)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
