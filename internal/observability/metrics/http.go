package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics covers the API surface plus the agent loop behind
// the chat endpoint.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queryTotal          *prometheus.CounterVec
	queryDuration       *prometheus.HistogramVec
	querySourcePassages *prometheus.HistogramVec
	agentToolCallsTotal *prometheus.CounterVec
	refusalsTotal       *prometheus.CounterVec
	documentsIndexed    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atr",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "atr",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "atr",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atr",
			Subsystem: "query",
			Name:      "total",
			Help:      "Total completed chat queries by status.",
		},
		[]string{"service", "status"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "atr",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Chat query duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"service"},
	)
	querySourcePassages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "atr",
			Subsystem: "query",
			Name:      "source_passages",
			Help:      "Distribution of source passages per answered query.",
			Buckets:   []float64{0, 1, 3, 5, 10, 15, 20, 25},
		},
		[]string{"service"},
	)
	agentToolCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atr",
			Subsystem: "agent",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations by the agent.",
		},
		[]string{"service", "tool", "status"},
	)
	refusalsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atr",
			Subsystem: "agent",
			Name:      "refusals_total",
			Help:      "Total out-of-domain queries refused by the agent.",
		},
		[]string{"service"},
	)
	documentsIndexed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atr",
			Subsystem: "index",
			Name:      "documents_total",
			Help:      "Total documents indexed through the API by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queryTotal,
		queryDuration,
		querySourcePassages,
		agentToolCallsTotal,
		refusalsTotal,
		documentsIndexed,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		queryTotal:          queryTotal,
		queryDuration:       queryDuration,
		querySourcePassages: querySourcePassages,
		agentToolCallsTotal: agentToolCallsTotal,
		refusalsTotal:       refusalsTotal,
		documentsIndexed:    documentsIndexed,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordQuery(service string, err error, sourceCount int, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.queryTotal.WithLabelValues(service, status).Inc()
	m.queryDuration.WithLabelValues(service).Observe(duration.Seconds())
	if err == nil {
		m.querySourcePassages.WithLabelValues(service).Observe(float64(sourceCount))
	}
}

func (m *HTTPServerMetrics) RecordToolCall(service, tool string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.agentToolCallsTotal.WithLabelValues(service, tool, status).Inc()
}

func (m *HTTPServerMetrics) RecordRefusal(service string) {
	m.refusalsTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordDocumentsIndexed(service string, indexed, failed int) {
	if indexed > 0 {
		m.documentsIndexed.WithLabelValues(service, "success").Add(float64(indexed))
	}
	if failed > 0 {
		m.documentsIndexed.WithLabelValues(service, "error").Add(float64(failed))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
