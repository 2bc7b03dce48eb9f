package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	pipelineRuns      *prometheus.CounterVec
	fallbacksTotal    *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec
	modelOutputChars  *prometheus.HistogramVec
	insightsPersisted prometheus.Counter
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finpulse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finpulse",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "finpulse",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	pipelineRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finpulse",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by outcome.",
		},
		[]string{"pipeline", "status"},
	)
	fallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finpulse",
			Subsystem: "pipeline",
			Name:      "fallbacks_total",
			Help:      "Total runs that fell back to a typed default output.",
		},
		[]string{"pipeline", "reason"},
	)
	modelCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finpulse",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Model completion round trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"pipeline"},
	)
	modelOutputChars := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finpulse",
			Subsystem: "llm",
			Name:      "output_chars",
			Help:      "Distribution of raw model output length in characters.",
			Buckets:   []float64{0, 64, 128, 256, 512, 1024, 2048, 4096},
		},
		[]string{"pipeline"},
	)
	insightsPersisted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "finpulse",
			Subsystem: "pipeline",
			Name:      "insights_persisted_total",
			Help:      "Total insights written to storage.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		pipelineRuns,
		fallbacksTotal,
		modelCallDuration,
		modelOutputChars,
		insightsPersisted,
	)

	return &Metrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		pipelineRuns:      pipelineRuns,
		fallbacksTotal:    fallbacksTotal,
		modelCallDuration: modelCallDuration,
		modelOutputChars:  modelOutputChars,
		insightsPersisted: insightsPersisted,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
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
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "/v1/insights/") && strings.HasSuffix(path, "/dismiss") {
		return "/v1/insights/{insight_id}/dismiss"
	}
	return path
}

func (m *Metrics) PipelineRun(pipeline, status string) {
	if status == "" {
		status = "unknown"
	}
	m.pipelineRuns.WithLabelValues(pipeline, status).Inc()
}

func (m *Metrics) ModelCall(pipeline string, duration time.Duration, outputChars int) {
	m.modelCallDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
	m.modelOutputChars.WithLabelValues(pipeline).Observe(float64(outputChars))
}

func (m *Metrics) FallbackUsed(pipeline, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.fallbacksTotal.WithLabelValues(pipeline, reason).Inc()
}

func (m *Metrics) InsightsPersisted(count int) {
	if count <= 0 {
		return
	}
	m.insightsPersisted.Add(float64(count))
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
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
