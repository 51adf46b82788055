package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建带进程/Go运行时采集器的registry
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// Handler 暴露 /metrics
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// HTTPMetrics HTTP服务端指标
type HTTPMetrics struct {
	RequestTotal    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewHTTPMetrics 创建并注册HTTP指标
func NewHTTPMetrics(registry *prometheus.Registry, service string) (*HTTPMetrics, error) {
	m := &HTTPMetrics{registry: registry}

	m.RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "coachtrace_http_requests_total",
			Help:        "Total HTTP requests partitioned by path, method and status code.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"path", "method", "status"},
	)
	m.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "coachtrace_http_request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: prometheus.Labels{"service": service},
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"path", "method"},
	)

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register http metrics: %w", err)
	}
	return m, nil
}

// RecordRequest 记录一次请求
func (m *HTTPMetrics) RecordRequest(path, method string, status int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RequestTotal.WithLabelValues(path, method, fmt.Sprintf("%d", status)).Inc()
	m.RequestDuration.WithLabelValues(path, method).Observe(durationSeconds)
}

func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RequestTotal.Describe(ch)
	m.RequestDuration.Describe(ch)
}

func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RequestTotal.Collect(ch)
	m.RequestDuration.Collect(ch)
}
