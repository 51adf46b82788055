package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// InspectionMetrics 保养判定指标
type InspectionMetrics struct {
	StatusTotal       *prometheus.CounterVec
	AlertScanDuration prometheus.Histogram
	AlertCount        prometheus.Gauge

	registry *prometheus.Registry
}

// NewInspectionMetrics 创建并注册保养判定指标
func NewInspectionMetrics(registry *prometheus.Registry) (*InspectionMetrics, error) {
	m := &InspectionMetrics{registry: registry}

	m.StatusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachtrace_inspection_status_total",
			Help: "Maintenance status evaluations partitioned by resulting status.",
		},
		[]string{"status"},
	)
	m.AlertScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coachtrace_inspection_alert_scan_duration_seconds",
			Help:    "Time taken by a full fleet alert scan.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
	m.AlertCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coachtrace_inspection_overdue_coaches",
			Help: "Number of overdue coaches found by the most recent alert scan.",
		},
	)

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register inspection metrics: %w", err)
	}
	return m, nil
}

// RecordStatus 记录一次判定结果
func (m *InspectionMetrics) RecordStatus(status string) {
	if m == nil {
		return
	}
	m.StatusTotal.WithLabelValues(status).Inc()
}

// RecordAlertScan 记录一次全量扫描
func (m *InspectionMetrics) RecordAlertScan(durationSeconds float64, overdue int) {
	if m == nil {
		return
	}
	m.AlertScanDuration.Observe(durationSeconds)
	m.AlertCount.Set(float64(overdue))
}

func (m *InspectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.StatusTotal.Describe(ch)
	m.AlertScanDuration.Describe(ch)
	m.AlertCount.Describe(ch)
}

func (m *InspectionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.StatusTotal.Collect(ch)
	m.AlertScanDuration.Collect(ch)
	m.AlertCount.Collect(ch)
}
