package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RiskMetrics 风险评分指标
type RiskMetrics struct {
	PredictionTotal  *prometheus.CounterVec
	PredictionErrors prometheus.Counter
	ScoreHistogram   prometheus.Histogram
	ModelLoadedGauge prometheus.Gauge

	registry *prometheus.Registry
}

// NewRiskMetrics 创建并注册风险评分指标
func NewRiskMetrics(registry *prometheus.Registry) (*RiskMetrics, error) {
	m := &RiskMetrics{registry: registry}

	m.PredictionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachtrace_risk_predictions_total",
			Help: "Risk classifier predictions partitioned by resulting tier.",
		},
		[]string{"tier"},
	)
	m.PredictionErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coachtrace_risk_prediction_errors_total",
			Help: "Risk assessments that failed on input or model errors.",
		},
	)
	m.ScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coachtrace_risk_score",
			Help:    "Distribution of computed risk scores.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
	m.ModelLoadedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coachtrace_risk_model_loaded",
			Help: "Whether the risk classifier artifact is loaded (1) or not (0).",
		},
	)

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register risk metrics: %w", err)
	}
	return m, nil
}

// RecordAssessment 记录一次评估
func (m *RiskMetrics) RecordAssessment(tier string, score int) {
	if m == nil {
		return
	}
	m.PredictionTotal.WithLabelValues(tier).Inc()
	m.ScoreHistogram.Observe(float64(score))
}

// RecordError 记录一次评估失败
func (m *RiskMetrics) RecordError() {
	if m == nil {
		return
	}
	m.PredictionErrors.Inc()
}

// SetModelLoaded 标记模型加载状态
func (m *RiskMetrics) SetModelLoaded(loaded bool) {
	if m == nil {
		return
	}
	if loaded {
		m.ModelLoadedGauge.Set(1)
	} else {
		m.ModelLoadedGauge.Set(0)
	}
}

func (m *RiskMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.PredictionTotal.Describe(ch)
	m.PredictionErrors.Describe(ch)
	m.ScoreHistogram.Describe(ch)
	m.ModelLoadedGauge.Describe(ch)
}

func (m *RiskMetrics) Collect(ch chan<- prometheus.Metric) {
	m.PredictionTotal.Collect(ch)
	m.PredictionErrors.Collect(ch)
	m.ScoreHistogram.Collect(ch)
	m.ModelLoadedGauge.Collect(ch)
}
