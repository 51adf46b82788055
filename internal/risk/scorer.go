package risk

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
	"github.com/CoachTrace/CoachTrace/internal/common/metrics"
)

// Tier 分类器给出的风险档位
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// 分类器输出到档位的映射。不在映射内的输出一律报错，不默认兜底。
var labelTiers = map[int]Tier{
	0: TierLow,
	1: TierMedium,
	2: TierHigh,
}

// 线性加权分的权重
const (
	kmWeight        = 40.0
	vibrationWeight = 30.0
	brakeWeight     = 0.3 // 乘在 (100 - brake_health) 上
)

var (
	// ErrNoCoachData 车厢不存在或没有可评估的数据（调用前置条件不满足）
	ErrNoCoachData = errors.New("coach has no data to assess")
	// ErrUnknownLabel 分类器给出映射外的类别
	ErrUnknownLabel = errors.New("classifier returned unknown label")
)

// Classifier 预训练分类器契约：输入 [km, vibration, brake_health]，输出类别编号。
type Classifier interface {
	Predict(features [3]float64) (int, error)
}

// Breakdown 线性加权分的分项
type Breakdown struct {
	KmScore        float64 `json:"km_score"`
	VibrationScore float64 `json:"vibration_score"`
	BrakeScore     float64 `json:"brake_score"`
}

// Assessment 单次评估结果。
// Tier 来自分类器，Score 来自线性加权，两者独立产出，互不约束：
// 档位为 Low 而分数接近 100 是允许出现的组合，只记录，不拉齐。
type Assessment struct {
	CoachID     string    `json:"coach_id"`
	Tier        Tier      `json:"tier"`
	Score       int       `json:"score"`
	KmRun       float64   `json:"km_run"`
	Vibration   float64   `json:"vibration_level"`
	BrakeHealth float64   `json:"brake_health"`
	DaysSince   int       `json:"days_since_service"`
	Breakdown   Breakdown `json:"breakdown"`
}

// Disagrees 档位与分数段不一致时返回 true，供运维排查用，不参与业务判定。
func (a Assessment) Disagrees() bool {
	return scoreBand(a.Score) != a.Tier
}

func scoreBand(score int) Tier {
	switch {
	case score < 34:
		return TierLow
	case score < 67:
		return TierMedium
	default:
		return TierHigh
	}
}

// Scorer 风险评分器。分类器启动时加载一次，之后只读。
type Scorer struct {
	clf    Classifier
	kmNorm float64

	metrics *metrics.RiskMetrics
}

// NewScorer 创建评分器。配置非法在这里一次性报错。
func NewScorer(cfg config.RiskConfig, clf Classifier, m *metrics.RiskMetrics) (*Scorer, error) {
	if clf == nil {
		return nil, fmt.Errorf("classifier is nil")
	}
	if cfg.KmNorm <= 0 {
		return nil, fmt.Errorf("km_norm must be positive, got %v", cfg.KmNorm)
	}
	return &Scorer{clf: clf, kmNorm: cfg.KmNorm, metrics: m}, nil
}

// ScoreBreakdown 计算线性加权分的分项。
func (s *Scorer) ScoreBreakdown(km, vibration, brakeHealth float64) Breakdown {
	return Breakdown{
		KmScore:        math.Min(km/s.kmNorm*kmWeight, kmWeight),
		VibrationScore: vibration * vibrationWeight,
		BrakeScore:     (100 - brakeHealth) * brakeWeight,
	}
}

// LinearScore 线性加权分，向下取整并夹到 [0, 100]。
func (s *Scorer) LinearScore(km, vibration, brakeHealth float64) int {
	b := s.ScoreBreakdown(km, vibration, brakeHealth)
	total := b.KmScore + b.VibrationScore + b.BrakeScore
	score := int(math.Floor(math.Min(total, 100)))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Assess 对一节车厢做完整评估。
// kmRun 为 nil 按 0 公里计；lastService 缺失或不合格式按 0 天计。
func (s *Scorer) Assess(coachID string, kmRun *int64, lastService string, now time.Time) (Assessment, error) {
	if s == nil || s.clf == nil {
		return Assessment{}, fmt.Errorf("scorer not initialized")
	}

	km := float64(0)
	if kmRun != nil {
		km = float64(*kmRun)
	}
	vibration := DeriveVibration(km)
	brakeHealth := DeriveBrakeHealth(km)
	days := DaysSinceStrict(lastService, now)

	label, err := s.clf.Predict([3]float64{km, vibration, brakeHealth})
	if err != nil {
		s.metrics.RecordError()
		return Assessment{}, fmt.Errorf("classifier predict: %w", err)
	}
	tier, ok := labelTiers[label]
	if !ok {
		s.metrics.RecordError()
		return Assessment{}, fmt.Errorf("%w: %d", ErrUnknownLabel, label)
	}

	breakdown := s.ScoreBreakdown(km, vibration, brakeHealth)
	score := s.LinearScore(km, vibration, brakeHealth)
	s.metrics.RecordAssessment(string(tier), score)

	return Assessment{
		CoachID:     coachID,
		Tier:        tier,
		Score:       score,
		KmRun:       km,
		Vibration:   vibration,
		BrakeHealth: brakeHealth,
		DaysSince:   days,
		Breakdown:   breakdown,
	}, nil
}
