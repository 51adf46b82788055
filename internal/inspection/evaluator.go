package inspection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
	"github.com/CoachTrace/CoachTrace/internal/common/metrics"
)

// Status 保养判定结果
type Status string

const (
	StatusOK      Status = "OK"       // 正常
	StatusDueSoon Status = "Due Soon" // 即将到期
	StatusOverdue Status = "Overdue"  // 已逾期
)

// Assessment 单节车厢的判定结果。
// DaysSince 为 nil 表示保养日期缺失或无法解析，此时仅由公里数参与判定。
type Assessment struct {
	Status    Status `json:"status"`
	KmRun     int64  `json:"km_run"`
	DaysSince *int   `json:"days_passed"`
}

// Alert 逾期告警条目。LastMaintenance 保留库中原始串，展示层再做格式统一。
type Alert struct {
	CoachID         string `json:"coach_id"`
	Type            string `json:"type"`
	LastMaintenance string `json:"last_maintenance"`
	KmRun           int64  `json:"km_run"`
	DaysSince       *int   `json:"days_passed"`
}

// CoachSnapshot 告警扫描需要的车厢字段。
type CoachSnapshot struct {
	CoachID         string
	Type            string
	LastMaintenance string
	KmRun           *int64
}

// CoachSource 告警扫描的数据来源。
// 实现方需要按 coach_id 升序返回 status 不等于 excludeStatus 的车厢。
type CoachSource interface {
	ListCoaches(ctx context.Context, excludeStatus string) ([]CoachSnapshot, error)
}

// Evaluator 保养状态判定器。阈值可在运行期整体替换（配置热加载）。
// 只读取数据，坏数据按缺失处理，任何判定都不返回错误。
type Evaluator struct {
	mu sync.RWMutex
	t  config.MaintenanceConfig

	metrics *metrics.InspectionMetrics
}

// NewEvaluator 创建判定器。阈值非法在这里一次性报错，不留到请求路径。
func NewEvaluator(cfg config.MaintenanceConfig, m *metrics.InspectionMetrics) (*Evaluator, error) {
	if err := validateThresholds(cfg); err != nil {
		return nil, err
	}
	return &Evaluator{t: cfg, metrics: m}, nil
}

// SetThresholds 整体替换阈值（配置热加载入口）。
func (e *Evaluator) SetThresholds(cfg config.MaintenanceConfig) error {
	if err := validateThresholds(cfg); err != nil {
		return err
	}
	e.mu.Lock()
	e.t = cfg
	e.mu.Unlock()
	return nil
}

// Thresholds 返回当前阈值快照。
func (e *Evaluator) Thresholds() config.MaintenanceConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.t
}

func validateThresholds(cfg config.MaintenanceConfig) error {
	if cfg.KmLimit <= 0 {
		return fmt.Errorf("km_limit must be positive, got %d", cfg.KmLimit)
	}
	if cfg.DaysLimit <= 0 {
		return fmt.Errorf("days_limit must be positive, got %d", cfg.DaysLimit)
	}
	if cfg.DaysSoon <= 0 || cfg.DaysSoon > cfg.DaysLimit {
		return fmt.Errorf("days_soon must be in (0, days_limit], got %d", cfg.DaysSoon)
	}
	if cfg.KmSoonMargin < 0 || cfg.KmSoonMargin > cfg.KmLimit {
		return fmt.Errorf("km_soon_margin must be in [0, km_limit], got %d", cfg.KmSoonMargin)
	}
	return nil
}

// Evaluate 对单节车厢做判定。
// kmRun 为 nil 按 0 公里计；日期缺失时仅由公里数参与判定。
func (e *Evaluator) Evaluate(kmRun *int64, lastService string, now time.Time) Assessment {
	t := e.Thresholds()

	var km int64
	if kmRun != nil {
		km = *kmRun
	}
	days := DaysSinceService(lastService, now)

	status := classify(t, km, days)
	e.metrics.RecordStatus(string(status))

	return Assessment{
		Status:    status,
		KmRun:     km,
		DaysSince: days,
	}
}

// classify 判定规则：逾期优先于即将到期，公里数与天数任一触发即命中。
func classify(t config.MaintenanceConfig, km int64, days *int) Status {
	if km >= t.KmLimit || (days != nil && *days >= t.DaysLimit) {
		return StatusOverdue
	}
	if km >= t.KmLimit-t.KmSoonMargin || (days != nil && *days >= t.DaysSoon) {
		return StatusDueSoon
	}
	return StatusOK
}

// ScanFleet 全量扫描在册车厢，返回逾期告警，保持数据源给出的顺序。
// 已下线（Removed）车厢由数据源排除。
func (e *Evaluator) ScanFleet(ctx context.Context, src CoachSource, now time.Time) ([]Alert, error) {
	if src == nil {
		return nil, fmt.Errorf("coach source is nil")
	}

	start := time.Now()
	coaches, err := src.ListCoaches(ctx, "Removed")
	if err != nil {
		return nil, fmt.Errorf("list coaches: %w", err)
	}

	alerts := make([]Alert, 0)
	for _, c := range coaches {
		a := e.Evaluate(c.KmRun, c.LastMaintenance, now)
		if a.Status != StatusOverdue {
			continue
		}
		alerts = append(alerts, Alert{
			CoachID:         c.CoachID,
			Type:            c.Type,
			LastMaintenance: c.LastMaintenance,
			KmRun:           a.KmRun,
			DaysSince:       a.DaysSince,
		})
	}

	e.metrics.RecordAlertScan(time.Since(start).Seconds(), len(alerts))
	return alerts, nil
}
