package maintenance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/CoachTrace/CoachTrace/internal/inspection"
	"github.com/CoachTrace/CoachTrace/internal/risk"
)

// Service 封装保养记录与风险评估的核心用例。
type Service struct {
	repo   *Repo
	scorer *risk.Scorer
}

func NewService(repo *Repo, scorer *risk.Scorer) *Service {
	return &Service{repo: repo, scorer: scorer}
}

// RecordInput 录入保养记录的入参。Date 为空时取当天（dd-mm-yyyy）。
type RecordInput struct {
	CoachID         string
	TrainNo         string
	Date            string
	MaintenanceType string
	Engineer        string
	Notes           string
}

// RecordView 历史展示视图：原始记录 + 统一格式的日期。
type RecordView struct {
	Record
	DisplayDate string `json:"display_date"`
}

// defaultDate 空日期取当天的展示格式。
func defaultDate(date string, now time.Time) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return inspection.FormatServiceDate(now)
	}
	return date
}

// RecordMaintenance 录入一条保养记录。
// 车厢必须存在；列车引用可选，但给了就必须存在。
// 记录落库的同时覆盖车厢的 last_maintenance（同一事务）。
func (s *Service) RecordMaintenance(ctx context.Context, in RecordInput) (*Record, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	coachID := strings.TrimSpace(in.CoachID)
	if coachID == "" {
		return nil, fmt.Errorf("coach_id required")
	}
	engineer := strings.TrimSpace(in.Engineer)
	if engineer == "" {
		return nil, fmt.Errorf("engineer required")
	}

	if _, err := s.repo.GetCoach(ctx, coachID); err != nil {
		return nil, err
	}
	trainNo := strings.TrimSpace(in.TrainNo)
	if trainNo != "" {
		if _, err := s.repo.GetTrain(ctx, trainNo); err != nil {
			return nil, err
		}
	}

	rec := &Record{
		CoachID:         coachID,
		TrainNo:         trainNo,
		Date:            defaultDate(in.Date, time.Now()),
		MaintenanceType: strings.TrimSpace(in.MaintenanceType),
		Engineer:        engineer,
		Notes:           strings.TrimSpace(in.Notes),
	}
	if err := s.repo.CreateAndTouchCoach(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// History 按条件查询保养历史。
func (s *Service) History(ctx context.Context, f HistoryFilter) ([]RecordView, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	f.TrainNo = strings.TrimSpace(f.TrainNo)
	f.CoachID = strings.TrimSpace(f.CoachID)
	f.Engineer = strings.TrimSpace(f.Engineer)

	records, err := s.repo.History(ctx, f)
	if err != nil {
		return nil, err
	}
	return toViews(records), nil
}

// Recent 最近的保养记录，给看板用。
func (s *Service) Recent(ctx context.Context, limit int) ([]RecordView, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	records, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toViews(records), nil
}

func toViews(records []Record) []RecordView {
	views := make([]RecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, RecordView{
			Record:      rec,
			DisplayDate: inspection.CanonicalDisplay(rec.Date),
		})
	}
	return views
}

// AssessRisk 对车厢做风险评估。车厢不存在按前置条件失败处理。
func (s *Service) AssessRisk(ctx context.Context, coachID string) (risk.Assessment, error) {
	if s == nil || s.repo == nil || s.scorer == nil {
		return risk.Assessment{}, fmt.Errorf("service not initialized")
	}
	coachID = strings.TrimSpace(coachID)
	if coachID == "" {
		return risk.Assessment{}, fmt.Errorf("coach_id required")
	}

	c, err := s.repo.GetCoach(ctx, coachID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return risk.Assessment{}, fmt.Errorf("%w: %s", risk.ErrNoCoachData, coachID)
	}
	if err != nil {
		return risk.Assessment{}, err
	}

	return s.scorer.Assess(c.CoachID, c.KmRun, c.LastMaintenance, time.Now())
}

// Count 记录总数，给看板用。
func (s *Service) Count(ctx context.Context) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, fmt.Errorf("service not initialized")
	}
	return s.repo.Count(ctx)
}
