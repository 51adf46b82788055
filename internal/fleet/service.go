package fleet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CoachTrace/CoachTrace/internal/inspection"
)

// Service 封装车队领域的核心用例（不依赖 HTTP），便于复用和测试。
type Service struct {
	repo      *Repo
	evaluator *inspection.Evaluator
}

func NewService(repo *Repo, evaluator *inspection.Evaluator) *Service {
	return &Service{repo: repo, evaluator: evaluator}
}

// AddCoachInput 新增车厢的入参。
type AddCoachInput struct {
	CoachID         string
	Type            string
	LastMaintenance string
	KmRun           int64
	Status          Status
}

// EditCoachInput 编辑车厢的入参。保养日期与公里数整体覆盖。
type EditCoachInput struct {
	CoachID         string
	Type            string
	LastMaintenance string
	KmRun           int64
	Status          Status
}

// CoachView 列表展示用的车厢视图：原始记录 + 巡检判定 + 统一格式的日期。
type CoachView struct {
	Coach
	DueStatus   inspection.Status `json:"due_status"`
	DaysSince   *int              `json:"days_passed"`
	DisplayDate string            `json:"display_date"`
}

func (s *Service) AddCoach(ctx context.Context, in AddCoachInput) (*Coach, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	id := strings.TrimSpace(in.CoachID)
	if id == "" {
		return nil, fmt.Errorf("coach_id required")
	}
	if in.KmRun < 0 {
		return nil, fmt.Errorf("km_run must be non-negative")
	}
	st := in.Status
	if st == "" {
		st = StatusActive
	}
	if !ValidStatus(st) {
		return nil, fmt.Errorf("unknown coach status: %s", st)
	}

	km := in.KmRun
	c := &Coach{
		CoachID:         id,
		Type:            strings.TrimSpace(in.Type),
		LastMaintenance: strings.TrimSpace(in.LastMaintenance),
		KmRun:           &km,
		Status:          st,
	}
	if err := s.repo.CreateCoach(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) EditCoach(ctx context.Context, in EditCoachInput) (*Coach, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	id := strings.TrimSpace(in.CoachID)
	if id == "" {
		return nil, fmt.Errorf("coach_id required")
	}
	if in.KmRun < 0 {
		return nil, fmt.Errorf("km_run must be non-negative")
	}

	c, err := s.repo.GetCoach(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status != "" && in.Status != c.Status {
		if err := ApplyTransition(c, in.Status); err != nil {
			return nil, err
		}
	}
	c.Type = strings.TrimSpace(in.Type)
	c.LastMaintenance = strings.TrimSpace(in.LastMaintenance)
	km := in.KmRun
	c.KmRun = &km

	if err := s.repo.UpdateCoach(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCoach(ctx context.Context, id string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("coach_id required")
	}
	return s.repo.DeleteCoach(ctx, id)
}

func (s *Service) GetCoach(ctx context.Context, id string) (*CoachView, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("coach_id required")
	}
	c, err := s.repo.GetCoach(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.toView(*c, time.Now())
	return &v, nil
}

// ListCoaches 全量返回车厢视图，按车厢编号升序。
func (s *Service) ListCoaches(ctx context.Context) ([]CoachView, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	coaches, err := s.repo.ListCoaches(ctx, "")
	if err != nil {
		return nil, err
	}
	now := time.Now()
	views := make([]CoachView, 0, len(coaches))
	for _, c := range coaches {
		views = append(views, s.toView(c, now))
	}
	return views, nil
}

func (s *Service) toView(c Coach, now time.Time) CoachView {
	a := s.evaluator.Evaluate(c.KmRun, c.LastMaintenance, now)
	return CoachView{
		Coach:       c,
		DueStatus:   a.Status,
		DaysSince:   a.DaysSince,
		DisplayDate: inspection.CanonicalDisplay(c.LastMaintenance),
	}
}

// snapshotSource 把车厢仓储适配成告警扫描的数据源。
type snapshotSource struct {
	repo *Repo
}

func (s snapshotSource) ListCoaches(ctx context.Context, excludeStatus string) ([]inspection.CoachSnapshot, error) {
	coaches, err := s.repo.ListCoaches(ctx, excludeStatus)
	if err != nil {
		return nil, err
	}
	out := make([]inspection.CoachSnapshot, 0, len(coaches))
	for _, c := range coaches {
		out = append(out, inspection.CoachSnapshot{
			CoachID:         c.CoachID,
			Type:            c.Type,
			LastMaintenance: c.LastMaintenance,
			KmRun:           c.KmRun,
		})
	}
	return out, nil
}

// Alerts 扫描全部在册车厢，返回逾期告警。
func (s *Service) Alerts(ctx context.Context) ([]inspection.Alert, error) {
	if s == nil || s.repo == nil || s.evaluator == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.evaluator.ScanFleet(ctx, snapshotSource{repo: s.repo}, time.Now())
}

// TrainInput 新增/编辑列车的入参。
type TrainInput struct {
	TrainNo     string
	Name        string
	Source      string
	Destination string
}

func (s *Service) AddTrain(ctx context.Context, in TrainInput) (*Train, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	no := strings.TrimSpace(in.TrainNo)
	if no == "" {
		return nil, fmt.Errorf("train_no required")
	}
	t := &Train{
		TrainNo:     no,
		Name:        strings.TrimSpace(in.Name),
		Source:      strings.TrimSpace(in.Source),
		Destination: strings.TrimSpace(in.Destination),
	}
	if err := s.repo.CreateTrain(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) EditTrain(ctx context.Context, in TrainInput) (*Train, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	no := strings.TrimSpace(in.TrainNo)
	if no == "" {
		return nil, fmt.Errorf("train_no required")
	}
	t, err := s.repo.GetTrain(ctx, no)
	if err != nil {
		return nil, err
	}
	t.Name = strings.TrimSpace(in.Name)
	t.Source = strings.TrimSpace(in.Source)
	t.Destination = strings.TrimSpace(in.Destination)
	if err := s.repo.UpdateTrain(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) DeleteTrain(ctx context.Context, trainNo string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	trainNo = strings.TrimSpace(trainNo)
	if trainNo == "" {
		return fmt.Errorf("train_no required")
	}
	return s.repo.DeleteTrain(ctx, trainNo)
}

func (s *Service) ListTrains(ctx context.Context) ([]Train, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.ListTrains(ctx)
}

// Assign 把车厢挂到列车上。列车与车厢必须存在，退役车厢不能再挂载。
func (s *Service) Assign(ctx context.Context, trainNo, coachID string) (*Assignment, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	trainNo = strings.TrimSpace(trainNo)
	coachID = strings.TrimSpace(coachID)
	if trainNo == "" || coachID == "" {
		return nil, fmt.Errorf("train_no and coach_id required")
	}

	if _, err := s.repo.GetTrain(ctx, trainNo); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCoach(ctx, coachID)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusRemoved {
		return nil, fmt.Errorf("coach %s is removed from service", coachID)
	}

	a := &Assignment{TrainNo: trainNo, CoachID: coachID}
	if err := s.repo.CreateAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListAssignments(ctx context.Context, trainNo string) ([]Assignment, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.ListAssignments(ctx, strings.TrimSpace(trainNo))
}

func (s *Service) Unassign(ctx context.Context, trainNo string, coachIDs []string) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, fmt.Errorf("service not initialized")
	}
	trainNo = strings.TrimSpace(trainNo)
	if trainNo == "" {
		return 0, fmt.Errorf("train_no required")
	}
	ids := make([]string, 0, len(coachIDs))
	for _, id := range coachIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return s.repo.DeleteAssignments(ctx, trainNo, ids)
}

// Counts 车队侧的统计口径，给看板用。
type Counts struct {
	Coaches int64 `json:"coaches"`
	Trains  int64 `json:"trains"`
}

func (s *Service) Counts(ctx context.Context) (Counts, error) {
	if s == nil || s.repo == nil {
		return Counts{}, fmt.Errorf("service not initialized")
	}
	coaches, err := s.repo.CountCoaches(ctx)
	if err != nil {
		return Counts{}, err
	}
	trains, err := s.repo.CountTrains(ctx)
	if err != nil {
		return Counts{}, err
	}
	return Counts{Coaches: coaches, Trains: trains}, nil
}
