package maintenance

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/CoachTrace/CoachTrace/internal/fleet"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

// CreateAndTouchCoach 写入保养记录并把车厢的 last_maintenance 覆盖为记录日期，
// 同一事务内完成。不校验新日期是否晚于旧值，补录会直接覆盖。
func (r *Repo) CreateAndTouchCoach(ctx context.Context, rec *Record) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		res := tx.Model(&fleet.Coach{}).
			Where("coach_id = ?", rec.CoachID).
			Update("last_maintenance", rec.Date)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// HistoryFilter 历史查询条件，空字段不过滤。
type HistoryFilter struct {
	TrainNo  string
	CoachID  string
	Engineer string
}

// History 按录入顺序倒序返回（日期是自由文本，没法在库里按日期排）。
func (r *Repo) History(ctx context.Context, f HistoryFilter) ([]Record, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := db.Model(&Record{})
	if f.TrainNo != "" {
		q = q.Where("train_no = ?", f.TrainNo)
	}
	if f.CoachID != "" {
		q = q.Where("coach_id = ?", f.CoachID)
	}
	if f.Engineer != "" {
		q = q.Where("engineer = ?", f.Engineer)
	}
	var records []Record
	if err := q.Order("record_id desc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Recent 返回最近 limit 条记录。
func (r *Repo) Recent(ctx context.Context, limit int) ([]Record, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	var records []Record
	if err := db.Model(&Record{}).Order("record_id desc").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total int64
	if err := db.Model(&Record{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// GetCoach 读取车厢记录，风险评估与录入校验共用。
func (r *Repo) GetCoach(ctx context.Context, id string) (*fleet.Coach, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var c fleet.Coach
	if err := db.Where("coach_id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetTrain 校验可选的列车引用。
func (r *Repo) GetTrain(ctx context.Context, trainNo string) (*fleet.Train, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var t fleet.Train
	if err := db.Where("train_no = ?", trainNo).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
