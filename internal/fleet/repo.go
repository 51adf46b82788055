package fleet

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrCoachExists 车厢编号已占用
	ErrCoachExists = errors.New("coach id already exists")
	// ErrTrainExists 列车编号已占用
	ErrTrainExists = errors.New("train no already exists")
	// ErrAlreadyAssigned 车厢已挂在该列车上
	ErrAlreadyAssigned = errors.New("coach already assigned to train")
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

func (r *Repo) CreateCoach(ctx context.Context, c *Coach) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Coach{}).Where("coach_id = ?", c.CoachID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCoachExists
		}
		return tx.Create(c).Error
	})
}

func (r *Repo) UpdateCoach(ctx context.Context, c *Coach) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(c).Error
}

func (r *Repo) GetCoach(ctx context.Context, id string) (*Coach, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var c Coach
	if err := db.Where("coach_id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCoach 删除车厢并级联清掉挂载关系与保养历史，同一事务内完成。
func (r *Repo) DeleteCoach(ctx context.Context, id string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("coach_id = ?", id).Delete(&Coach{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("coach_id = ?", id).Delete(&Assignment{}).Error; err != nil {
			return err
		}
		// 保养历史表归 maintenance 服务管，这里按表名清，避免包环依赖
		return tx.Exec("DELETE FROM maintenance_records WHERE coach_id = ?", id).Error
	})
}

// ListCoaches 按车厢编号升序返回，excludeStatus 非空时排除该状态（精确匹配）。
func (r *Repo) ListCoaches(ctx context.Context, excludeStatus string) ([]Coach, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := db.Model(&Coach{})
	if excludeStatus != "" {
		q = q.Where("status <> ?", excludeStatus)
	}
	var coaches []Coach
	if err := q.Order("coach_id asc").Find(&coaches).Error; err != nil {
		return nil, err
	}
	return coaches, nil
}

func (r *Repo) CountCoaches(ctx context.Context) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total int64
	if err := db.Model(&Coach{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *Repo) CreateTrain(ctx context.Context, t *Train) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Train{}).Where("train_no = ?", t.TrainNo).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrTrainExists
		}
		return tx.Create(t).Error
	})
}

func (r *Repo) UpdateTrain(ctx context.Context, t *Train) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(t).Error
}

func (r *Repo) GetTrain(ctx context.Context, trainNo string) (*Train, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var t Train
	if err := db.Where("train_no = ?", trainNo).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTrain 删除列车并级联清掉挂载关系。
func (r *Repo) DeleteTrain(ctx context.Context, trainNo string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("train_no = ?", trainNo).Delete(&Train{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("train_no = ?", trainNo).Delete(&Assignment{}).Error
	})
}

func (r *Repo) ListTrains(ctx context.Context) ([]Train, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var trains []Train
	if err := db.Order("train_no asc").Find(&trains).Error; err != nil {
		return nil, err
	}
	return trains, nil
}

func (r *Repo) CountTrains(ctx context.Context) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total int64
	if err := db.Model(&Train{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *Repo) CreateAssignment(ctx context.Context, a *Assignment) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Assignment{}).
			Where("train_no = ? AND coach_id = ?", a.TrainNo, a.CoachID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyAssigned
		}
		return tx.Create(a).Error
	})
}

// ListAssignments 按 (train_no, coach_id) 升序返回，trainNo 非空时只看该列车。
func (r *Repo) ListAssignments(ctx context.Context, trainNo string) ([]Assignment, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := db.Model(&Assignment{})
	if trainNo != "" {
		q = q.Where("train_no = ?", trainNo)
	}
	var as []Assignment
	if err := q.Order("train_no asc, coach_id asc").Find(&as).Error; err != nil {
		return nil, err
	}
	return as, nil
}

// DeleteAssignments 从一列车上摘掉若干车厢，返回实际摘掉的数量。
func (r *Repo) DeleteAssignments(ctx context.Context, trainNo string, coachIDs []string) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	if len(coachIDs) == 0 {
		return 0, nil
	}
	res := db.Where("train_no = ? AND coach_id IN ?", trainNo, coachIDs).Delete(&Assignment{})
	return res.RowsAffected, res.Error
}
