package fleet

import "time"

// Coach 是 coaches 表的 GORM 模型。
// LastMaintenance 存原始文本，不同录入时期的格式都有，解析放在读取侧。
type Coach struct {
	CoachID         string    `gorm:"primaryKey;size:32" json:"coach_id"`
	Type            string    `gorm:"size:32" json:"type"`
	LastMaintenance string    `gorm:"size:32" json:"last_maintenance"`
	KmRun           *int64    `gorm:"not null;default:0" json:"km_run"`
	Status          Status    `gorm:"type:varchar(16);index;not null" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Train 是 trains 表的 GORM 模型。
type Train struct {
	TrainNo     string    `gorm:"primaryKey;size:32" json:"train_no"`
	Name        string    `gorm:"size:64" json:"name"`
	Source      string    `gorm:"size:64" json:"source"`
	Destination string    `gorm:"size:64" json:"destination"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Assignment 车厢挂载关系，复合主键保证同一车厢在一列车上只挂一次。
type Assignment struct {
	TrainNo   string    `gorm:"primaryKey;size:32" json:"train_no"`
	CoachID   string    `gorm:"primaryKey;size:32" json:"coach_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
