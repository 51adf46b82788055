package maintenance

import "time"

// Record 是 maintenance_records 表的 GORM 模型。
// 只增不改：没有更新路径，历史就是流水账。
// Date 存录入时的原始文本，展示层再统一格式。
type Record struct {
	RecordID        uint      `gorm:"primaryKey;autoIncrement" json:"record_id"`
	CoachID         string    `gorm:"index;size:32;not null" json:"coach_id"`
	TrainNo         string    `gorm:"index;size:32" json:"train_no"`
	Date            string    `gorm:"size:32" json:"date"`
	MaintenanceType string    `gorm:"size:64" json:"maintenance_type"`
	Engineer        string    `gorm:"index;size:64" json:"engineer"`
	Notes           string    `gorm:"size:255" json:"notes"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}
