package maintenance

import (
	"fmt"

	"github.com/jszwec/csvutil"
)

type historyCSVRow struct {
	RecordID        uint   `csv:"record_id"`
	CoachID         string `csv:"coach_id"`
	TrainNo         string `csv:"train_no"`
	Date            string `csv:"date"`
	MaintenanceType string `csv:"maintenance_type"`
	Engineer        string `csv:"engineer"`
	Notes           string `csv:"notes"`
}

// HistoryCSV 导出保养历史，日期用统一展示格式。
func HistoryCSV(views []RecordView) ([]byte, error) {
	rows := make([]historyCSVRow, 0, len(views))
	for _, v := range views {
		rows = append(rows, historyCSVRow{
			RecordID:        v.RecordID,
			CoachID:         v.CoachID,
			TrainNo:         v.TrainNo,
			Date:            v.DisplayDate,
			MaintenanceType: v.MaintenanceType,
			Engineer:        v.Engineer,
			Notes:           v.Notes,
		})
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal history csv: %w", err)
	}
	return data, nil
}
