package fleet

import (
	"fmt"

	"github.com/jszwec/csvutil"
)

// 导出行结构：表头由 csv tag 决定，日期统一成展示格式。

type coachCSVRow struct {
	CoachID         string `csv:"coach_id"`
	Type            string `csv:"type"`
	LastMaintenance string `csv:"last_maintenance"`
	KmRun           int64  `csv:"km_run"`
	Status          string `csv:"status"`
	DueStatus       string `csv:"due_status"`
}

type trainCSVRow struct {
	TrainNo     string `csv:"train_no"`
	Name        string `csv:"name"`
	Source      string `csv:"source"`
	Destination string `csv:"destination"`
}

type assignmentCSVRow struct {
	TrainNo string `csv:"train_no"`
	CoachID string `csv:"coach_id"`
}

// CoachesCSV 导出车厢清单。
func CoachesCSV(views []CoachView) ([]byte, error) {
	rows := make([]coachCSVRow, 0, len(views))
	for _, v := range views {
		var km int64
		if v.KmRun != nil {
			km = *v.KmRun
		}
		rows = append(rows, coachCSVRow{
			CoachID:         v.CoachID,
			Type:            v.Type,
			LastMaintenance: v.DisplayDate,
			KmRun:           km,
			Status:          string(v.Status),
			DueStatus:       string(v.DueStatus),
		})
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal coaches csv: %w", err)
	}
	return data, nil
}

// TrainsCSV 导出列车清单。
func TrainsCSV(trains []Train) ([]byte, error) {
	rows := make([]trainCSVRow, 0, len(trains))
	for _, t := range trains {
		rows = append(rows, trainCSVRow{
			TrainNo:     t.TrainNo,
			Name:        t.Name,
			Source:      t.Source,
			Destination: t.Destination,
		})
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal trains csv: %w", err)
	}
	return data, nil
}

// AssignmentsCSV 导出挂载关系。
func AssignmentsCSV(as []Assignment) ([]byte, error) {
	rows := make([]assignmentCSVRow, 0, len(as))
	for _, a := range as {
		rows = append(rows, assignmentCSVRow{TrainNo: a.TrainNo, CoachID: a.CoachID})
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal assignments csv: %w", err)
	}
	return data, nil
}
