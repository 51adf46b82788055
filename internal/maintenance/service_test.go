package maintenance

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultDate(t *testing.T) {
	now := time.Date(2023, 6, 5, 14, 30, 0, 0, time.UTC)

	if got := defaultDate("", now); got != "05-06-2023" {
		t.Fatalf("defaultDate empty = %q, want 05-06-2023", got)
	}
	if got := defaultDate("  ", now); got != "05-06-2023" {
		t.Fatalf("defaultDate blank = %q, want 05-06-2023", got)
	}
	// 给了日期就原样保留，哪怕是另一种格式
	if got := defaultDate("2023-01-15", now); got != "2023-01-15" {
		t.Fatalf("defaultDate = %q, want input kept", got)
	}
}

func TestToViewsCanonicalisesDates(t *testing.T) {
	views := toViews([]Record{
		{RecordID: 2, CoachID: "CH-001", Date: "2023-01-15"},
		{RecordID: 1, CoachID: "CH-002", Date: "garbage"},
	})
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if views[0].DisplayDate != "15-01-2023" {
		t.Fatalf("display date = %q, want 15-01-2023", views[0].DisplayDate)
	}
	// 解析不了的日期原样透出，不丢数据
	if views[1].DisplayDate != "garbage" {
		t.Fatalf("display date = %q, want raw value", views[1].DisplayDate)
	}
}

func TestHistoryCSV(t *testing.T) {
	data, err := HistoryCSV([]RecordView{
		{
			Record: Record{
				RecordID:        7,
				CoachID:         "CH-001",
				TrainNo:         "12951",
				MaintenanceType: "Brake Check",
				Engineer:        "asha",
				Notes:           "pads replaced",
			},
			DisplayDate: "15-01-2023",
		},
	})
	if err != nil {
		t.Fatalf("HistoryCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if lines[0] != "record_id,coach_id,train_no,date,maintenance_type,engineer,notes" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if lines[1] != "7,CH-001,12951,15-01-2023,Brake Check,asha,pads replaced" {
		t.Fatalf("unexpected row: %s", lines[1])
	}
}
