package fleet

import (
	"strings"
	"testing"

	"github.com/CoachTrace/CoachTrace/internal/inspection"
)

func TestCoachesCSV(t *testing.T) {
	km := int64(5200)
	views := []CoachView{
		{
			Coach:       Coach{CoachID: "CH-001", Type: "Sleeper", KmRun: &km, Status: StatusActive},
			DueStatus:   inspection.StatusOverdue,
			DisplayDate: "15-01-2023",
		},
		{
			Coach:     Coach{CoachID: "CH-002", Type: "AC Chair", Status: StatusInactive},
			DueStatus: inspection.StatusOK,
		},
	}

	data, err := CoachesCSV(views)
	if err != nil {
		t.Fatalf("CoachesCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "coach_id,type,last_maintenance,km_run,status,due_status" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if lines[1] != "CH-001,Sleeper,15-01-2023,5200,Active,Overdue" {
		t.Fatalf("unexpected row: %s", lines[1])
	}
	// 公里数缺失按 0 导出
	if !strings.Contains(lines[2], ",0,Inactive,") {
		t.Fatalf("unexpected row: %s", lines[2])
	}
}

func TestTrainsAndAssignmentsCSV(t *testing.T) {
	trains, err := TrainsCSV([]Train{{TrainNo: "12951", Name: "Rajdhani", Source: "Mumbai", Destination: "Delhi"}})
	if err != nil {
		t.Fatalf("TrainsCSV: %v", err)
	}
	if !strings.HasPrefix(string(trains), "train_no,name,source,destination\n") {
		t.Fatalf("unexpected trains csv: %s", trains)
	}

	as, err := AssignmentsCSV([]Assignment{{TrainNo: "12951", CoachID: "CH-001"}})
	if err != nil {
		t.Fatalf("AssignmentsCSV: %v", err)
	}
	if !strings.Contains(string(as), "12951,CH-001") {
		t.Fatalf("unexpected assignments csv: %s", as)
	}
}
