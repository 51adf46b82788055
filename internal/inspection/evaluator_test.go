package inspection

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
)

func testThresholds() config.MaintenanceConfig {
	return config.MaintenanceConfig{
		KmLimit:      5000,
		DaysLimit:    180,
		DaysSoon:     150,
		KmSoonMargin: 500,
	}
}

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(testThresholds(), nil)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	return e
}

func km(v int64) *int64 { return &v }

func dateDaysAgo(now time.Time, days int) string {
	return FormatServiceDate(now.AddDate(0, 0, -days))
}

func TestEvaluateBoundaries(t *testing.T) {
	e := newTestEvaluator(t)
	now := time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		km   *int64
		date string
		want Status
	}{
		{"fresh coach", km(0), dateDaysAgo(now, 0), StatusOK},
		{"km below soon window", km(4499), dateDaysAgo(now, 10), StatusOK},
		{"km at soon boundary", km(4500), dateDaysAgo(now, 10), StatusDueSoon},
		{"km just under limit", km(4999), dateDaysAgo(now, 10), StatusDueSoon},
		{"km at limit", km(5000), dateDaysAgo(now, 10), StatusOverdue},
		{"km over limit", km(12000), dateDaysAgo(now, 10), StatusOverdue},
		{"days below soon", km(100), dateDaysAgo(now, 149), StatusOK},
		{"days at soon boundary", km(100), dateDaysAgo(now, 150), StatusDueSoon},
		{"days just under limit", km(100), dateDaysAgo(now, 179), StatusDueSoon},
		{"days at limit", km(100), dateDaysAgo(now, 180), StatusOverdue},
		{"days over limit", km(100), dateDaysAgo(now, 365), StatusOverdue},
		{"overdue km beats soon days", km(5000), dateDaysAgo(now, 160), StatusOverdue},
		{"overdue days beat soon km", km(4600), dateDaysAgo(now, 200), StatusOverdue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Evaluate(tc.km, tc.date, now)
			if got.Status != tc.want {
				t.Fatalf("Evaluate(km=%v date=%s) = %s, want %s", *tc.km, tc.date, got.Status, tc.want)
			}
		})
	}
}

func TestEvaluateMissingData(t *testing.T) {
	e := newTestEvaluator(t)
	now := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)

	// 公里数缺失按 0 计，日期缺失只看公里数
	got := e.Evaluate(nil, "", now)
	if got.Status != StatusOK || got.KmRun != 0 || got.DaysSince != nil {
		t.Fatalf("missing both: %+v", got)
	}

	// 日期坏数据不报错，也不参与判定
	got = e.Evaluate(km(100), "corrupted-date", now)
	if got.Status != StatusOK || got.DaysSince != nil {
		t.Fatalf("bad date: %+v", got)
	}

	// 公里数缺失时日期仍能单独触发逾期
	got = e.Evaluate(nil, dateDaysAgo(now, 400), now)
	if got.Status != StatusOverdue {
		t.Fatalf("date-only overdue: %+v", got)
	}

	// 未来日期给负天数，不触发
	got = e.Evaluate(km(100), dateDaysAgo(now, -30), now)
	if got.Status != StatusOK || got.DaysSince == nil || *got.DaysSince != -30 {
		t.Fatalf("future date: %+v", got)
	}
}

func TestSetThresholdsRejectsInvalid(t *testing.T) {
	e := newTestEvaluator(t)

	bad := testThresholds()
	bad.KmLimit = 0
	if err := e.SetThresholds(bad); err == nil {
		t.Fatalf("expected error for zero km_limit")
	}

	bad = testThresholds()
	bad.DaysSoon = 200
	if err := e.SetThresholds(bad); err == nil {
		t.Fatalf("expected error for days_soon above days_limit")
	}

	// 旧阈值仍然生效
	if got := e.Thresholds(); got.KmLimit != 5000 {
		t.Fatalf("thresholds changed after rejected update: %+v", got)
	}

	good := testThresholds()
	good.KmLimit = 8000
	if err := e.SetThresholds(good); err != nil {
		t.Fatalf("SetThresholds: %v", err)
	}
	now := time.Now()
	if got := e.Evaluate(km(5000), "", now); got.Status == StatusOverdue {
		t.Fatalf("new threshold not applied: %+v", got)
	}
}

type fakeCoachSource struct {
	coaches []CoachSnapshot
	err     error
	gotExcl string
}

func (f *fakeCoachSource) ListCoaches(ctx context.Context, excludeStatus string) ([]CoachSnapshot, error) {
	f.gotExcl = excludeStatus
	if f.err != nil {
		return nil, f.err
	}
	return f.coaches, nil
}

func TestScanFleet(t *testing.T) {
	e := newTestEvaluator(t)
	now := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)

	src := &fakeCoachSource{coaches: []CoachSnapshot{
		{CoachID: "CH-001", Type: "Sleeper", LastMaintenance: dateDaysAgo(now, 10), KmRun: km(100)},
		{CoachID: "CH-002", Type: "AC", LastMaintenance: dateDaysAgo(now, 200), KmRun: km(100)},
		{CoachID: "CH-003", Type: "General", LastMaintenance: "bad-date", KmRun: km(9000)},
		{CoachID: "CH-004", Type: "Pantry", LastMaintenance: dateDaysAgo(now, 160), KmRun: km(4700)},
	}}

	alerts, err := e.ScanFleet(context.Background(), src, now)
	if err != nil {
		t.Fatalf("ScanFleet: %v", err)
	}
	if src.gotExcl != "Removed" {
		t.Fatalf("exclude status = %q", src.gotExcl)
	}
	// 只收逾期，保持来源顺序；Due Soon 不进告警
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want 2: %+v", len(alerts), alerts)
	}
	if alerts[0].CoachID != "CH-002" || alerts[1].CoachID != "CH-003" {
		t.Fatalf("alert order: %+v", alerts)
	}
	if alerts[0].DaysSince == nil || *alerts[0].DaysSince != 200 {
		t.Fatalf("alert days: %+v", alerts[0])
	}
	if alerts[1].DaysSince != nil {
		t.Fatalf("bad-date alert should carry nil days: %+v", alerts[1])
	}
	if alerts[1].LastMaintenance != "bad-date" {
		t.Fatalf("alert should keep raw date: %+v", alerts[1])
	}
}

func TestScanFleetSourceError(t *testing.T) {
	e := newTestEvaluator(t)
	src := &fakeCoachSource{err: fmt.Errorf("db gone")}
	if _, err := e.ScanFleet(context.Background(), src, time.Now()); err == nil {
		t.Fatalf("expected error from source")
	}
}
