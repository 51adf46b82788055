package risk

import (
	"testing"
	"time"
)

func TestDeriveVibration(t *testing.T) {
	cases := []struct {
		km   float64
		want float64
	}{
		{0, 0.1},
		{12345, 0.15},
		{100000, 0.5},
		{225000, 1.0},
		{900000, 1.0}, // 封顶
	}
	for _, tc := range cases {
		if got := DeriveVibration(tc.km); got != tc.want {
			t.Fatalf("DeriveVibration(%v) = %v, want %v", tc.km, got, tc.want)
		}
	}
}

func TestDeriveBrakeHealth(t *testing.T) {
	cases := []struct {
		km   float64
		want float64
	}{
		{0, 100.0},
		{12345, 95.1},
		{100000, 60.0},
		{200000, 20.0},
		{900000, 20.0}, // 托底
	}
	for _, tc := range cases {
		if got := DeriveBrakeHealth(tc.km); got != tc.want {
			t.Fatalf("DeriveBrakeHealth(%v) = %v, want %v", tc.km, got, tc.want)
		}
	}
}

func TestParseStrictDate(t *testing.T) {
	d, ok := ParseStrictDate("15.01.2023")
	if !ok {
		t.Fatalf("expected parse ok")
	}
	if d.Day() != 15 || d.Month() != time.January || d.Year() != 2023 {
		t.Fatalf("parsed = %v", d)
	}

	// 宽松格式在这里一律不认
	for _, in := range []string{"", "15-01-2023", "2023-01-15", "15/01/2023", "garbage"} {
		if _, ok := ParseStrictDate(in); ok {
			t.Fatalf("ParseStrictDate(%q) should fail", in)
		}
	}
}

func TestDaysSinceStrict(t *testing.T) {
	now := time.Date(2023, 7, 1, 10, 0, 0, 0, time.UTC)

	if got := DaysSinceStrict("01.06.2023", now); got != 30 {
		t.Fatalf("DaysSinceStrict = %d, want 30", got)
	}
	// 缺失与坏数据都按 0 天计
	if got := DaysSinceStrict("", now); got != 0 {
		t.Fatalf("DaysSinceStrict empty = %d, want 0", got)
	}
	if got := DaysSinceStrict("01-06-2023", now); got != 0 {
		t.Fatalf("DaysSinceStrict wrong format = %d, want 0", got)
	}
}
