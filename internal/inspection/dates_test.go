package inspection

import (
	"testing"
	"time"
)

func TestParseServiceDateFormats(t *testing.T) {
	want := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   string
	}{
		{"dash dmy", "15-01-2023"},
		{"dash dmy short year", "15-01-23"},
		{"iso date", "2023-01-15"},
		{"dot dmy", "15.01.2023"},
		{"iso datetime", "2023-01-15T08:30:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseServiceDate(tc.in)
			if !ok {
				t.Fatalf("ParseServiceDate(%q) not ok", tc.in)
			}
			if got.Year() != want.Year() || got.Month() != want.Month() || got.Day() != want.Day() {
				t.Fatalf("ParseServiceDate(%q) = %v, want %v", tc.in, got, want)
			}
		})
	}
}

func TestParseServiceDateAbsent(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-date", "15/01/2023", "2023"} {
		if _, ok := ParseServiceDate(in); ok {
			t.Fatalf("ParseServiceDate(%q) should fail", in)
		}
	}
}

func TestCanonicalDisplay(t *testing.T) {
	if got := CanonicalDisplay("2023-01-15"); got != "15-01-2023" {
		t.Fatalf("CanonicalDisplay iso = %q", got)
	}
	if got := CanonicalDisplay("15.01.2023"); got != "15-01-2023" {
		t.Fatalf("CanonicalDisplay dotted = %q", got)
	}
	// 解析不了的原样返回
	if got := CanonicalDisplay("unknown"); got != "unknown" {
		t.Fatalf("CanonicalDisplay garbage = %q", got)
	}
}

func TestDaysSinceService(t *testing.T) {
	now := time.Date(2023, 7, 1, 23, 59, 0, 0, time.UTC)

	d := DaysSinceService("01-06-2023", now)
	if d == nil || *d != 30 {
		t.Fatalf("DaysSinceService = %v, want 30", d)
	}

	// 未来日期给负数，由判定规则自然处理
	d = DaysSinceService("11-07-2023", now)
	if d == nil || *d != -10 {
		t.Fatalf("DaysSinceService future = %v, want -10", d)
	}

	if d := DaysSinceService("garbage", now); d != nil {
		t.Fatalf("DaysSinceService garbage = %v, want nil", d)
	}
}
