package risk

import (
	"math"
	"strings"
	"time"
)

// DeriveVibration 由累计公里数推导振动水平，区间 [0.1, 1.0]，保留两位小数。
func DeriveVibration(km float64) float64 {
	return round2(math.Min(0.1+km/250000, 1.0))
}

// DeriveBrakeHealth 由累计公里数推导制动健康度，区间 [20, 100]，保留一位小数。
func DeriveBrakeHealth(km float64) float64 {
	return round1(math.Max(100-km/2500, 20))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseStrictDate 只接受 dd.mm.yyyy 一种格式。
// 与 inspection 包的宽松多格式解析是两套独立契约，不要互换。
func ParseStrictDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("02.01.2006", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysSinceStrict 返回距上次保养的天数。
// 日期缺失或不合格式按 0 天计（与 inspection 的 nil 语义不同）。
func DaysSinceStrict(lastService string, now time.Time) int {
	t, ok := ParseStrictDate(lastService)
	if !ok {
		return 0
	}
	f := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(n.Sub(f).Hours() / 24)
}
