package inspection

import (
	"strings"
	"time"
)

// 历史数据里混着多代系统写入的日期格式，按出现频率排序依次尝试。
var serviceDateLayouts = []string{
	"02-01-2006",
	"02-01-06",
	"2006-01-02",
	"02.01.2006",
}

// ISO 导出数据可能带时间部分
var isoFallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseServiceDate 解析保养日期字段。
// 依次尝试已知格式，再尝试 ISO-8601；全部失败按"缺失"处理，不报错。
func ParseServiceDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range serviceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range isoFallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatServiceDate 输出统一的展示格式 dd-mm-yyyy。
func FormatServiceDate(t time.Time) string {
	return t.Format("02-01-2006")
}

// CanonicalDisplay 将任意格式的日期字段转成统一展示格式。
// 无法解析时原样返回，不丢数据。
func CanonicalDisplay(s string) string {
	t, ok := ParseServiceDate(s)
	if !ok {
		return s
	}
	return FormatServiceDate(t)
}

// daysBetween 按日历日计算天数差，忽略时分秒。
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// DaysSinceService 返回距上次保养的天数。日期缺失或无法解析返回 nil。
func DaysSinceService(lastService string, now time.Time) *int {
	t, ok := ParseServiceDate(lastService)
	if !ok {
		return nil
	}
	d := daysBetween(t, now)
	return &d
}
