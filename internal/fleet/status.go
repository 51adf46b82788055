package fleet

import "fmt"

// Status 车厢状态枚举（持久化为字符串，全量比较区分大小写）。
type Status string

const (
	StatusActive   Status = "Active"   // 在役
	StatusInactive Status = "Inactive" // 临时停用，仍参与巡检
	StatusRemoved  Status = "Removed"  // 已退役，不再出现在告警扫描里
)

// AllowTransition 定义车厢状态的允许流转关系。
var AllowTransition = map[Status][]Status{
	StatusActive:   {StatusInactive, StatusRemoved},
	StatusInactive: {StatusActive, StatusRemoved},
	// 终态：退役车厢不再回流
	StatusRemoved: {},
}

// ValidStatus 判断是否是已知状态值。
func ValidStatus(s Status) bool {
	_, ok := AllowTransition[s]
	return ok
}

// CanTransition 判断 from -> to 是否是一个允许的状态流转。
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition 对车厢应用状态变更。
func ApplyTransition(c *Coach, to Status) error {
	if c == nil {
		return fmt.Errorf("coach is nil")
	}
	if !ValidStatus(to) {
		return fmt.Errorf("unknown coach status: %s", to)
	}
	if !CanTransition(c.Status, to) {
		return fmt.Errorf("invalid coach status transition: %s -> %s", c.Status, to)
	}
	c.Status = to
	return nil
}
