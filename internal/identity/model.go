package identity

import (
	"strings"
	"time"
)

// 账号角色。system 是后台操作员，engineer 是现场工程师。
const (
	RoleSystem   = "system"
	RoleEngineer = "engineer"
)

// Account 是 accounts 表的 GORM 模型，工程师与后台操作员共用一张表，靠角色区分。
type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	PasswordSalt string    `gorm:"size:64;not null" json:"-"`
	FullName     string    `gorm:"size:64" json:"full_name"`
	Email        string    `gorm:"size:128" json:"email"`
	Roles        string    `gorm:"size:256;not null" json:"roles"` // 逗号分隔，例如 "engineer" 或 "system,engineer"
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a Account) RolesSlice() []string {
	if strings.TrimSpace(a.Roles) == "" {
		return nil
	}
	parts := strings.Split(a.Roles, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (a Account) HasRole(role string) bool {
	for _, r := range a.RolesSlice() {
		if r == role {
			return true
		}
	}
	return false
}

func RolesJoin(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return strings.Join(out, ",")
}
