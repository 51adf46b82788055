package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CoachTrace/CoachTrace/internal/common/auth"
	"github.com/CoachTrace/CoachTrace/internal/common/config"
	"github.com/CoachTrace/CoachTrace/internal/common/middleware"
)

var (
	// ErrInvalidCredentials 用户名不存在或口令不对，对外不区分
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken 用户名已占用
	ErrUsernameTaken = errors.New("username already exists")
	// ErrLoginThrottled 登录口被限流
	ErrLoginThrottled = errors.New("too many login attempts")
)

// 空表时播种的后台操作员。首次部署后应立刻改掉口令。
const (
	seedOperatorUsername = "admin"
	seedOperatorPassword = "admin"
)

// Service 封装账号领域的核心用例。
type Service struct {
	repo         *Repo
	authCfg      config.AuthConfig
	loginLimiter middleware.RateLimiter
}

func NewService(repo *Repo, authCfg config.AuthConfig, loginLimiter middleware.RateLimiter) *Service {
	return &Service{repo: repo, authCfg: authCfg, loginLimiter: loginLimiter}
}

// LoginResult 登录成功的返回。
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Account     *Account  `json:"account"`
}

// Login 校验口令并签发访问令牌。
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if s.loginLimiter != nil && !s.loginLimiter.Allow(ctx) {
		return nil, ErrLoginThrottled
	}

	a, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !VerifyPassword(password, a.PasswordSalt, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := auth.GenerateAccessToken(s.authCfg, a.Username, a.RolesSlice(), 24*time.Hour)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, ExpiresAt: exp, Account: a}, nil
}

// AddAccountInput 新增账号的入参。
type AddAccountInput struct {
	Username string
	Password string
	FullName string
	Email    string
	Roles    []string
}

// AddAccount 新增账号。角色缺省为 engineer。
func (s *Service) AddAccount(ctx context.Context, in AddAccountInput) (*Account, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, fmt.Errorf("username and password required")
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	salt, err := GenerateSaltHex()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password, salt)
	if err != nil {
		return nil, err
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = []string{RoleEngineer}
	}
	a := &Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		FullName:     strings.TrimSpace(in.FullName),
		Email:        strings.TrimSpace(in.Email),
		Roles:        RolesJoin(roles),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAccounts 分页返回账号。
func (s *Service) ListAccounts(ctx context.Context, offset, limit int) ([]Account, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, offset, limit)
}

// GetAccount 按用户名读取账号。
func (s *Service) GetAccount(ctx context.Context, username string) (*Account, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username required")
	}
	return s.repo.FindByUsername(ctx, username)
}

// Count 账号总数，给看板用。
func (s *Service) Count(ctx context.Context) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, fmt.Errorf("service not initialized")
	}
	return s.repo.Count(ctx)
}

// SeedDefaultOperator 账号表为空时播种默认后台操作员，返回是否新建。
func (s *Service) SeedDefaultOperator(ctx context.Context) (bool, error) {
	if s == nil || s.repo == nil {
		return false, fmt.Errorf("service not initialized")
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if total > 0 {
		return false, nil
	}

	salt, err := GenerateSaltHex()
	if err != nil {
		return false, err
	}
	hash, err := HashPassword(seedOperatorPassword, salt)
	if err != nil {
		return false, err
	}
	a := &Account{
		ID:           uuid.NewString(),
		Username:     seedOperatorUsername,
		PasswordHash: hash,
		PasswordSalt: salt,
		FullName:     "Default Operator",
		Roles:        RolesJoin([]string{RoleSystem}),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}
