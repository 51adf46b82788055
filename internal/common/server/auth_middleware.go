package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
	"github.com/CoachTrace/CoachTrace/internal/common/logger"
)

type authContextKey struct{}

// AuthInfo 从 JWT 中解析出的最小用户信息（放入 ctx，供业务侧使用）。
type AuthInfo struct {
	Subject string   // 用户名
	Roles   []string // 角色列表（RBAC）
}

// AuthFromContext 从 ctx 中取出鉴权信息。
func AuthFromContext(ctx context.Context) (AuthInfo, bool) {
	v := ctx.Value(authContextKey{})
	if v == nil {
		return AuthInfo{}, false
	}
	ai, ok := v.(AuthInfo)
	return ai, ok
}

// ContextWithAuthInfo 将鉴权信息写入 ctx（供测试与网关透传使用）。
func ContextWithAuthInfo(ctx context.Context, ai AuthInfo) context.Context {
	return context.WithValue(ctx, authContextKey{}, ai)
}

// JWTAuthMiddleware 用于 JWT 鉴权：
// - 从 `Authorization: Bearer <token>` 读取 token
// - 校验 HS256 签名、exp/nbf 等标准字段（jwt/v5 默认校验）
// - 可选校验 iss/aud
// - 将解析结果写入 ctx
func JWTAuthMiddleware(cfg config.AuthConfig, log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			if isPublicPath(cfg.PublicMethods, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if strings.TrimSpace(cfg.JWTSecret) == "" {
				if log != nil {
					log.Warn("auth enabled but jwt_secret is empty")
				}
				WriteError(w, http.StatusUnauthorized, "auth not configured")
				return
			}

			raw := r.Header.Get("Authorization")
			if raw == "" {
				WriteError(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			tokenStr := strings.TrimSpace(raw)
			if strings.HasPrefix(strings.ToLower(tokenStr), "bearer ") {
				tokenStr = strings.TrimSpace(tokenStr[len("bearer "):])
			}
			if tokenStr == "" {
				WriteError(w, http.StatusUnauthorized, "invalid authorization")
				return
			}

			claims := struct {
				Roles []string `json:"roles"`
				jwt.RegisteredClaims
			}{}

			parsed, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
				if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
				}
				return []byte(cfg.JWTSecret), nil
			}, jwt.WithLeeway(30*time.Second))
			if err != nil || parsed == nil || !parsed.Valid {
				WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
				WriteError(w, http.StatusUnauthorized, "invalid issuer")
				return
			}
			if cfg.Audience != "" {
				if !audienceContains(claims.Audience, cfg.Audience) {
					WriteError(w, http.StatusUnauthorized, "invalid audience")
					return
				}
			}

			ctx := ContextWithAuthInfo(r.Context(), AuthInfo{
				Subject: claims.Subject,
				Roles:   claims.Roles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RBACMiddleware 基于 path->roles 的简单 RBAC：
// - RBAC key 为完整路径，或以 "/" 结尾的前缀（取最长匹配）
// - 若匹配到的要求角色非空，则要求 token roles 与之有交集
// - 若该路径未配置要求角色，则默认放行（即"只鉴权，不限权"）
func RBACMiddleware(cfg config.AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			if isPublicPath(cfg.PublicMethods, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			required := rolesForPath(cfg.RBAC, r.URL.Path)
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			ai, ok := AuthFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "missing auth context")
				return
			}
			if hasAnyRole(ai.Roles, required) {
				next.ServeHTTP(w, r)
				return
			}
			WriteError(w, http.StatusForbidden, "permission denied")
		})
	}
}

func rolesForPath(rbac map[string][]string, path string) []string {
	if len(rbac) == 0 || path == "" {
		return nil
	}
	if roles, ok := rbac[path]; ok {
		return roles
	}
	var (
		best      string
		bestRoles []string
	)
	for prefix, roles := range rbac {
		if !strings.HasSuffix(prefix, "/") {
			continue
		}
		if strings.HasPrefix(path, prefix) && len(prefix) > len(best) {
			best = prefix
			bestRoles = roles
		}
	}
	return bestRoles
}

func hasAnyRole(got, required []string) bool {
	if len(got) == 0 || len(required) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(got))
	for _, r := range got {
		r = strings.TrimSpace(strings.ToLower(r))
		if r == "" {
			continue
		}
		set[r] = struct{}{}
	}
	for _, r := range required {
		r = strings.TrimSpace(strings.ToLower(r))
		if r == "" {
			continue
		}
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func audienceContains(aud jwt.ClaimStrings, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" || len(aud) == 0 {
		return false
	}
	for _, v := range aud {
		if strings.TrimSpace(v) == want {
			return true
		}
	}
	return false
}

func isPublicPath(public []string, path string) bool {
	if path == "" || len(public) == 0 {
		return false
	}
	for _, p := range public {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p == path {
			return true
		}
		if strings.HasSuffix(p, "/") && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
