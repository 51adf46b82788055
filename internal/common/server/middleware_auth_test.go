package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
)

func signTestToken(t *testing.T, cfg config.AuthConfig, subject string, roles []string) string {
	t.Helper()
	now := time.Now()
	claims := struct {
		Roles []string `json:"roles"`
		jwt.RegisteredClaims
	}{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tokenStr
}

func TestJWTAuthMiddlewareAndRBAC(t *testing.T) {
	authCfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "coachtrace",
		Audience:  "coachtrace-admin",
		RBAC: map[string][]string{
			"/api/v1/engineers":   {"system"},
			"/api/v1/maintenance": {},
		},
	}

	chain := Chain(JWTAuthMiddleware(authCfg, nil), RBACMiddleware(authCfg))

	handler := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ai, ok := AuthFromContext(r.Context())
		if !ok {
			t.Fatalf("missing auth info in ctx")
		}
		if ai.Subject != "admin-1" {
			t.Fatalf("subject mismatch: %s", ai.Subject)
		}
		w.WriteHeader(http.StatusOK)
	}))

	tokenStr := signTestToken(t, authCfg, "admin-1", []string{"engineer", "system"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/engineers", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected allow, got status=%d body=%s", rec.Code, rec.Body.String())
	}

	// 换一个只有 engineer 角色的 token，应被 RBAC 拒绝
	deniedHandler := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	tokenStr2 := signTestToken(t, authCfg, "eng-1", []string{"engineer"})
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/engineers", nil)
	req2.Header.Set("Authorization", "Bearer "+tokenStr2)
	rec2 := httptest.NewRecorder()
	deniedHandler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec2.Code)
	}
}

func TestJWTAuthMiddlewareRejectsMissingToken(t *testing.T) {
	authCfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "coachtrace",
	}
	handler := JWTAuthMiddleware(authCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coaches", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTAuthMiddlewarePublicPath(t *testing.T) {
	authCfg := config.AuthConfig{
		Enabled:       true,
		JWTSecret:     "test-secret",
		PublicMethods: []string{"/api/v1/auth/login", "/healthz"},
	}
	handler := Chain(JWTAuthMiddleware(authCfg, nil), RBACMiddleware(authCfg))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected public path to pass, got %d", rec.Code)
	}
}

func TestRolesForPathPrefixMatch(t *testing.T) {
	rbac := map[string][]string{
		"/api/v1/records":  {"engineer"},
		"/api/v1/records/": {"engineer", "system"},
		"/api/v1/":         {"viewer"},
	}

	if got := rolesForPath(rbac, "/api/v1/records"); len(got) != 1 || got[0] != "engineer" {
		t.Fatalf("exact match failed: %#v", got)
	}
	if got := rolesForPath(rbac, "/api/v1/records/42"); len(got) != 2 {
		t.Fatalf("longest prefix match failed: %#v", got)
	}
	if got := rolesForPath(rbac, "/api/v1/coaches"); len(got) != 1 || got[0] != "viewer" {
		t.Fatalf("fallback prefix match failed: %#v", got)
	}
	if got := rolesForPath(rbac, "/metrics"); got != nil {
		t.Fatalf("expected no match: %#v", got)
	}
}
