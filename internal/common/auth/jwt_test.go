package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
)

func TestGenerateAccessToken(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "coachtrace",
		Audience:  "coachtrace-admin",
	}

	token, exp, err := GenerateAccessToken(cfg, "engineer-1", []string{"engineer"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if exp.Before(time.Now()) {
		t.Fatalf("expected exp in future")
	}

	claims := &struct {
		Roles []string `json:"roles"`
		jwt.RegisteredClaims
	}{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || parsed == nil || !parsed.Valid {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "engineer-1" {
		t.Fatalf("subject mismatch: %s", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "engineer" {
		t.Fatalf("roles mismatch: %#v", claims.Roles)
	}
}

func TestGenerateAccessTokenRejectsMissingSecret(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, Issuer: "coachtrace"}
	if _, _, err := GenerateAccessToken(cfg, "engineer-1", nil, time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
