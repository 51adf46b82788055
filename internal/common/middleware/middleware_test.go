package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenBucketExhaustion(t *testing.T) {
	tb := NewTokenBucket(2, 1)
	ctx := context.Background()

	if !tb.Allow(ctx) || !tb.Allow(ctx) {
		t.Fatalf("expected first two requests to pass")
	}
	if tb.Allow(ctx) {
		t.Fatalf("expected third request to be rejected")
	}
}

func TestSlidingWindowCap(t *testing.T) {
	sw := NewSlidingWindow(time.Minute, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !sw.Allow(ctx) {
			t.Fatalf("request %d should pass", i)
		}
	}
	if sw.Allow(ctx) {
		t.Fatalf("expected request over cap to be rejected")
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Minute)
	ctx := context.Background()
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_ = cb.Call(ctx, func() error { return boom })
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("expected open state, got %v", cb.GetState())
	}
	err := cb.Call(ctx, func() error { return nil })
	if err == nil {
		t.Fatalf("expected call to be rejected while open")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	handler := RateLimitMiddleware(tb)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec2.Code)
	}
}
