package middleware

import (
	"context"
	"sync"
	"time"
)

// RateLimiter 限流器契约。Allow 返回 false 表示本次请求应被拒绝。
type RateLimiter interface {
	Allow(ctx context.Context) bool
}

// TokenBucket 令牌桶。按流逝时间惰性补充，允许突发到桶容量。
type TokenBucket struct {
	mu        sync.Mutex
	burst     float64   // 桶容量
	rate      float64   // 每秒补充令牌数
	available float64   // 当前可用令牌
	last      time.Time // 上次补充时刻
}

// NewTokenBucket 创建令牌桶，初始装满。
func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		burst:     float64(capacity),
		rate:      float64(refillRate),
		available: float64(capacity),
		last:      time.Now(),
	}
}

// Allow 取一枚令牌。桶空返回 false。
func (tb *TokenBucket) Allow(ctx context.Context) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.available += now.Sub(tb.last).Seconds() * tb.rate
	if tb.available > tb.burst {
		tb.available = tb.burst
	}
	tb.last = now

	if tb.available < 1 {
		return false
	}
	tb.available--
	return true
}

// SlidingWindow 滑动窗口计数。窗口内请求数达到上限后拒绝。
// 记录按时间有序追加，过期项从头部整段剪掉。
type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	hits   []time.Time
}

// NewSlidingWindow 创建滑动窗口限流器。
func NewSlidingWindow(window time.Duration, maxRequests int) *SlidingWindow {
	return &SlidingWindow{
		window: window,
		limit:  maxRequests,
		hits:   make([]time.Time, 0, maxRequests),
	}
}

// Allow 记一次请求。窗口已满返回 false，不记入。
func (sw *SlidingWindow) Allow(ctx context.Context) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-sw.window)

	drop := 0
	for drop < len(sw.hits) && !sw.hits[drop].After(cutoff) {
		drop++
	}
	if drop > 0 {
		sw.hits = append(sw.hits[:0], sw.hits[drop:]...)
	}

	if len(sw.hits) >= sw.limit {
		return false
	}
	sw.hits = append(sw.hits, now)
	return true
}
