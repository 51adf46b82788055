package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CircuitBreakerState 熔断器状态
type CircuitBreakerState int

const (
	StateClosed   CircuitBreakerState = iota // 正常放行
	StateOpen                                // 熔断中，直接拒绝
	StateHalfOpen                            // 试探恢复，限量放行
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker 按连续失败次数熔断的简单断路器。
// closed 态连续失败 maxFailures 次进入 open；open 态冷却 resetTimeout 后
// 转 half-open，放行最多 probeQuota 个试探请求，全看第一个结果：
// 成功回 closed，失败回 open 重新计时。
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	probeQuota   int

	mu       sync.RWMutex
	state    CircuitBreakerState
	streak   int       // 连续失败次数
	probes   int       // half-open 已放行的试探数
	openedAt time.Time // 最近一次进入 open 的时刻
}

// NewCircuitBreaker 创建断路器。
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		probeQuota:   3,
		state:        StateClosed,
	}
}

// Call 在断路器保护下执行 fn。被拒绝时返回错误且不执行 fn。
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn()
	cb.settle(err)
	return err
}

// admit 决定本次调用是否放行。
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.openedAt) < cb.resetTimeout {
			return fmt.Errorf("circuit breaker %s is open", cb.name)
		}
		cb.state = StateHalfOpen
		cb.probes = 0
		fallthrough
	case StateHalfOpen:
		if cb.probes >= cb.probeQuota {
			return fmt.Errorf("circuit breaker %s half-open quota exhausted", cb.name)
		}
		cb.probes++
	}
	return nil
}

// settle 根据调用结果推进状态。
func (cb *CircuitBreaker) settle(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.streak = 0
		if cb.state == StateHalfOpen {
			cb.state = StateClosed
			cb.probes = 0
		}
		return
	}

	cb.streak++
	switch cb.state {
	case StateHalfOpen:
		cb.state = StateOpen
		cb.openedAt = time.Now()
		cb.probes = 0
	case StateClosed:
		if cb.streak >= cb.maxFailures {
			cb.state = StateOpen
			cb.openedAt = time.Now()
		}
	}
}

// GetState 当前状态快照。
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
