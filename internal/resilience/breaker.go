// Package resilience 熔断器：外部服务连续失败时快速失败，超时后半开探测
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/liuscraft/luca-voice/internal/logging"
)

// ErrCircuitOpen is returned by Execute while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
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

type CircuitBreakerConfig struct {
	Name string
	// MaxFailures consecutive failures open the breaker. Default 5.
	MaxFailures int
	// ResetTimeout is how long the breaker stays open. Default 30s.
	ResetTimeout time.Duration
	// HalfOpenMax probe calls must succeed to close again. Default 3.
	HalfOpenMax int
}

// CircuitBreaker 三态熔断器，可并发使用
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	halfOpenMax  int
	now          func() time.Time

	mu              sync.Mutex
	state           State
	consecutiveFail int
	lastFailure     time.Time
	halfOpenCalls   int
	halfOpenOK      int
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	return &CircuitBreaker{
		name:         cfg.Name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		halfOpenMax:  cfg.HalfOpenMax,
		now:          time.Now,
		state:        StateClosed,
	}
}

// Execute runs fn unless the breaker is open. The error from fn is returned
// unchanged.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) < cb.resetTimeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.halfOpenCalls = 0
		cb.halfOpenOK = 0
		logging.Infof("CircuitBreaker[%s]: half-open, probing", cb.name)
	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.halfOpenMax {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}

	inHalfOpen := cb.state == StateHalfOpen
	if inHalfOpen {
		cb.halfOpenCalls++
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailure(inHalfOpen)
	} else {
		cb.recordSuccess(inHalfOpen)
	}
	return err
}

// recordFailure 调用方持有 mu
func (cb *CircuitBreaker) recordFailure(inHalfOpen bool) {
	cb.lastFailure = cb.now()
	if inHalfOpen {
		cb.state = StateOpen
		cb.consecutiveFail = cb.maxFailures
		logging.Warnf("CircuitBreaker[%s]: probe failed, open again", cb.name)
		return
	}
	cb.consecutiveFail++
	if cb.state == StateClosed && cb.consecutiveFail >= cb.maxFailures {
		cb.state = StateOpen
		logging.Warnf("CircuitBreaker[%s]: open after %d consecutive failures", cb.name, cb.consecutiveFail)
	}
}

// recordSuccess 调用方持有 mu
func (cb *CircuitBreaker) recordSuccess(inHalfOpen bool) {
	if !inHalfOpen {
		cb.consecutiveFail = 0
		return
	}
	if cb.state != StateHalfOpen {
		return
	}
	cb.halfOpenOK++
	if cb.halfOpenOK >= cb.halfOpenMax {
		cb.state = StateClosed
		cb.consecutiveFail = 0
		cb.halfOpenCalls = 0
		cb.halfOpenOK = 0
		logging.Infof("CircuitBreaker[%s]: closed after successful probes", cb.name)
	}
}

// State reports half-open once the reset timeout has elapsed, even before
// the next Execute performs the transition.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && cb.now().Sub(cb.lastFailure) >= cb.resetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.consecutiveFail = 0
	cb.halfOpenCalls = 0
	cb.halfOpenOK = 0
	logging.Infof("CircuitBreaker[%s]: reset", cb.name)
}
