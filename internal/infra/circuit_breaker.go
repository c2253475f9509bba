package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards calls to a remote dependency (the sales feed).
//
//   - Closed:    calls pass through, consecutive failures are counted
//   - Open:      calls fail fast with ErrCircuitOpen until OpenTimeout elapses
//   - Half-Open: calls are let through as probes; SuccessThreshold successes
//                close the breaker, any failure reopens it

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

// DefaultCBConfig trips after 5 consecutive failures and probes after 60s.
func DefaultCBConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
	}
}

type CircuitBreaker struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	state    CBState
	failures int
	probes   int
	openedAt time.Time
	now      func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig(cfg.Name)
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed, now: time.Now}
}

// State reports the current state, moving Open to Half-Open once the
// open timeout has elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentLocked()
}

func (cb *CircuitBreaker) currentLocked() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.transitionLocked(CBHalfOpen)
	}
	return cb.state
}

// Execute runs fn unless the breaker is open. fn's error is returned as is.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.currentLocked() == CBOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailureLocked()
	} else {
		cb.recordSuccessLocked()
	}
	return err
}

func (cb *CircuitBreaker) recordFailureLocked() {
	switch cb.state {
	case CBClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.transitionLocked(CBOpen)
		}
	case CBHalfOpen:
		cb.transitionLocked(CBOpen)
	}
}

func (cb *CircuitBreaker) recordSuccessLocked() {
	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.probes++
		if cb.probes >= cb.cfg.SuccessThreshold {
			cb.transitionLocked(CBClosed)
		}
	}
}

func (cb *CircuitBreaker) transitionLocked(to CBState) {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.probes = 0
	if to == CBOpen {
		cb.openedAt = cb.now()
	}
	log.Warn().Str("breaker", cb.cfg.Name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
}
