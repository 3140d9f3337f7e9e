package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without calling fn while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half-open"
)

type Settings struct {
	Name string
	// MaxRequests is the number of consecutive failures that opens the breaker.
	MaxRequests int
	Interval    time.Duration
	// Timeout is how long the breaker stays open before a trial call.
	Timeout time.Duration
}

type CircuitBreaker struct {
	name        string
	maxRequests int
	interval    time.Duration
	timeout     time.Duration
	failures    int
	lastFailure time.Time
	state       string
	mu          sync.RWMutex
	now         func() time.Time
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	if settings.MaxRequests <= 0 {
		settings.MaxRequests = 1
	}
	return &CircuitBreaker{
		name:        settings.Name,
		maxRequests: settings.MaxRequests,
		interval:    settings.Interval,
		timeout:     settings.Timeout,
		state:       StateClosed,
		now:         time.Now,
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State reports the current state, moving open to half-open once the timeout passed.
func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return cb.state
}

// refresh must be called with mu held.
func (cb *CircuitBreaker) refresh() {
	now := cb.now()
	switch cb.state {
	case StateOpen:
		if now.Sub(cb.lastFailure) > cb.timeout {
			cb.state = StateHalfOpen
		}
	case StateClosed:
		// failures older than interval no longer count
		if cb.interval > 0 && cb.failures > 0 && now.Sub(cb.lastFailure) > cb.interval {
			cb.failures = 0
		}
	}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	cb.refresh()
	if cb.state == StateOpen {
		cb.mu.Unlock()
		return ErrOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.state == StateHalfOpen || cb.failures >= cb.maxRequests {
			cb.state = StateOpen
		}
		return err
	}

	cb.state = StateClosed
	cb.failures = 0
	return nil
}
