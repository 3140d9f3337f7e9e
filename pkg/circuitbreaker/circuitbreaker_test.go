package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(Settings{Name: "redis", MaxRequests: 2, Timeout: 10 * time.Second})
	cb.now = func() time.Time { return now }

	boom := errors.New("dial tcp: refused")
	fail := func() error { return boom }
	calls := 0
	ok := func() error { calls++; return nil }

	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.Equal(t, StateOpen, cb.State())

	assert.ErrorIs(t, cb.Execute(ok), ErrOpen)
	assert.Zero(t, calls)

	now = now.Add(11 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	// a failed trial reopens immediately
	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(11 * time.Second)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerForgetsOldFailures(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(Settings{MaxRequests: 2, Interval: time.Minute, Timeout: time.Second})
	cb.now = func() time.Time { return now }

	fail := func() error { return errors.New("timeout") }
	_ = cb.Execute(fail)
	now = now.Add(2 * time.Minute)
	_ = cb.Execute(fail)

	assert.Equal(t, StateClosed, cb.State())
}
