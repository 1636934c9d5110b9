package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func newTestBreaker(clock *time.Time) *CircuitBreaker {
	cb := NewCircuitBreaker("test", Config{
		FailureThreshold:    2,
		SuccessThreshold:    1,
		Timeout:             10 * time.Second,
		HalfOpenMaxRequests: 1,
	})
	cb.now = func() time.Time { return *clock }
	return cb
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&clock)

	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&clock)
	_ = cb.Execute(func() error { return errBoom })
	_ = cb.Execute(func() error { return errBoom })

	clock = clock.Add(11 * time.Second)
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&clock)
	_ = cb.Execute(func() error { return errBoom })
	_ = cb.Execute(func() error { return errBoom })

	clock = clock.Add(11 * time.Second)
	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	var transitions []State
	cb := NewCircuitBreaker("relay", Config{
		FailureThreshold:    1,
		SuccessThreshold:    1,
		Timeout:             time.Second,
		HalfOpenMaxRequests: 1,
		IsFailure:           func(err error) bool { return !errors.Is(err, errBoom) },
		OnStateChange:       func(_ string, _, to State) { transitions = append(transitions, to) },
	})

	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, StateClosed, cb.GetState())

	_ = cb.Execute(func() error { return errors.New("5xx") })
	assert.Equal(t, StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, []State{StateOpen, StateClosed}, transitions)
}
