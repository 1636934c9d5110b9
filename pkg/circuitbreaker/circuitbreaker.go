package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State is the breaker state.
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls are rejected
	StateHalfOpen              // a few trial calls pass
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	}
	return "unknown"
}

var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// Config tunes a CircuitBreaker.
type Config struct {
	// consecutive failures before opening
	FailureThreshold int
	// successes in half-open before closing
	SuccessThreshold int
	// how long to stay open before half-open
	Timeout time.Duration
	// concurrent trial calls allowed in half-open
	HalfOpenMaxRequests int
	// IsFailure decides which errors count against the breaker. Nil counts all.
	IsFailure func(error) bool
	// OnStateChange is called with the lock held; keep it short.
	OnStateChange func(name string, from, to State)
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 3,
	}
}

// CircuitBreaker guards the gemini, geocode and relay calls.
type CircuitBreaker struct {
	name   string
	config Config
	now    func() time.Time

	state         State
	failureCount  int
	successCount  int
	halfOpenCount int
	openedAt      time.Time

	mu sync.Mutex
}

func NewCircuitBreaker(name string, config Config) *CircuitBreaker {
	return &CircuitBreaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

func (cb *CircuitBreaker) Name() string { return cb.name }

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}

	err := fn()

	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.Timeout {
		cb.setState(StateHalfOpen)
	}

	switch cb.state {
	case StateOpen:
		return ErrCircuitBreakerOpen
	case StateHalfOpen:
		if cb.halfOpenCount >= cb.config.HalfOpenMaxRequests {
			return ErrCircuitBreakerOpen
		}
		cb.halfOpenCount++
	}
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := err != nil
	if failed && cb.config.IsFailure != nil {
		failed = cb.config.IsFailure(err)
	}

	switch cb.state {
	case StateHalfOpen:
		cb.halfOpenCount--
		if failed {
			cb.setState(StateOpen)
			return
		}
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.setState(StateClosed)
		}
	case StateClosed:
		if !failed {
			cb.failureCount = 0
			return
		}
		cb.failureCount++
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.setState(StateOpen)
		}
	}
}

func (cb *CircuitBreaker) setState(to State) {
	from := cb.state
	cb.state = to
	cb.failureCount = 0
	cb.successCount = 0
	cb.halfOpenCount = 0
	if to == StateOpen {
		cb.openedAt = cb.now()
	}
	if cb.config.OnStateChange != nil && from != to {
		cb.config.OnStateChange(cb.name, from, to)
	}
}

// GetState returns the current state.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the breaker and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
}
