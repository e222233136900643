package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	Name                string        `mapstructure:"name"`
	FailureThreshold    int           `mapstructure:"failure_threshold"`
	SuccessThreshold    int           `mapstructure:"success_threshold"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxHalfOpenRequests int           `mapstructure:"max_half_open_requests"`
}

// DefaultCircuitBreakerConfig returns default configuration
func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Enabled:             false,
		Name:                name,
		FailureThreshold:    5,
		SuccessThreshold:    3,
		Timeout:             30 * time.Second,
		MaxHalfOpenRequests: 3,
	}
}

// Validate checks the thresholds of an enabled breaker
func (c *CircuitBreakerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch {
	case c.FailureThreshold < 1:
		return fmt.Errorf("circuit_breaker.failure_threshold must be positive, got %d", c.FailureThreshold)
	case c.SuccessThreshold < 1:
		return fmt.Errorf("circuit_breaker.success_threshold must be positive, got %d", c.SuccessThreshold)
	case c.MaxHalfOpenRequests < 1:
		return fmt.Errorf("circuit_breaker.max_half_open_requests must be positive, got %d", c.MaxHalfOpenRequests)
	case c.Timeout <= 0:
		return fmt.Errorf("circuit_breaker.timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// FailureClassifier decides whether an error counts against the breaker.
// Errors it rejects are returned to the caller but treated as successes.
type FailureClassifier func(err error) bool

// CircuitBreaker rejects calls while the protected backend is failing.
// It never retries: Execute runs fn at most once.
type CircuitBreaker struct {
	config           *CircuitBreakerConfig
	isFailure        FailureClassifier
	state            State
	failures         int
	successes        int
	halfOpenRequests int
	generation       uint64
	openedAt         time.Time
	now              func() time.Time
	mutex            sync.Mutex
	logger           *zap.Logger
	metrics          CircuitBreakerMetrics
}

// CircuitBreakerMetrics is a snapshot of circuit breaker counters
type CircuitBreakerMetrics struct {
	TotalCalls       int64
	SuccessfulCalls  int64
	FailedCalls      int64
	RejectedCalls    int64
	StateTransitions int64
}

// NewCircuitBreaker creates a new circuit breaker. A nil classifier counts every error.
func NewCircuitBreaker(config *CircuitBreakerConfig, isFailure FailureClassifier, logger *zap.Logger) *CircuitBreaker {
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		config:    config,
		isFailure: isFailure,
		state:     StateClosed,
		now:       time.Now,
		logger:    logger.With(zap.String("circuit_breaker", config.Name)),
	}
}

// Execute runs fn unless the circuit is open. A call whose ctx ended
// before fn returned says nothing about the backend and is not counted.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	gen, err := cb.allowRequest()
	if err != nil {
		return err
	}

	err = fn(ctx)
	if err != nil && ctx.Err() != nil {
		cb.abandon(gen)
		return err
	}
	cb.recordOutcome(gen, err != nil && cb.isFailure(err))

	return err
}

// allowRequest checks if a request is allowed and returns the generation
// it was admitted in
func (cb *CircuitBreaker) allowRequest() (uint64, error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.Timeout {
			cb.metrics.RejectedCalls++
			return 0, ErrCircuitOpen
		}
		cb.transitionTo(StateHalfOpen)
		cb.halfOpenRequests = 1
	case StateHalfOpen:
		if cb.halfOpenRequests >= cb.config.MaxHalfOpenRequests {
			cb.metrics.RejectedCalls++
			return 0, ErrTooManyRequests
		}
		cb.halfOpenRequests++
	}
	return cb.generation, nil
}

// releaseHalfOpenSlot frees the half-open slot of a call admitted in gen; the
// caller holds the mutex
func (cb *CircuitBreaker) releaseHalfOpenSlot(gen uint64) {
	if cb.state == StateHalfOpen && gen == cb.generation && cb.halfOpenRequests > 0 {
		cb.halfOpenRequests--
	}
}

// abandon releases a call that ended with its caller's context
func (cb *CircuitBreaker) abandon(gen uint64) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.releaseHalfOpenSlot(gen)
}

// recordOutcome records the outcome of a call admitted in gen
func (cb *CircuitBreaker) recordOutcome(gen uint64, failed bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.releaseHalfOpenSlot(gen)

	cb.metrics.TotalCalls++
	if failed {
		cb.metrics.FailedCalls++
	} else {
		cb.metrics.SuccessfulCalls++
	}

	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			return
		}
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		if failed {
			cb.transitionTo(StateOpen)
			return
		}
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transitionTo(StateClosed)
		}
	}
}

// transitionTo moves to newState; the caller holds the mutex
func (cb *CircuitBreaker) transitionTo(newState State) {
	if cb.state == newState {
		return
	}

	oldState := cb.state
	cb.state = newState
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenRequests = 0
	cb.generation++
	if newState == StateOpen {
		cb.openedAt = cb.now()
	}
	cb.metrics.StateTransitions++

	cb.logger.Info("Circuit breaker state transition",
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
	)
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Metrics returns the current metrics
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.metrics
}

// Reset resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.transitionTo(StateClosed)
	cb.failures = 0
}
