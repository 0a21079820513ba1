package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is the position of a circuit breaker.
type State string

const (
	// StateClosed passes calls through.
	StateClosed State = "closed"
	// StateOpen rejects every call.
	StateOpen State = "open"
	// StateHalfOpen admits a few probe calls to test recovery.
	StateHalfOpen State = "half-open"
)

func (s State) String() string { return string(s) }

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig tunes a CircuitBreaker.
type CircuitBreakerConfig struct {
	Name string
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// HalfOpenMaxCalls probes are admitted, and must all succeed, to close.
	HalfOpenMaxCalls int
	// IsFailure picks the errors that count. Nil counts every error.
	IsFailure     func(error) bool
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig opens after 5 failures for 30s.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{Name: name, MaxFailures: 5, Timeout: 30 * time.Second, HalfOpenMaxCalls: 1}
}

// CircuitBreaker fails fast while an upstream keeps failing.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu       sync.Mutex
	state    State
	openedAt time.Time
	// failures counts consecutive failures while closed.
	failures int
	// probes and passed count admitted and successful half-open calls.
	probes, passed int
}

// NewCircuitBreaker fills unset config fields from the defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Execute calls fn unless the circuit rejects it with ErrCircuitOpen, and
// returns fn's error.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.admit() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.settle(err)
	return err
}

// State reports the current state; an expired open circuit reads half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.refresh()
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.moveTo(StateClosed)
	cb.failures = 0
}

func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.refresh() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.probes < cb.cfg.HalfOpenMaxCalls {
			cb.probes++
			return true
		}
	}
	return false
}

func (cb *CircuitBreaker) settle(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := err != nil && (cb.cfg.IsFailure == nil || cb.cfg.IsFailure(err))
	switch state := cb.refresh(); {
	case state == StateHalfOpen && failed:
		cb.trip()
	case state == StateHalfOpen:
		if cb.passed++; cb.passed >= cb.cfg.HalfOpenMaxCalls {
			cb.moveTo(StateClosed)
		}
	case state == StateClosed && failed:
		if cb.failures++; cb.failures >= cb.cfg.MaxFailures {
			cb.trip()
		}
	case state == StateClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) trip() {
	cb.openedAt = time.Now()
	cb.moveTo(StateOpen)
}

// refresh turns an expired open circuit half-open. Caller holds mu.
func (cb *CircuitBreaker) refresh() State {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.cfg.Timeout {
		cb.moveTo(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) moveTo(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state, cb.failures, cb.probes, cb.passed = to, 0, 0, 0
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}
