package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrOpen is returned while the breaker is open and rejecting calls
	ErrOpen = errors.New("circuit breaker is open")
	// ErrProbeInFlight is returned when the half-open probe slot is taken
	ErrProbeInFlight = errors.New("circuit breaker is probing")
)

// State represents the breaker state
type State int

const (
	// StateClosed allows calls to pass through
	StateClosed State = iota
	// StateOpen rejects all calls
	StateOpen
	// StateHalfOpen allows a limited number of probe calls
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

// Settings holds breaker configuration
type Settings struct {
	// Name of the breaker (for logging/metrics)
	Name string
	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold int
	// OpenTimeout is how long to reject calls before probing again
	OpenTimeout time.Duration
	// ProbeSuccesses is how many probes must succeed before closing
	ProbeSuccesses int
	// OnStateChange is called when the breaker changes state
	OnStateChange func(name string, from, to State)
}

// DefaultSettings returns breaker settings suited to local model calls:
// trip fast, recover after a short quiet period.
func DefaultSettings(name string) Settings {
	return Settings{
		Name:             name,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		ProbeSuccesses:   1,
	}
}

// Breaker implements the circuit breaker pattern around an unreliable
// downstream such as the local model server or the Google APIs.
type Breaker struct {
	settings Settings

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	openedAt    time.Time
	probeActive int
}

// New creates a breaker with the given settings
func New(settings Settings) *Breaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}
	if settings.ProbeSuccesses <= 0 {
		settings.ProbeSuccesses = 1
	}

	return &Breaker{
		settings: settings,
		state:    StateClosed,
	}
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.settings.Name
}

// Do runs fn under breaker protection. While open it fails fast with
// ErrOpen; in half-open only one probe runs at a time.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		// The downstream was never called; this says nothing about it
		b.release()
		return err
	}

	err := fn(ctx)
	b.settle(err)
	return err
}

// DoValue runs fn under breaker protection and returns its result
func DoValue[T any](b *Breaker, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := b.admit(); err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		b.release()
		return zero, err
	}

	result, err := fn(ctx)
	b.settle(err)
	return result, err
}

// admit decides whether a call may proceed, moving open breakers to
// half-open once the quiet period has passed.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Since(b.openedAt) < b.settings.OpenTimeout {
			return ErrOpen
		}
		b.transition(StateHalfOpen)
		b.probeActive++
		return nil

	case StateHalfOpen:
		if b.probeActive > 0 {
			return ErrProbeInFlight
		}
		b.probeActive++
		return nil

	default:
		return nil
	}
}

// release frees an admitted slot without recording an outcome, for
// calls that never reached the downstream
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.probeActive > 0 {
		b.probeActive--
	}
}

// settle records the outcome of an admitted call
func (b *Breaker) settle(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen && b.probeActive > 0 {
		b.probeActive--
	}

	if err != nil {
		b.failures++
		switch b.state {
		case StateClosed:
			if b.failures >= b.settings.FailureThreshold {
				b.transition(StateOpen)
			}
		case StateHalfOpen:
			b.transition(StateOpen)
		}
		return
	}

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.settings.ProbeSuccesses {
			b.transition(StateClosed)
		}
	}
}

// transition changes state and resets the counters. Callers hold b.mu.
func (b *Breaker) transition(next State) {
	if b.state == next {
		return
	}

	prev := b.state
	b.state = next
	b.failures = 0
	b.successes = 0
	b.probeActive = 0
	if next == StateOpen {
		b.openedAt = time.Now()
	}

	if b.settings.OnStateChange != nil {
		go b.settings.OnStateChange(b.settings.Name, prev, next)
	}
}

// State returns the current breaker state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive failure count
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset forces the breaker closed and clears its counters
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
}
