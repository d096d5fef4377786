package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold uint32
	// Cooldown is how long the circuit stays open after its first trip
	Cooldown time.Duration
	// MaxCooldown caps the cooldown, which doubles on every consecutive trip
	MaxCooldown time.Duration
	// OnStateChange is called whenever the state changes
	OnStateChange func(name string, from State, to State)
	// Now is the clock; tests replace it
	Now func() time.Time
}

// Counts holds the statistics for the circuit breaker
type Counts struct {
	Requests            uint32
	TotalSuccesses      uint32
	TotalFailures       uint32
	ConsecutiveFailures uint32
	// Trips counts consecutive openings without a successful probe in between
	Trips uint32
}

// Breaker tracks the health of one upstream endpoint. An open breaker marks
// the endpoint dead until its cooldown expires; the first caller after that
// gets a single half-open probe.
type Breaker struct {
	name     string
	settings Settings

	mu       sync.Mutex
	state    State
	counts   Counts
	reopenAt time.Time
	probing  bool
}

// New creates a new circuit breaker with the given settings
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 1
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 60 * time.Second
	}
	if settings.MaxCooldown < settings.Cooldown {
		settings.MaxCooldown = settings.Cooldown * 32
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}

	return &Breaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
	}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, moving open to half-open once the
// cooldown has elapsed
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// Counts returns a copy of the internal counts
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// ReopenAt returns when an open breaker will allow a probe
func (b *Breaker) ReopenAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reopenAt
}

// Allow reserves a request slot. Every successful Allow must be followed by
// exactly one Success, Failure or Release.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			return ErrTooManyRequests
		}
		b.probing = true
	}

	b.counts.Requests++
	return nil
}

// Success records a successful request
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counts.TotalSuccesses++
	b.counts.ConsecutiveFailures = 0

	if b.currentState() == StateHalfOpen {
		b.probing = false
		b.counts.Trips = 0
		b.setState(StateClosed)
	}
}

// Failure records a failed request
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counts.TotalFailures++
	b.counts.ConsecutiveFailures++

	switch b.currentState() {
	case StateHalfOpen:
		b.probing = false
		b.trip()
	case StateClosed:
		if b.counts.ConsecutiveFailures >= b.settings.FailureThreshold {
			b.trip()
		}
	}
}

// Release gives back a slot reserved by Allow when the request was
// abandoned before it had an outcome. A held half-open probe is freed for
// the next caller.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

// trip opens the circuit; the cooldown doubles with every consecutive trip
func (b *Breaker) trip() {
	b.counts.Trips++

	cooldown := b.settings.Cooldown
	for i := uint32(1); i < b.counts.Trips && cooldown < b.settings.MaxCooldown; i++ {
		cooldown *= 2
	}
	if cooldown > b.settings.MaxCooldown {
		cooldown = b.settings.MaxCooldown
	}

	b.reopenAt = b.settings.Now().Add(cooldown)
	b.setState(StateOpen)
}

// currentState must be called with mu held
func (b *Breaker) currentState() State {
	if b.state == StateOpen && !b.settings.Now().Before(b.reopenAt) {
		b.setState(StateHalfOpen)
	}
	return b.state
}

// setState must be called with mu held
func (b *Breaker) setState(state State) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state
	if state == StateClosed {
		b.reopenAt = time.Time{}
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
