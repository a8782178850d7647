// Package circuit provides a consecutive-failure circuit breaker used to stop
// hammering a degraded dependency (event broker, object store) while it is down.
package circuit

import (
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// StateChange reports a transition caused by a Record call.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker opens after FailureThreshold consecutive failures and closes after
// SuccessThreshold consecutive successes while open. An open breaker admits a
// probe call once the cooldown has elapsed.
type Breaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	now              func() time.Time

	state     State
	failures  int
	successes int
	openedAt  time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithCooldown sets how long an open breaker rejects calls before probing.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a closed breaker. Defaults: 5 failures to open, 3 successes to
// close, 30s cooldown.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 3,
		cooldown:         30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Allow reports whether a call to the primary should be attempted.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return true
	}
	return b.now().Sub(b.openedAt) >= b.cooldown
}

// RecordFailure counts a failed call. useFallback is true while the breaker is open.
func (b *Breaker) RecordFailure() (useFallback bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.successes = 0
	if b.state == StateOpen {
		b.openedAt = b.now()
		return true, StateChange{}
	}
	if b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
		return true, StateChange{Opened: true}
	}
	return false, StateChange{}
}

// RecordSuccess counts a successful call. usePrimary is true once the breaker is closed.
func (b *Breaker) RecordSuccess() (usePrimary bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		b.failures = 0
		return true, StateChange{}
	}
	b.successes++
	if b.successes >= b.successThreshold {
		b.state = StateClosed
		b.failures = 0
		b.successes = 0
		return true, StateChange{Closed: true}
	}
	return false, StateChange{}
}

// Reset closes the breaker and clears counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
