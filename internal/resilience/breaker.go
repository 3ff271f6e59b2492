// Package resilience keeps the client from hammering a backend that is down.
package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("backend circuit open")

type State uint8

const (
	Closed State = iota
	Open
	// Trial admits a limited number of calls to test a backend that was
	// open for a full cooldown.
	Trial
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Trial:
		return "trial"
	default:
		return "closed"
	}
}

// Outcome is how a call admitted by Enter ended.
type Outcome uint8

const (
	Succeeded Outcome = iota
	// Refused is an authoritative answer that declined the request. The
	// backend is reachable, so it counts like a success for the circuit
	// but is tallied on its own.
	Refused
	// Failed means the backend could not be reached.
	Failed
)

type Settings struct {
	// Threshold is the number of consecutive failures that opens the circuit.
	Threshold int
	// Cooldown is how long an open circuit sheds calls.
	Cooldown time.Duration
	// TrialCalls is how many calls a trial admits and needs to close again.
	TrialCalls int
}

func DefaultSettings() Settings {
	return Settings{Threshold: 5, Cooldown: 15 * time.Second, TrialCalls: 1}
}

type Stats struct {
	State    State
	Failures int
	Trips    uint64
	Refusals uint64
	Shed     uint64
}

type Breaker struct {
	mu  sync.Mutex
	set Settings

	state    State
	failures int
	openedAt time.Time
	inTrial  int
	trialOK  int

	trips    uint64
	refusals uint64
	shed     uint64

	now      func() time.Time
	onChange func(from, to State)
}

type Option func(*Breaker)

func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// OnStateChange registers fn to run after every transition. It is called
// without the breaker lock held.
func OnStateChange(fn func(from, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

// New builds a closed breaker. Non-positive settings take their defaults.
func New(s Settings, opts ...Option) *Breaker {
	d := DefaultSettings()
	if s.Threshold < 1 {
		s.Threshold = d.Threshold
	}
	if s.Cooldown <= 0 {
		s.Cooldown = d.Cooldown
	}
	if s.TrialCalls < 1 {
		s.TrialCalls = d.TrialCalls
	}

	b := &Breaker{set: s, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Enter admits one call or returns ErrOpen. Every admitted call must be
// finished with exactly one Leave.
func (b *Breaker) Enter() error {
	b.mu.Lock()
	from := b.state

	if b.state == Open && b.cooledDown() {
		b.state, b.inTrial, b.trialOK = Trial, 0, 0
	}

	var err error
	switch {
	case b.state == Open:
		err = ErrOpen
	case b.state == Trial && b.inTrial >= b.set.TrialCalls:
		err = ErrOpen
	case b.state == Trial:
		b.inTrial++
	}
	if err != nil {
		b.shed++
	}

	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
	return err
}

func (b *Breaker) Leave(o Outcome) {
	b.mu.Lock()
	from := b.state

	if o == Refused {
		b.refusals++
	}

	switch b.state {
	case Closed:
		if o == Failed {
			b.failures++
			if b.failures >= b.set.Threshold {
				b.trip()
			}
		} else {
			b.failures = 0
		}
	case Trial:
		if b.inTrial > 0 {
			b.inTrial--
		}
		if o == Failed {
			b.trip()
			break
		}
		b.trialOK++
		if b.trialOK >= b.set.TrialCalls && b.inTrial == 0 {
			b.state, b.failures, b.trialOK = Closed, 0, 0
		}
	case Open:
		// a call admitted before the trip finished late
		if o == Failed {
			b.openedAt = b.now()
		}
	}

	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
}

// State reports Trial once an open circuit has cooled down, even before
// the next Enter moves it there.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visibleState()
}

func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:    b.visibleState(),
		Failures: b.failures,
		Trips:    b.trips,
		Refusals: b.refusals,
		Shed:     b.shed,
	}
}

func (b *Breaker) visibleState() State {
	if b.state == Open && b.cooledDown() {
		return Trial
	}
	return b.state
}

func (b *Breaker) cooledDown() bool {
	return b.now().Sub(b.openedAt) >= b.set.Cooldown
}

func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.inTrial, b.trialOK = 0, 0
	b.trips++
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.onChange != nil {
		b.onChange(from, to)
	}
}
