// Package loader fetches secondary, list-shaped data (goals, badges,
// history) with a per-attempt timeout and bounded exponential backoff.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/logging"
)

var ErrAttemptTimeout = errors.New("attempt timed out")

type Options struct {
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BackoffBase is the delay before the first retry; it doubles each time.
	BackoffBase time.Duration
}

func DefaultOptions() Options {
	return Options{
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		BackoffBase: time.Second,
	}
}

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	// StatusFallback means every attempt failed and Data holds the fallback.
	StatusFallback
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFallback:
		return "fallback"
	default:
		return "idle"
	}
}

type State[T any] struct {
	Status   Status
	Data     T
	Attempts int
	Err      error
}

type Fetcher[T any] func(ctx context.Context) (T, error)

// Loader runs one Fetcher. It is safe to read State while Load runs.
type Loader[T any] struct {
	name     string
	fetch    Fetcher[T]
	fallback Fetcher[T]
	opts     Options
	logger   logging.Logger

	mu    sync.Mutex
	state State[T]
}

// New builds a loader. fallback may be nil, in which case exhausted
// retries settle to the zero value of T. A non-positive Timeout uses the
// default one.
func New[T any](name string, fetch, fallback Fetcher[T], opts Options, logger logging.Logger) *Loader[T] {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.BackoffBase < 0 {
		opts.BackoffBase = 0
	}
	return &Loader[T]{
		name:     name,
		fetch:    fetch,
		fallback: fallback,
		opts:     opts,
		logger:   logger.With("loader", name),
	}
}

func (l *Loader[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Load makes up to MaxRetries+1 attempts, sleeping BackoffBase*2^attempt
// between them, and always returns a settled state. Cancelling ctx stops
// the retries and settles to the fallback.
func (l *Loader[T]) Load(ctx context.Context) State[T] {
	l.update(func(s *State[T]) { *s = State[T]{Status: StatusLoading} })

	for attempt := 0; ; attempt++ {
		l.update(func(s *State[T]) { s.Attempts = attempt + 1 })

		v, err := l.attempt(ctx)
		if err == nil {
			l.update(func(s *State[T]) {
				s.Status = StatusLoaded
				s.Data = v
				s.Err = nil
			})
			return l.State()
		}

		if attempt >= l.opts.MaxRetries || ctx.Err() != nil {
			l.logger.Warn(ctx, "giving up, using fallback", "attempts", attempt+1, "error", err)
			return l.settleFallback(ctx, err)
		}

		delay := l.opts.BackoffBase << attempt
		l.logger.Debug(ctx, "attempt failed, retrying", "attempt", attempt+1, "delay", delay, "error", err)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return l.settleFallback(ctx, ctx.Err())
		case <-t.C:
		}
	}
}

// attempt races fetch against the per-attempt timeout.
func (l *Loader[T]) attempt(ctx context.Context) (T, error) {
	actx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := l.fetch(actx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-actx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("%s: %w after %s", l.name, ErrAttemptTimeout, l.opts.Timeout)
	}
}

func (l *Loader[T]) settleFallback(ctx context.Context, cause error) State[T] {
	var data T
	if l.fallback != nil {
		v, err := l.fallback(context.WithoutCancel(ctx))
		if err != nil {
			l.logger.Warn(ctx, "fallback failed", "error", err)
		} else {
			data = v
		}
	}
	l.update(func(s *State[T]) {
		s.Status = StatusFallback
		s.Data = data
		s.Err = cause
	})
	return l.State()
}

func (l *Loader[T]) update(fn func(s *State[T])) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.state)
}
