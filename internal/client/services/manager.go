package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/activity"
	"github.com/dmitrijs2005/profilesync/internal/client/backup"
	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/singleflight"
)

// SessionManager owns the canonical profile. It is safe for concurrent use.
type SessionManager struct {
	backend client.Client
	store   backup.Store
	opts    Options
	logger  logging.Logger

	rules      activity.Rules
	currentURL string
	now        func() time.Time
	validate   *validator.Validate

	guard *changeGuard

	// writeMu serializes every read-modify-publish of the profile. writeSeq
	// counts writes and identity switches; a backend result computed before
	// the latest bump is stale and dropped.
	writeMu  sync.Mutex
	writeSeq atomic.Uint64

	refreshGroup singleflight.Group

	stateMu      sync.Mutex
	started      bool
	closed       bool
	initializing bool
	splashDone   bool
	ready        chan struct{}
	splash       chan struct{}
	timers       []*time.Timer
	unsubscribe  func()

	unsubscribeBackup func()

	ctx       context.Context
	cancel    context.CancelFunc
	wg        conc.WaitGroup
	closeOnce sync.Once
}

// NewSessionManager wires the manager. store may be nil, which disables the
// local backup.
func NewSessionManager(backend client.Client, store backup.Store, opts Options, logger logging.Logger, options ...Option) *SessionManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := &SessionManager{
		backend:      backend,
		store:        store,
		opts:         opts.withDefaults(),
		logger:       logger.With("component", "session"),
		rules:        activity.NoRules,
		now:          time.Now,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		guard:        newChangeGuard(),
		initializing: true,
		ready:        make(chan struct{}),
		splash:       make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range options {
		opt(m)
	}

	if store != nil {
		m.unsubscribeBackup = m.guard.Subscribe(m.syncBackup)
	}
	return m
}

// Profile returns a copy of the canonical profile, nil when signed out.
func (m *SessionManager) Profile() *models.Profile {
	return m.guard.Current()
}

// Subscribe registers fn for every visible profile change. fn receives its
// own copy and must not call back into the manager's write path.
func (m *SessionManager) Subscribe(fn func(*models.Profile)) func() {
	return m.guard.Subscribe(fn)
}

func (m *SessionManager) Initializing() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.initializing
}

// Loading is true while initializing or before the splash minimum elapsed.
func (m *SessionManager) Loading() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.initializing || !m.splashDone
}

// Ready is closed once Initializing turns false.
func (m *SessionManager) Ready() <-chan struct{} {
	return m.ready
}

func (m *SessionManager) SplashDone() <-chan struct{} {
	return m.splash
}

// Close stops the timers, leaves the auth stream and waits for background
// work. It is safe to call more than once.
func (m *SessionManager) Close() {
	m.closeOnce.Do(func() {
		m.stateMu.Lock()
		m.closed = true
		timers := m.timers
		m.timers = nil
		unsubscribe := m.unsubscribe
		m.unsubscribe = nil
		m.stateMu.Unlock()

		for _, t := range timers {
			t.Stop()
		}
		if unsubscribe != nil {
			unsubscribe()
		}
		m.cancel()
		m.wg.Wait()

		if m.unsubscribeBackup != nil {
			m.unsubscribeBackup()
		}
	})
}

func (m *SessionManager) isClosed() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.closed
}

func (m *SessionManager) finishInitializing() {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.initializing {
		m.initializing = false
		close(m.ready)
	}
}

func (m *SessionManager) markSplashDone() {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if !m.splashDone {
		m.splashDone = true
		close(m.splash)
	}
}

// goBackground runs fn on the manager's wait group unless Close has begun.
func (m *SessionManager) goBackground(fn func(ctx context.Context)) bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.closed {
		return false
	}
	m.wg.Go(func() { fn(m.ctx) })
	return true
}

// publish seeds p and hands it to the guard. Callers hold writeMu.
func (m *SessionManager) publish(p *models.Profile) bool {
	return m.guard.Apply(p.WithSeed(m.opts.SeedItemID))
}

// applyIfCurrent publishes a backend result unless a write or identity
// switch happened after seq was taken.
func (m *SessionManager) applyIfCurrent(seq uint64, p *models.Profile, keepNames bool) bool {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.writeSeq.Load() != seq {
		return false
	}
	if keepNames {
		p = preserveNames(m.guard.Current(), p)
	}
	m.publish(p)
	return true
}

// preserveNames keeps the local display names when a pushed record of the
// same user arrives without them.
func preserveNames(prev, next *models.Profile) *models.Profile {
	if prev == nil || next == nil || prev.UserID != next.UserID {
		return next
	}
	if prev.FirstName == "" || next.FirstName != "" {
		return next
	}
	out := next.Clone()
	out.FirstName = prev.FirstName
	out.LastName = prev.LastName
	out.Name = prev.Name
	out.OnboardingCompleted = prev.OnboardingCompleted
	return out
}

func (m *SessionManager) syncBackup(p *models.Profile) {
	ctx := context.Background()

	var err error
	if p == nil {
		err = m.store.Remove(ctx)
	} else {
		err = m.store.Save(ctx, p)
	}
	if err != nil {
		m.logger.Warn(ctx, "failed to sync profile backup", "error", err)
	}
}
