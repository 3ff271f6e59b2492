package services

import (
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/activity"
)

// Options are the SessionManager timings and the seed unlock.
type Options struct {
	// SeedItemID is always present in UnlockedItemIDs. Empty means the
	// default seed.
	SeedItemID string
	// SplashMinDuration gates SplashDone only; it never delays data.
	SplashMinDuration time.Duration
	// DeferredStart delays the session lookup after Start.
	DeferredStart time.Duration
	// SafetyTimeout clears Initializing even if the lookup never returns.
	SafetyTimeout  time.Duration
	SignOutTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		SeedItemID:        "c1",
		SplashMinDuration: 600 * time.Millisecond,
		DeferredStart:     50 * time.Millisecond,
		SafetyTimeout:     8 * time.Second,
		SignOutTimeout:    2 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SeedItemID == "" {
		o.SeedItemID = d.SeedItemID
	}
	if o.SafetyTimeout <= 0 {
		o.SafetyTimeout = d.SafetyTimeout
	}
	if o.SignOutTimeout <= 0 {
		o.SignOutTimeout = d.SignOutTimeout
	}
	if o.SplashMinDuration < 0 {
		o.SplashMinDuration = 0
	}
	if o.DeferredStart < 0 {
		o.DeferredStart = 0
	}
	return o
}

type Option func(*SessionManager)

// WithActivityRules replaces the rules that derive streak and XP fields.
func WithActivityRules(r activity.Rules) Option {
	return func(m *SessionManager) { m.rules = r }
}

// WithCurrentURL sets the launch URL inspected for OAuth error and
// redirect parameters.
func WithCurrentURL(raw string) Option {
	return func(m *SessionManager) { m.currentURL = raw }
}

func WithClock(now func() time.Time) Option {
	return func(m *SessionManager) { m.now = now }
}
