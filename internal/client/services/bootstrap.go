package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

// Start restores the backed-up profile, subscribes to auth events and
// schedules the session lookup. Only the first call does anything.
func (m *SessionManager) Start(ctx context.Context) {
	m.stateMu.Lock()
	if m.started || m.closed {
		m.stateMu.Unlock()
		return
	}
	m.started = true
	m.stateMu.Unlock()

	m.restoreBackup(ctx)

	unsubscribe := m.backend.OnAuthStateChange(m.onAuthEvent)

	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.closed {
		unsubscribe()
		return
	}
	m.unsubscribe = unsubscribe
	m.timers = append(m.timers,
		time.AfterFunc(m.opts.SplashMinDuration, m.markSplashDone),
		time.AfterFunc(m.opts.DeferredStart, func() { m.goBackground(m.resolveSession) }),
		time.AfterFunc(m.opts.SafetyTimeout, m.safetyExpired),
	)
}

func (m *SessionManager) restoreBackup(ctx context.Context) {
	if m.store == nil {
		return
	}
	p, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn(ctx, "failed to read profile backup", "error", err)
		return
	}
	if p == nil {
		return
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.publish(p)
	m.logger.Debug(ctx, "restored profile backup", "user_id", p.UserID)
}

func (m *SessionManager) safetyExpired() {
	if m.isClosed() || !m.Initializing() {
		return
	}
	m.logger.Warn(m.ctx, "session bootstrap timed out", "after", m.opts.SafetyTimeout)
	m.finishInitializing()
}

// resolveSession asks the backend who is signed in. Any failure counts as
// signed out.
func (m *SessionManager) resolveSession(ctx context.Context) {
	seq := m.writeSeq.Load()

	if hasErrorIndicator(m.currentURL) {
		m.logger.Warn(ctx, "launch URL carries an auth error, skipping session lookup")
		m.applyIfCurrent(seq, nil, false)
		m.finishInitializing()
		return
	}

	p, err := m.lookupSession(ctx)
	if err != nil {
		m.logger.Warn(ctx, "session lookup failed", "error", err)
	}

	m.applyIfCurrent(seq, p, true)

	if p == nil && hasOAuthMarkers(m.currentURL) {
		m.logger.Debug(ctx, "no session yet, waiting for OAuth redirect to finish")
		return
	}
	m.finishInitializing()
	m.logger.Info(ctx, "session resolved", "signed_in", p != nil)
}

func (m *SessionManager) lookupSession(ctx context.Context) (*models.Profile, error) {
	sess, err := m.backend.GetSession(ctx)
	if err != nil || sess == nil {
		return nil, err
	}

	p, err := m.backend.FindOne(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = models.NewProfileFromUser(sess.User, m.opts.SeedItemID)
	}
	return p, nil
}
