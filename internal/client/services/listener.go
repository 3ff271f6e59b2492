package services

import (
	"context"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

// onAuthEvent feeds a pushed session change into the guard. The profile of
// a newly seen user is fetched in the background; until then the backup
// (when it belongs to that user) or a fresh profile stands in.
func (m *SessionManager) onAuthEvent(ev models.AuthEvent) {
	if m.isClosed() {
		return
	}
	ctx := m.ctx

	var user *models.User
	if ev.Session != nil && ev.Session.User.ID != "" {
		u := ev.Session.User
		user = &u
	}
	m.logger.Debug(ctx, "auth event", "event", ev.Type, "signed_in", user != nil)

	changed, fetch := m.applyAuthCandidate(ctx, ev.Type, user)

	if !changed && user == nil && m.Initializing() && hasOAuthMarkers(m.currentURL) {
		m.logger.Debug(ctx, "holding initialization for OAuth redirect")
	} else {
		m.finishInitializing()
	}

	if fetch {
		userID := user.ID
		m.goBackground(func(ctx context.Context) {
			if err := m.refreshUser(ctx, userID); err != nil {
				m.logger.Warn(ctx, "background profile sync failed", "user_id", userID, "error", err)
			}
		})
	}
}

// applyAuthCandidate publishes the snapshot for user and reports whether
// it changed anything and whether the full record still has to be fetched.
func (m *SessionManager) applyAuthCandidate(ctx context.Context, typ models.AuthEventType, user *models.User) (bool, bool) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	cur := m.guard.Current()

	if user == nil {
		if cur != nil {
			m.writeSeq.Add(1)
		}
		return m.publish(nil), false
	}

	if cur != nil && cur.UserID == user.ID {
		return false, typ != models.AuthEventTokenRefreshed
	}

	candidate := m.backupFor(ctx, user.ID)
	if candidate == nil {
		candidate = models.NewProfileFromUser(*user, m.opts.SeedItemID)
	}
	m.writeSeq.Add(1)
	return m.publish(candidate), true
}

func (m *SessionManager) backupFor(ctx context.Context, userID string) *models.Profile {
	if m.store == nil {
		return nil
	}
	p, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn(ctx, "failed to read profile backup", "error", err)
		return nil
	}
	if p == nil || p.UserID != userID {
		return nil
	}
	return p
}

// refreshUser re-reads userID's record and publishes it unless a newer
// write superseded it. Concurrent refreshes of one user share a call.
func (m *SessionManager) refreshUser(ctx context.Context, userID string) error {
	seq := m.writeSeq.Load()

	v, err, _ := m.refreshGroup.Do(userID, func() (any, error) {
		return m.backend.FindOne(ctx, userID)
	})
	if err != nil {
		return err
	}
	p, _ := v.(*models.Profile)
	if p == nil {
		return nil
	}
	if !m.applyIfCurrent(seq, p, true) {
		m.logger.Debug(ctx, "profile refresh superseded by a newer write", "user_id", userID)
	}
	return nil
}
