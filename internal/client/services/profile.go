package services

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/dmitrijs2005/profilesync/internal/client/activity"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

// UpdateProfile merges patch (and the fields derived from act) into the
// latest profile, publishes the result at once and persists it.
//
// Item id collections are unioned with the current profile, so
// overlapping calls never lose each other's items; scalars are
// last-write-wins. When persisting fails, a recovery read decides between
// reconciling with the server record (ErrPersistReconciled) and restoring
// the pre-write profile (ErrPersistReverted). If a later write or an
// identity change has already replaced the state, neither happens and the
// error is marked ErrPersistSuperseded instead.
//
// The activity is recorded in the local history only after the backend
// accepted the write.
func (m *SessionManager) UpdateProfile(ctx context.Context, patch models.ProfilePatch, act *models.Activity) (*models.Profile, error) {
	if err := m.validateStruct(patch, "profile patch"); err != nil {
		return nil, err
	}
	if act != nil {
		if err := m.validateStruct(act, "activity"); err != nil {
			return nil, err
		}
	}

	m.writeMu.Lock()
	base := m.guard.Current()
	if base == nil || base.UserID == "" {
		m.writeMu.Unlock()
		return nil, crerr.Mark(crerr.New("update profile"), ErrNoAuthenticatedUser)
	}
	now := m.now()
	merged := m.mergePatch(ctx, base, patch, act, now)
	m.publish(optimisticProfile(base, patch, merged))
	seq := m.writeSeq.Add(1)
	m.writeMu.Unlock()

	userID := base.UserID
	saved, err := m.backend.UpdateOne(ctx, userID, merged)
	if err == nil {
		if saved != nil && !m.applyIfCurrent(seq, saved, false) {
			m.logger.Debug(ctx, "write result superseded", "user_id", userID)
		}
		m.recordActivity(ctx, userID, act, now)
		return m.Profile(), nil
	}

	m.logger.Warn(ctx, "profile write failed, trying recovery read", "user_id", userID, "error", err)
	err = crerr.Wrapf(err, "persist profile %s", userID)

	recovered, rerr := m.backend.FindOne(ctx, userID)
	if rerr == nil && recovered != nil {
		if !m.applyIfCurrent(seq, recovered, false) {
			m.logger.Debug(ctx, "recovery read superseded", "user_id", userID)
			return m.Profile(), crerr.Mark(err, ErrPersistSuperseded)
		}
		m.logger.Warn(ctx, "profile reconciled from server state", "user_id", userID)
		return m.Profile(), crerr.Mark(err, ErrPersistReconciled)
	}

	if !m.applyIfCurrent(seq, base, false) {
		m.logger.Debug(ctx, "revert superseded", "user_id", userID, "recovery_error", rerr)
		return m.Profile(), crerr.Mark(err, ErrPersistSuperseded)
	}
	m.logger.Warn(ctx, "profile write reverted", "user_id", userID, "recovery_error", rerr)
	return nil, crerr.Mark(err, ErrPersistReverted)
}

// RefreshProfile re-reads the signed-in user's record from the backend.
func (m *SessionManager) RefreshProfile(ctx context.Context) (*models.Profile, error) {
	cur := m.guard.Current()
	if cur == nil || cur.UserID == "" {
		return nil, crerr.Mark(crerr.New("refresh profile"), ErrNoAuthenticatedUser)
	}
	if err := m.refreshUser(ctx, cur.UserID); err != nil {
		return nil, crerr.Wrap(err, "refresh profile")
	}
	return m.Profile(), nil
}

// mergePatch composes the patch that is sent to the backend:
// patch, then the activity-derived fields, then the unioned collections.
func (m *SessionManager) mergePatch(ctx context.Context, base *models.Profile, patch models.ProfilePatch, act *models.Activity, now time.Time) models.ProfilePatch {
	derived, err := m.rules.Derive(ctx, *base, act, now)
	if err != nil {
		m.logger.Warn(ctx, "activity rules failed, skipping derived fields", "error", err)
		derived = models.ProfilePatch{}
	}

	unlocked := base.UnlockedItemIDs
	if unlocked == nil {
		unlocked = []string{m.opts.SeedItemID}
	}

	merged := patch.Overlay(derived)
	merged.CompletedItemIDs = models.Union(base.CompletedItemIDs, patch.CompletedItemIDs)
	merged.UnlockedItemIDs = models.Union(unlocked, patch.UnlockedItemIDs)
	return merged
}

func (m *SessionManager) recordActivity(ctx context.Context, userID string, act *models.Activity, now time.Time) {
	rec, ok := m.rules.(activity.Recorder)
	if !ok || act == nil {
		return
	}
	if err := rec.Record(ctx, userID, *act, now); err != nil {
		m.logger.Warn(ctx, "activity history not updated", "user_id", userID, "error", err)
	}
}

func optimisticProfile(base *models.Profile, patch, merged models.ProfilePatch) *models.Profile {
	p := merged.ApplyTo(base)
	p.LessonsCompleted = len(merged.CompletedItemIDs)

	nameChanged := (patch.FirstName != nil && *patch.FirstName != base.FirstName) ||
		(patch.LastName != nil && *patch.LastName != base.LastName)
	if nameChanged {
		if n := models.ComposeName(p.FirstName, p.LastName); n != "" {
			p.Name = n
		}
	}
	return p
}
