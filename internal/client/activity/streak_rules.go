package activity

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/repositories/history"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"github.com/google/uuid"
)

const (
	MaxLogDays   = 60
	MaxHistory   = 100
	historyBatch = MaxHistory + 1
)

// StreakRules is the default Rules: it records today in the activity log,
// recomputes the streak and adds activity XP. As a Recorder it keeps the
// local activity history.
type StreakRules struct {
	history history.Repository
	loc     *time.Location
	logger  logging.Logger
	newID   func() string
}

type StreakOption func(*StreakRules)

// WithLocation sets the time zone that decides calendar days.
func WithLocation(loc *time.Location) StreakOption {
	return func(r *StreakRules) { r.loc = loc }
}

func WithLogger(l logging.Logger) StreakOption {
	return func(r *StreakRules) { r.logger = l }
}

// NewStreakRules builds the rules. repo may be nil, which disables the
// local history.
func NewStreakRules(repo history.Repository, opts ...StreakOption) *StreakRules {
	r := &StreakRules{
		history: repo,
		loc:     time.Local,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *StreakRules) Derive(ctx context.Context, base models.Profile, act *models.Activity, now time.Time) (models.ProfilePatch, error) {
	today := now.In(r.loc).Format(time.DateOnly)

	log := slices.Clone(base.ActivityLog)
	logChanged := !slices.Contains(log, today)
	if logChanged {
		log = append(log, today)
		if len(log) > MaxLogDays {
			log = log[len(log)-MaxLogDays:]
		}
	}

	stats := CalculateStreak(log, now, r.loc)

	var patch models.ProfilePatch
	if logChanged || act != nil || base.Streak != stats.Current {
		patch.LastActiveAt = models.Ptr(now)
		patch.Streak = models.Ptr(stats.Current)
		if logChanged {
			patch.ActivityLog = log
		}
	}
	if act != nil && act.XP > 0 {
		patch.XP = models.Ptr(base.XP + act.XP)
	}
	return patch, nil
}

// Record stores act as the newest history item. Older items from the same
// day with the same kind and title are replaced, and the history is capped
// at MaxHistory entries. Without a repository it does nothing.
func (r *StreakRules) Record(ctx context.Context, userID string, act models.Activity, now time.Time) error {
	if r.history == nil || userID == "" {
		return nil
	}

	item := models.HistoryItem{
		ID:         r.newID(),
		UserID:     userID,
		Kind:       act.Kind,
		Title:      act.Title,
		XP:         act.XP,
		ItemID:     act.ItemID,
		Score:      act.Score,
		TimeSpent:  act.TimeSpent,
		OccurredAt: now.UTC(),
	}

	existing, err := r.history.List(ctx, userID, historyBatch)
	if err != nil {
		return err
	}
	if err := r.history.Add(ctx, item); err != nil {
		return err
	}

	key := item.DedupKey(r.loc)
	for _, old := range existing {
		if old.DedupKey(r.loc) != key {
			continue
		}
		if err := r.history.Delete(ctx, old.ID); err != nil {
			return err
		}
		r.logger.Debug(ctx, "replaced duplicate history item", "id", old.ID, "key", key)
	}

	return r.history.Trim(ctx, userID, MaxHistory)
}
