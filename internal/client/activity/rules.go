// Package activity derives the progress side effects of a profile write:
// the daily activity log, the streak counter, XP and the local activity
// history.
package activity

import (
	"context"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

// Rules computes the fields a write adds on top of the caller's patch.
// act is nil when the write does not describe an activity.
type Rules interface {
	Derive(ctx context.Context, base models.Profile, act *models.Activity, now time.Time) (models.ProfilePatch, error)
}

// Recorder is implemented by rules that keep a durable trail of activities.
// Record runs only once the write carrying act has reached the backend.
type Recorder interface {
	Record(ctx context.Context, userID string, act models.Activity, now time.Time) error
}

// RulesFunc adapts a plain function to Rules.
type RulesFunc func(ctx context.Context, base models.Profile, act *models.Activity, now time.Time) (models.ProfilePatch, error)

func (f RulesFunc) Derive(ctx context.Context, base models.Profile, act *models.Activity, now time.Time) (models.ProfilePatch, error) {
	return f(ctx, base, act, now)
}

// NoRules derives nothing.
var NoRules Rules = RulesFunc(func(context.Context, models.Profile, *models.Activity, time.Time) (models.ProfilePatch, error) {
	return models.ProfilePatch{}, nil
})
