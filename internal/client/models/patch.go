package models

import (
	"slices"
	"time"
)

// ProfilePatch is a partial profile update. Nil pointers and nil slices
// mean "not set"; set fields overwrite, except the item id collections
// which the merge engine unions with the base profile.
type ProfilePatch struct {
	FirstName           *string    `json:"first_name,omitempty" validate:"omitempty,max=64"`
	LastName            *string    `json:"last_name,omitempty" validate:"omitempty,max=64"`
	OnboardingCompleted *bool      `json:"onboarding_completed,omitempty"`
	XP                  *int64     `json:"xp,omitempty" validate:"omitempty,min=0"`
	Streak              *int       `json:"streak,omitempty" validate:"omitempty,min=0"`
	LastActiveAt        *time.Time `json:"last_active_at,omitempty"`
	ActivityLog         []string   `json:"activity_log,omitempty" validate:"omitempty,dive,datetime=2006-01-02"`
	CompletedItemIDs    []string   `json:"completed_item_ids,omitempty" validate:"omitempty,dive,required"`
	UnlockedItemIDs     []string   `json:"unlocked_item_ids,omitempty" validate:"omitempty,dive,required"`
}

// IsEmpty reports whether no field is set.
func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.OnboardingCompleted == nil &&
		p.XP == nil && p.Streak == nil && p.LastActiveAt == nil &&
		p.ActivityLog == nil && p.CompletedItemIDs == nil && p.UnlockedItemIDs == nil
}

// Overlay returns p with every field set in other taking precedence.
func (p ProfilePatch) Overlay(other ProfilePatch) ProfilePatch {
	out := p
	if other.FirstName != nil {
		out.FirstName = other.FirstName
	}
	if other.LastName != nil {
		out.LastName = other.LastName
	}
	if other.OnboardingCompleted != nil {
		out.OnboardingCompleted = other.OnboardingCompleted
	}
	if other.XP != nil {
		out.XP = other.XP
	}
	if other.Streak != nil {
		out.Streak = other.Streak
	}
	if other.LastActiveAt != nil {
		out.LastActiveAt = other.LastActiveAt
	}
	if other.ActivityLog != nil {
		out.ActivityLog = other.ActivityLog
	}
	if other.CompletedItemIDs != nil {
		out.CompletedItemIDs = other.CompletedItemIDs
	}
	if other.UnlockedItemIDs != nil {
		out.UnlockedItemIDs = other.UnlockedItemIDs
	}
	return out
}

// ApplyTo returns a copy of base with the set fields replaced. Derived
// fields (Name, LessonsCompleted) are left to the caller.
func (p ProfilePatch) ApplyTo(base *Profile) *Profile {
	out := base.Clone()
	if out == nil {
		out = &Profile{}
	}
	if p.FirstName != nil {
		out.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		out.LastName = *p.LastName
	}
	if p.OnboardingCompleted != nil {
		out.OnboardingCompleted = *p.OnboardingCompleted
	}
	if p.XP != nil {
		out.XP = *p.XP
	}
	if p.Streak != nil {
		out.Streak = *p.Streak
	}
	if p.LastActiveAt != nil {
		out.LastActiveAt = *p.LastActiveAt
	}
	if p.ActivityLog != nil {
		out.ActivityLog = slices.Clone(p.ActivityLog)
	}
	if p.CompletedItemIDs != nil {
		out.CompletedItemIDs = slices.Clone(p.CompletedItemIDs)
	}
	if p.UnlockedItemIDs != nil {
		out.UnlockedItemIDs = slices.Clone(p.UnlockedItemIDs)
	}
	return out
}

// Ptr is a helper for building patches: models.Ptr("Ada").
func Ptr[T any](v T) *T {
	return &v
}
