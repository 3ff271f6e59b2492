// Package models holds the client-side domain types shared by the session
// engine, the backend client and local storage.
package models

import (
	"slices"
	"strings"
	"time"
)

// Profile is the canonical user record.
type Profile struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`

	CompletedItemIDs []string `json:"completed_item_ids"`
	UnlockedItemIDs  []string `json:"unlocked_item_ids"`
	LessonsCompleted int      `json:"lessons_completed"`
	XP               int64    `json:"xp"`

	Streak       int       `json:"streak"`
	ActivityLog  []string  `json:"activity_log,omitempty"`
	LastActiveAt time.Time `json:"last_active_at"`

	OnboardingCompleted bool `json:"onboarding_completed"`
}

// Clone returns a deep copy; a nil receiver yields nil.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.CompletedItemIDs = slices.Clone(p.CompletedItemIDs)
	c.UnlockedItemIDs = slices.Clone(p.UnlockedItemIDs)
	c.ActivityLog = slices.Clone(p.ActivityLog)
	return &c
}

// DisplayName prefers the composed first/last name, then Name, then Email.
func (p *Profile) DisplayName() string {
	if n := ComposeName(p.FirstName, p.LastName); n != "" {
		return n
	}
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// WithSeed returns p with seed present in UnlockedItemIDs.
func (p *Profile) WithSeed(seed string) *Profile {
	if p == nil || seed == "" || slices.Contains(p.UnlockedItemIDs, seed) {
		return p
	}
	c := p.Clone()
	c.UnlockedItemIDs = append([]string{seed}, c.UnlockedItemIDs...)
	return c
}

// ComposeName joins first and last name, trimming blanks.
func ComposeName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// NewProfileFromUser materializes a fresh profile for an account that has
// no stored record yet.
func NewProfileFromUser(u User, seed string) *Profile {
	first, last := splitName(u.Name)
	p := &Profile{
		UserID:           u.ID,
		FirstName:        first,
		LastName:         last,
		Name:             u.Name,
		Email:            u.Email,
		CompletedItemIDs: []string{},
		UnlockedItemIDs:  []string{},
	}
	if seed != "" {
		p.UnlockedItemIDs = []string{seed}
	}
	return p
}

func splitName(name string) (string, string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
