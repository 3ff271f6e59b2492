package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want []string
	}{
		{name: "both nil", want: []string{}},
		{name: "dedup within and across", a: []string{"a", "a", "b"}, b: []string{"b", "c"}, want: []string{"a", "b", "c"}},
		{name: "keeps first-seen order", a: []string{"z", "y"}, b: []string{"x", "z"}, want: []string{"z", "y", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Union(tt.a, tt.b))
		})
	}
}

func TestSameSet(t *testing.T) {
	assert.True(t, SameSet([]string{"a", "b"}, []string{"b", "a"}))
	assert.True(t, SameSet([]string{"a", "a"}, []string{"a"}))
	assert.True(t, SameSet(nil, []string{}))
	assert.False(t, SameSet([]string{"a"}, []string{"a", "b"}))
}

func TestProfilePatch_OverlayLaterWins(t *testing.T) {
	base := ProfilePatch{FirstName: Ptr("Al"), XP: Ptr(int64(10))}
	other := ProfilePatch{XP: Ptr(int64(20)), Streak: Ptr(3)}

	got := base.Overlay(other)
	require.NotNil(t, got.FirstName)
	assert.Equal(t, "Al", *got.FirstName)
	assert.Equal(t, int64(20), *got.XP)
	assert.Equal(t, 3, *got.Streak)
	assert.Equal(t, int64(10), *base.XP, "overlay must not mutate receiver fields")
}

func TestProfilePatch_ApplyToDoesNotAliasBase(t *testing.T) {
	when := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	base := &Profile{UserID: "u1", FirstName: "Al", CompletedItemIDs: []string{"a"}}
	patch := ProfilePatch{LastName: Ptr("Smith"), CompletedItemIDs: []string{"a", "b"}, LastActiveAt: &when}

	got := patch.ApplyTo(base)
	assert.Equal(t, "Al", got.FirstName)
	assert.Equal(t, "Smith", got.LastName)
	assert.Equal(t, []string{"a", "b"}, got.CompletedItemIDs)
	assert.Equal(t, when, got.LastActiveAt)

	got.CompletedItemIDs[0] = "mutated"
	assert.Equal(t, []string{"a"}, base.CompletedItemIDs)
}

func TestProfilePatch_IsEmpty(t *testing.T) {
	assert.True(t, ProfilePatch{}.IsEmpty())
	assert.False(t, ProfilePatch{UnlockedItemIDs: []string{}}.IsEmpty())
}

func TestProfile_CloneAndSeed(t *testing.T) {
	var nilProfile *Profile
	assert.Nil(t, nilProfile.Clone())

	p := &Profile{UserID: "u1", UnlockedItemIDs: []string{"x"}}
	seeded := p.WithSeed("c1")
	assert.Equal(t, []string{"c1", "x"}, seeded.UnlockedItemIDs)
	assert.Equal(t, []string{"x"}, p.UnlockedItemIDs)
	assert.Same(t, seeded, seeded.WithSeed("c1"))
}

func TestNewProfileFromUser(t *testing.T) {
	p := NewProfileFromUser(User{ID: "u1", Email: "ada@example.org", Name: "Ada King Lovelace"}, "c1")
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "King Lovelace", p.LastName)
	assert.Equal(t, []string{"c1"}, p.UnlockedItemIDs)
	assert.Empty(t, p.CompletedItemIDs)
	assert.False(t, p.OnboardingCompleted)
	assert.Equal(t, "Ada King Lovelace", p.DisplayName())
}

func TestHistoryItem_DedupKey(t *testing.T) {
	h := HistoryItem{Kind: ActivityLesson, Title: "Intro", OccurredAt: time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)}
	assert.Equal(t, "2026-10-18|lesson|Intro", h.DedupKey(time.UTC))
	assert.Equal(t, "2026-10-19|lesson|Intro", h.DedupKey(time.FixedZone("plus2", 2*3600)))
}
