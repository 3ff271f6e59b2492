package cli

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/loader"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/stretchr/testify/assert"
)

func TestRenderProfile(t *testing.T) {
	assert.Contains(t, renderProfile(nil), "not signed in")

	p := &models.Profile{
		FirstName:           "Ada",
		LastName:            "Lovelace",
		Email:               "ada@example.org",
		XP:                  120,
		Streak:              4,
		CompletedItemIDs:    []string{"c1", "c2"},
		OnboardingCompleted: true,
		LastActiveAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local),
	}
	out := renderProfile(p)

	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "120")
	assert.Contains(t, out, "4 day(s)")
	assert.Contains(t, out, "c1, c2")
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "2026-03-01")
}

func TestRenderProfile_Empty(t *testing.T) {
	out := renderProfile(&models.Profile{Email: "x@example.org"})
	assert.Contains(t, out, "x@example.org")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "pending")
}

func TestRenderDashboard(t *testing.T) {
	out := renderDashboard(loader.Dashboard{
		Goals:   loader.State[[]models.Goal]{Status: loader.StatusLoaded},
		Badges:  loader.State[[]models.Badge]{Status: loader.StatusLoaded, Data: []models.Badge{{Title: "Early bird"}}},
		History: loader.State[[]models.HistoryItem]{Status: loader.StatusFallback},
	})

	assert.Contains(t, out, "Goals")
	assert.Contains(t, out, "(none)")
	assert.Contains(t, out, "Early bird")
	assert.Contains(t, out, "(offline copy)")
}
