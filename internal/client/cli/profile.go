package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/services"
)

func (a *App) ShowProfile(ctx context.Context) error {
	p := a.session.Profile()
	if p == nil {
		return services.ErrNoAuthenticatedUser
	}
	printlnFn(renderProfile(p))
	return nil
}

// Complete marks an item completed and records it as a lesson activity.
//
//	complete <itemId> [xp] [title...]
func (a *App) Complete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("complete <itemId> [xp] [title...]")
	}
	itemID := args[0]
	rest := args[1:]

	var xp int64
	if len(rest) > 0 {
		if v, err := strconv.ParseInt(rest[0], 10, 64); err == nil {
			xp = v
			rest = rest[1:]
		}
	}

	title := strings.Join(rest, " ")
	if title == "" {
		title = itemID
	}

	patch := models.ProfilePatch{CompletedItemIDs: []string{itemID}}
	act := &models.Activity{
		Kind:   models.ActivityLesson,
		Title:  title,
		XP:     xp,
		ItemID: itemID,
	}
	return a.update(ctx, patch, act)
}

func (a *App) Unlock(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("unlock <itemId>")
	}
	return a.update(ctx, models.ProfilePatch{UnlockedItemIDs: []string{args[0]}}, nil)
}

// Rename sets the display name; a missing last name clears it.
func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("name <first> [last]")
	}
	first := args[0]
	last := strings.Join(args[1:], " ")
	return a.update(ctx, models.ProfilePatch{FirstName: &first, LastName: &last}, nil)
}

func (a *App) Onboard(ctx context.Context) error {
	done := true
	return a.update(ctx, models.ProfilePatch{OnboardingCompleted: &done}, nil)
}

func (a *App) Refresh(ctx context.Context) error {
	p, err := a.session.RefreshProfile(ctx)
	if err != nil {
		return err
	}
	printlnFn(renderProfile(p))
	return nil
}

func (a *App) Dashboard(ctx context.Context) error {
	p := a.session.Profile()
	if p == nil {
		return services.ErrNoAuthenticatedUser
	}
	d, err := a.dashboard.Load(ctx, p.UserID)
	if err != nil {
		return err
	}
	printlnFn(renderDashboard(d))
	return nil
}

func (a *App) update(ctx context.Context, patch models.ProfilePatch, act *models.Activity) error {
	p, err := a.session.UpdateProfile(ctx, patch, act)
	if err != nil {
		return err
	}
	printlnFn(renderProfile(p))
	return nil
}
