package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/profilesync/internal/client/loader"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7DCFFF"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9AA5CE")).Width(12)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#565F89"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0AF68"))
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#414868")).
			Padding(0, 1)
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func renderProfile(p *models.Profile) string {
	if p == nil {
		return mutedStyle.Render("not signed in")
	}

	onboarding := "pending"
	if p.OnboardingCompleted {
		onboarding = "done"
	}
	lastActive := "never"
	if !p.LastActiveAt.IsZero() {
		lastActive = p.LastActiveAt.Local().Format(time.DateTime)
	}

	lines := []string{
		titleStyle.Render(p.DisplayName()),
		row("Email", p.Email),
		row("XP", fmt.Sprintf("%d", p.XP)),
		row("Streak", fmt.Sprintf("%d day(s)", p.Streak)),
		row("Lessons", fmt.Sprintf("%d", p.LessonsCompleted)),
		row("Completed", joinOrDash(p.CompletedItemIDs)),
		row("Unlocked", joinOrDash(p.UnlockedItemIDs)),
		row("Onboarding", onboarding),
		row("Last active", lastActive),
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func renderDashboard(d loader.Dashboard) string {
	var b strings.Builder

	b.WriteString(section("Goals", d.Goals.Status, len(d.Goals.Data)))
	for _, g := range d.Goals.Data {
		fmt.Fprintf(&b, "  %s %d/%d\n", g.Title, g.Progress, g.Target)
	}

	b.WriteString(section("Badges", d.Badges.Status, len(d.Badges.Data)))
	for _, bd := range d.Badges.Data {
		fmt.Fprintf(&b, "  %s\n", bd.Title)
	}

	b.WriteString(section("History", d.History.Status, len(d.History.Data)))
	for _, h := range d.History.Data {
		fmt.Fprintf(&b, "  %s  %-9s %s (+%d xp)\n", h.OccurredAt.Local().Format(time.DateOnly), h.Kind, h.Title, h.XP)
	}

	return strings.TrimRight(b.String(), "\n")
}

func section(title string, status loader.Status, n int) string {
	head := titleStyle.Render(title)
	switch {
	case status == loader.StatusFallback:
		head += " " + warningStyle.Render("(offline copy)")
	case n == 0:
		head += " " + mutedStyle.Render("(none)")
	}
	return head + "\n"
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}
