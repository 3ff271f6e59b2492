package services

import (
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

// shadow is the part of a profile that decides whether an update is
// visible. Collections are kept sorted so reordering is not a change.
type shadow struct {
	userID              string
	firstName           string
	lastName            string
	name                string
	email               string
	onboardingCompleted bool
	lessonsCompleted    int
	xp                  int64
	streak              int
	lastActiveAt        time.Time
	completed           []string
	unlocked            []string
	activityLog         []string
}

func shadowOf(p *models.Profile) *shadow {
	if p == nil {
		return nil
	}
	return &shadow{
		userID:              p.UserID,
		firstName:           p.FirstName,
		lastName:            p.LastName,
		name:                p.Name,
		email:               p.Email,
		onboardingCompleted: p.OnboardingCompleted,
		lessonsCompleted:    p.LessonsCompleted,
		xp:                  p.XP,
		streak:              p.Streak,
		lastActiveAt:        p.LastActiveAt,
		completed:           models.SortedSet(p.CompletedItemIDs),
		unlocked:            models.SortedSet(p.UnlockedItemIDs),
		activityLog:         models.SortedSet(p.ActivityLog),
	}
}

func (s *shadow) equal(o *shadow) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.userID == o.userID &&
		s.firstName == o.firstName &&
		s.lastName == o.lastName &&
		s.name == o.name &&
		s.email == o.email &&
		s.onboardingCompleted == o.onboardingCompleted &&
		s.lessonsCompleted == o.lessonsCompleted &&
		s.xp == o.xp &&
		s.streak == o.streak &&
		s.lastActiveAt.Equal(o.lastActiveAt) &&
		slices.Equal(s.completed, o.completed) &&
		slices.Equal(s.unlocked, o.unlocked) &&
		slices.Equal(s.activityLog, o.activityLog)
}

// changeGuard holds the canonical profile. Apply calls are serialized and
// listeners run in apply order; a listener must not call Apply.
type changeGuard struct {
	applyMu sync.Mutex

	mu      sync.RWMutex
	profile *models.Profile
	shadow  *shadow
	subs    map[int]func(*models.Profile)
	nextID  int
}

func newChangeGuard() *changeGuard {
	return &changeGuard{subs: make(map[int]func(*models.Profile))}
}

// Apply replaces the profile with candidate and notifies listeners once,
// unless no compared field differs. It reports whether anything changed.
func (g *changeGuard) Apply(candidate *models.Profile) bool {
	g.applyMu.Lock()
	defer g.applyMu.Unlock()

	next := shadowOf(candidate)

	g.mu.Lock()
	if g.shadow.equal(next) {
		g.mu.Unlock()
		return false
	}
	g.profile = candidate.Clone()
	g.shadow = next
	snapshot := g.profile
	ids := make([]int, 0, len(g.subs))
	for id := range g.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]func(*models.Profile), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, g.subs[id])
	}
	g.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot.Clone())
	}
	return true
}

// Current returns a copy of the canonical profile.
func (g *changeGuard) Current() *models.Profile {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.profile.Clone()
}

func (g *changeGuard) Subscribe(fn func(*models.Profile)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.subs[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}
