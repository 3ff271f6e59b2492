package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/backup"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

/*************
 * Fake backend
 *************/

type fakeBackend struct {
	mu sync.Mutex

	session      *models.Session
	sessionErr   error
	sessionBlock chan struct{}

	profiles   map[string]*models.Profile
	findErr    error
	updateErr  error
	updateGate chan struct{}

	signInUser *models.User
	signInErr  error
	signUpErr  error
	signOutErr error
	// signOutHang makes SignOut wait for its context.
	signOutHang bool

	subs   map[int]func(models.AuthEvent)
	nextID int

	LastPatch       models.ProfilePatch
	LastSignInEmail string
	LastSignUpName  string
	SessionCalls    int
	FindCalls       int
	UpdateCalls     int
	SignOutCalls    int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		profiles: map[string]*models.Profile{},
		subs:     map[int]func(models.AuthEvent){},
	}
}

func (f *fakeBackend) Close() error                   { return nil }
func (f *fakeBackend) Ping(ctx context.Context) error { return nil }

func (f *fakeBackend) GetSession(ctx context.Context) (*models.Session, error) {
	f.mu.Lock()
	f.SessionCalls++
	block := f.sessionBlock
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.sessionErr
}

func (f *fakeBackend) SignInWithPassword(ctx context.Context, email, password string) (*models.User, error) {
	f.mu.Lock()
	f.LastSignInEmail = email
	user, err := f.signInUser, f.signInErr
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	f.emit(models.AuthEvent{Type: models.AuthEventSignedIn, Session: &models.Session{AccessToken: "A", User: *user}})
	return user, nil
}

func (f *fakeBackend) SignUp(ctx context.Context, email, password, name string) (*models.PendingUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastSignUpName = name
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &models.PendingUser{ID: "pending", Email: email, Name: name}, nil
}

func (f *fakeBackend) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.SignOutCalls++
	hang, err := f.signOutHang, f.signOutErr
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeBackend) OnAuthStateChange(cb func(models.AuthEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = cb
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeBackend) emit(ev models.AuthEvent) {
	f.mu.Lock()
	subs := make([]func(models.AuthEvent), 0, len(f.subs))
	for _, cb := range f.subs {
		subs = append(subs, cb)
	}
	f.mu.Unlock()
	for _, cb := range subs {
		cb(ev)
	}
}

func (f *fakeBackend) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeBackend) FindOne(ctx context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FindCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.profiles[userID].Clone(), nil
}

func (f *fakeBackend) UpdateOne(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	f.mu.Lock()
	f.UpdateCalls++
	f.LastPatch = patch
	gate := f.updateGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p := patch.ApplyTo(f.profiles[userID])
	p.UserID = userID
	p.LessonsCompleted = len(p.CompletedItemIDs)
	f.profiles[userID] = p
	return p.Clone(), nil
}

func (f *fakeBackend) ListGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	return nil, nil
}

func (f *fakeBackend) ListBadges(ctx context.Context, userID string) ([]models.Badge, error) {
	return nil, nil
}

func (f *fakeBackend) ListHistory(ctx context.Context, userID string) ([]models.HistoryItem, error) {
	return nil, nil
}

func (f *fakeBackend) counts() (session, find, update int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SessionCalls, f.FindCalls, f.UpdateCalls
}

/*************
 * Fake backup store
 *************/

type fakeStore struct {
	mu      sync.Mutex
	profile *models.Profile

	LastSaved *models.Profile
	Saves     int
	Removes   int
	Wipes     int
}

func (s *fakeStore) Load(ctx context.Context) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone(), nil
}

func (s *fakeStore) Save(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p.Clone()
	s.LastSaved = p.Clone()
	s.Saves++
	return nil
}

func (s *fakeStore) Remove(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = nil
	s.Removes++
	return nil
}

func (s *fakeStore) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = nil
	s.Wipes++
	return nil
}

func (s *fakeStore) current() *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

/*************
 * Helpers
 *************/

func testOptions() Options {
	return Options{
		SeedItemID:        "c1",
		SplashMinDuration: 10 * time.Millisecond,
		DeferredStart:     0,
		SafetyTimeout:     time.Second,
		SignOutTimeout:    100 * time.Millisecond,
	}
}

func newTestManager(t *testing.T, backend *fakeBackend, store *fakeStore, opts Options, options ...Option) *SessionManager {
	t.Helper()
	var bs backup.Store
	if store != nil {
		bs = store
	}
	m := NewSessionManager(backend, bs, opts, nil, options...)
	t.Cleanup(m.Close)
	return m
}

// seedProfile publishes p as if it had been loaded.
func seedProfile(m *SessionManager, p *models.Profile) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.publish(p)
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed in time")
	}
}
