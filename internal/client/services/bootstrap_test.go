package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/backup"
	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_RestoresBackupImmediately(t *testing.T) {
	b := newFakeBackend()
	b.sessionBlock = make(chan struct{})
	store := &fakeStore{profile: &models.Profile{UserID: "u1", FirstName: "Ada", UnlockedItemIDs: []string{"c1"}}}
	m := newTestManager(t, b, store, testOptions())

	m.Start(context.Background())

	p := m.Profile()
	require.NotNil(t, p)
	assert.Equal(t, "Ada", p.FirstName)
	assert.True(t, m.Initializing())
}

func TestStart_ResolvesSession(t *testing.T) {
	b := newFakeBackend()
	b.session = &models.Session{AccessToken: "A", User: models.User{ID: "u1", Email: "ada@example.com"}}
	b.profiles["u1"] = &models.Profile{UserID: "u1", FirstName: "Ada", CompletedItemIDs: []string{"a"}, UnlockedItemIDs: []string{"c1", "b"}}
	store := &fakeStore{}
	m := newTestManager(t, b, store, testOptions())

	m.Start(context.Background())
	waitClosed(t, m.Ready())

	p := m.Profile()
	require.NotNil(t, p)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, p, store.current())
	assert.False(t, m.Initializing())
}

func TestStart_MaterializesMissingProfile(t *testing.T) {
	b := newFakeBackend()
	b.session = &models.Session{User: models.User{ID: "u1", Email: "ada@example.com", Name: "Ada Lovelace"}}
	m := newTestManager(t, b, nil, testOptions())

	m.Start(context.Background())
	waitClosed(t, m.Ready())

	p := m.Profile()
	require.NotNil(t, p)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "Lovelace", p.LastName)
	assert.Equal(t, []string{"c1"}, p.UnlockedItemIDs)
	assert.False(t, p.OnboardingCompleted)
}

func TestStart_ZeroOptionsStillSeed(t *testing.T) {
	b := newFakeBackend()
	b.session = &models.Session{User: models.User{ID: "u1", Email: "ada@example.com", Name: "Ada"}}
	m := newTestManager(t, b, nil, Options{})

	m.Start(context.Background())
	waitClosed(t, m.Ready())

	p := m.Profile()
	require.NotNil(t, p)
	assert.Contains(t, p.UnlockedItemIDs, DefaultOptions().SeedItemID)

	_, err := m.UpdateProfile(context.Background(), models.ProfilePatch{UnlockedItemIDs: []string{"c2"}}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{DefaultOptions().SeedItemID, "c2"}, b.LastPatch.UnlockedItemIDs)
}

func TestStart_NoSessionClearsBackup(t *testing.T) {
	b := newFakeBackend()
	store := &fakeStore{profile: &models.Profile{UserID: "u1"}}
	m := newTestManager(t, b, store, testOptions())

	m.Start(context.Background())
	waitClosed(t, m.Ready())

	assert.Nil(t, m.Profile())
	assert.Nil(t, store.current())
}

func TestStart_LookupFailureMeansSignedOut(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *fakeBackend)
	}{
		{"session error", func(b *fakeBackend) { b.sessionErr = client.ErrUnavailable }},
		{"profile error", func(b *fakeBackend) {
			b.session = &models.Session{User: models.User{ID: "u1"}}
			b.findErr = errors.New("timeout")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			tt.setup(b)
			m := newTestManager(t, b, nil, testOptions())

			m.Start(context.Background())
			waitClosed(t, m.Ready())
			assert.Nil(t, m.Profile())
		})
	}
}

func TestStart_ErrorInURLSkipsLookup(t *testing.T) {
	b := newFakeBackend()
	b.session = &models.Session{User: models.User{ID: "u1"}}
	m := newTestManager(t, b, nil, testOptions(), WithCurrentURL("https://app.example/#error=access_denied&error_description=denied"))

	m.Start(context.Background())
	waitClosed(t, m.Ready())

	sessions, _, _ := b.counts()
	assert.Zero(t, sessions)
	assert.Nil(t, m.Profile())
}

func TestStart_RunsOnce(t *testing.T) {
	b := newFakeBackend()
	m := newTestManager(t, b, nil, testOptions())

	m.Start(context.Background())
	m.Start(context.Background())
	waitClosed(t, m.Ready())
	time.Sleep(30 * time.Millisecond)

	sessions, _, _ := b.counts()
	assert.Equal(t, 1, sessions)
	assert.Equal(t, 1, b.subscribers())
}

func TestStart_SafetyTimeoutClearsInitializing(t *testing.T) {
	b := newFakeBackend()
	b.sessionBlock = make(chan struct{})
	opts := testOptions()
	opts.SafetyTimeout = 80 * time.Millisecond
	m := newTestManager(t, b, nil, opts)

	start := time.Now()
	m.Start(context.Background())
	require.True(t, m.Initializing())

	waitClosed(t, m.Ready())
	assert.GreaterOrEqual(t, time.Since(start), opts.SafetyTimeout)
	assert.False(t, m.Initializing())
}

func TestStart_SplashGatesLoadingOnly(t *testing.T) {
	b := newFakeBackend()
	opts := testOptions()
	opts.SplashMinDuration = 150 * time.Millisecond
	m := newTestManager(t, b, nil, opts)

	m.Start(context.Background())
	waitClosed(t, m.Ready())
	assert.True(t, m.Loading(), "splash minimum not elapsed yet")

	waitClosed(t, m.SplashDone())
	assert.False(t, m.Loading())
}

func TestClose_StopsTimersAndUnsubscribes(t *testing.T) {
	b := newFakeBackend()
	opts := testOptions()
	opts.DeferredStart = 50 * time.Millisecond
	opts.SafetyTimeout = 60 * time.Millisecond
	m := newTestManager(t, b, nil, opts)

	m.Start(context.Background())
	m.Close()
	time.Sleep(120 * time.Millisecond)

	sessions, _, _ := b.counts()
	assert.Zero(t, sessions)
	assert.True(t, m.Initializing())
	assert.Zero(t, b.subscribers())

	m.Close()
	m.Start(context.Background())
	assert.Zero(t, b.subscribers())
}

func TestClose_CancelsPendingLookup(t *testing.T) {
	b := newFakeBackend()
	b.sessionBlock = make(chan struct{})
	m := newTestManager(t, b, nil, testOptions())

	m.Start(context.Background())
	require.Eventually(t, func() bool { s, _, _ := b.counts(); return s == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Close()
		close(done)
	}()
	waitClosed(t, done)
}

func TestSessionManager_BackupInSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := backup.NewSQLiteStore(db)

	b := newFakeBackend()
	b.session = &models.Session{User: models.User{ID: "u1"}}
	b.profiles["u1"] = &models.Profile{UserID: "u1", FirstName: "Ada", UnlockedItemIDs: []string{"c1"}}

	m := NewSessionManager(b, store, testOptions(), nil)
	m.Start(ctx)
	waitClosed(t, m.Ready())
	m.Close()

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Ada", saved.FirstName)

	// a second run paints from the backup before the backend answers
	b2 := newFakeBackend()
	b2.sessionBlock = make(chan struct{})
	m2 := NewSessionManager(b2, store, testOptions(), nil)
	t.Cleanup(m2.Close)
	m2.Start(ctx)
	require.NotNil(t, m2.Profile())
	assert.Equal(t, "Ada", m2.Profile().FirstName)
}
