package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/profilesync/internal/client/loader"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/logging"
)

type fakeSession struct {
	mu      sync.Mutex
	profile *models.Profile
	ready   chan struct{}
	splash  chan struct{}

	signInErr  error
	signUpErr  error
	signOutErr error
	updateErr  error
	refreshErr error

	LastEmail    string
	LastPassword string
	LastName     string
	LastPatch    *models.ProfilePatch
	LastActivity *models.Activity
	Started      bool
	Closed       bool
	SignedOut    bool
	Refreshed    bool
}

func newFakeSession(p *models.Profile) *fakeSession {
	ready, splash := make(chan struct{}), make(chan struct{})
	close(ready)
	close(splash)
	return &fakeSession{profile: p, ready: ready, splash: splash}
}

func (f *fakeSession) Start(ctx context.Context) { f.Started = true }
func (f *fakeSession) Close()                    { f.Closed = true }
func (f *fakeSession) Ready() <-chan struct{}    { return f.ready }
func (f *fakeSession) SplashDone() <-chan struct{} {
	return f.splash
}

func (f *fakeSession) Profile() *models.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile.Clone()
}

func (f *fakeSession) SignIn(ctx context.Context, email, password string) (*models.Profile, error) {
	f.LastEmail, f.LastPassword = email, password
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = &models.Profile{UserID: "u1", Email: email, FirstName: "Ada"}
	return f.profile.Clone(), nil
}

func (f *fakeSession) SignUp(ctx context.Context, email, password, name string) (*models.PendingUser, error) {
	f.LastEmail, f.LastPassword, f.LastName = email, password, name
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &models.PendingUser{ID: "p1", Email: email, Name: name}, nil
}

func (f *fakeSession) SignOut(ctx context.Context) error {
	f.SignedOut = true
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = nil
	return nil
}

func (f *fakeSession) UpdateProfile(ctx context.Context, patch models.ProfilePatch, act *models.Activity) (*models.Profile, error) {
	f.LastPatch, f.LastActivity = &patch, act
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = patch.ApplyTo(f.profile)
	return f.profile.Clone(), nil
}

func (f *fakeSession) RefreshProfile(ctx context.Context) (*models.Profile, error) {
	f.Refreshed = true
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.Profile(), nil
}

type fakeDashboard struct {
	out        loader.Dashboard
	err        error
	LastUserID string
	Closed     bool
}

func (d *fakeDashboard) Load(ctx context.Context, userID string) (loader.Dashboard, error) {
	d.LastUserID = userID
	return d.out, d.err
}

func (d *fakeDashboard) Close() { d.Closed = true }

type fakePinger struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func (p *fakePinger) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func newTestApp(s *fakeSession, d *fakeDashboard, logger logging.Logger) *App {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &App{
		logger:    logger,
		session:   s,
		dashboard: d,
		backend:   &fakePinger{},
		reader:    bufio.NewReader(strings.NewReader("")),
		out:       io.Discard,
	}
}

// captureOutput swaps printlnFn for a buffer for the duration of the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		for i, v := range a {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString(toString(v))
		}
		buf.WriteString("\n")
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &buf
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if e, ok := v.(error); ok {
		return e.Error()
	}
	return ""
}

// stubInputs answers text prompts in order and returns password for every
// password prompt.
func stubInputs(t *testing.T, password []byte, answers ...string) {
	t.Helper()
	origText, origSecret := readText, readSecret
	readText = func(*bufio.Reader, io.Writer, string) (string, error) {
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	readSecret = func(*bufio.Reader, io.Writer, string) ([]byte, error) {
		return append([]byte(nil), password...), nil
	}
	t.Cleanup(func() {
		readText = origText
		readSecret = origSecret
	})
}
