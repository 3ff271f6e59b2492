package services

import (
	"context"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/common"
)

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Name     string `validate:"omitempty,max=100"`
}

// SignIn authenticates with email and password and publishes the user's
// profile. A missing record is materialized from the account.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (*models.Profile, error) {
	creds := credentials{Email: common.SanitizeEmail(email), Password: password}
	if err := m.validateStruct(creds, "credentials"); err != nil {
		return nil, err
	}

	user, err := m.backend.SignInWithPassword(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, crerr.Wrap(err, "sign in")
	}
	if user == nil {
		return nil, crerr.New("sign in: backend returned no user")
	}

	fetched, err := m.backend.FindOne(ctx, user.ID)
	if err != nil {
		m.logger.Warn(ctx, "profile fetch after sign-in failed", "user_id", user.ID, "error", err)
		fetched = nil
	}

	m.writeMu.Lock()
	cur := m.guard.Current()
	next := fetched
	if next == nil {
		if cur != nil && cur.UserID == user.ID {
			next = cur
		} else {
			next = models.NewProfileFromUser(*user, m.opts.SeedItemID)
		}
	}
	if cur == nil || cur.UserID != next.UserID {
		m.writeSeq.Add(1)
	}
	m.publish(preserveNames(cur, next))
	m.writeMu.Unlock()

	m.finishInitializing()
	m.logger.Info(ctx, "signed in", "user_id", user.ID)
	return m.Profile(), nil
}

// SignUp registers a new account. The session does not change until the
// backend confirms the account and pushes a sign-in.
func (m *SessionManager) SignUp(ctx context.Context, email, password, name string) (*models.PendingUser, error) {
	creds := credentials{
		Email:    common.SanitizeEmail(email),
		Password: password,
		Name:     strings.TrimSpace(name),
	}
	if err := m.validateStruct(creds, "credentials"); err != nil {
		return nil, err
	}

	pending, err := m.backend.SignUp(ctx, creds.Email, creds.Password, creds.Name)
	if err != nil {
		return nil, crerr.Wrap(err, "sign up")
	}
	return pending, nil
}

// SignOut gives the backend SignOutTimeout to end the session, then clears
// the profile and all local durable state whatever the outcome.
func (m *SessionManager) SignOut(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, m.opts.SignOutTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.backend.SignOut(callCtx) }()

	select {
	case err := <-done:
		if err != nil {
			m.logger.Warn(ctx, "backend sign-out failed", "error", err)
		}
	case <-callCtx.Done():
		m.logger.Warn(ctx, "backend sign-out timed out", "after", m.opts.SignOutTimeout)
	}

	m.writeMu.Lock()
	m.writeSeq.Add(1)
	m.publish(nil)
	m.writeMu.Unlock()

	var err error
	if m.store != nil {
		if werr := m.store.Wipe(context.WithoutCancel(ctx)); werr != nil {
			err = crerr.Wrap(werr, "wipe local state")
		}
	}

	m.finishInitializing()
	m.logger.Info(ctx, "signed out")
	return err
}

func (m *SessionManager) validateStruct(v any, what string) error {
	if err := m.validate.Struct(v); err != nil {
		return crerr.Mark(crerr.Wrapf(err, "invalid %s", what), ErrInvalidInput)
	}
	return nil
}
