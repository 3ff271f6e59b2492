package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/common"
)

// Register prompts for email, display name and password and creates an
// account. Nothing is signed in until the account is confirmed.
func (a *App) Register(ctx context.Context) error {
	email, err := readText(a.reader, a.out, "Email")
	if err != nil {
		return err
	}
	name, err := readText(a.reader, a.out, "Display name")
	if err != nil {
		return err
	}

	password, err := readSecret(a.reader, a.out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	pending, err := a.session.SignUp(ctx, email, string(password), name)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Account created for %s. Confirm it, then log in.", pending.Email))
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	email, err := readText(a.reader, a.out, "Email")
	if err != nil {
		return err
	}

	password, err := readSecret(a.reader, a.out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.session.SignIn(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return err
	}

	a.setMode(ModeOnline)
	printlnFn(fmt.Sprintf("Welcome, %s!", p.DisplayName()))
	return nil
}

// Logout signs out and wipes the local profile backup.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	printlnFn("Logged out")
	return nil
}
