package client

import (
	"context"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

// Client is the backend collaborator: identity provider plus profile store.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	// GetSession returns the current session, refreshing it when the access
	// token has expired. (nil, nil) means nobody is signed in.
	GetSession(ctx context.Context) (*models.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.User, error)
	SignUp(ctx context.Context, email, password, name string) (*models.PendingUser, error)
	SignOut(ctx context.Context) error
	// OnAuthStateChange registers cb for session changes and returns a
	// function that removes it.
	OnAuthStateChange(cb func(models.AuthEvent)) (unsubscribe func())

	// FindOne returns (nil, nil) when the user has no profile record.
	FindOne(ctx context.Context, userID string) (*models.Profile, error)
	UpdateOne(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error)

	ListGoals(ctx context.Context, userID string) ([]models.Goal, error)
	ListBadges(ctx context.Context, userID string) ([]models.Badge, error)
	ListHistory(ctx context.Context, userID string) ([]models.HistoryItem, error)
}

// SessionStore persists the backend session between runs.
type SessionStore interface {
	LoadSession(ctx context.Context) (*models.Session, error)
	SaveSession(ctx context.Context, s *models.Session) error
	ClearSession(ctx context.Context) error
}
