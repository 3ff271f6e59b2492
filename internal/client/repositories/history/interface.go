// Package history keeps the per-user activity history in the local SQLite
// database, newest first.
package history

import (
	"context"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

type Repository interface {
	// List returns up to limit items for userID, newest first. A limit of
	// zero or less means no limit.
	List(ctx context.Context, userID string, limit int) ([]models.HistoryItem, error)
	Add(ctx context.Context, item models.HistoryItem) error
	Delete(ctx context.Context, id string) error
	// Trim keeps the keep newest items of userID and deletes the rest.
	Trim(ctx context.Context, userID string, keep int) error
	Clear(ctx context.Context) error
}
