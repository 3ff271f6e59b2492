package history

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `id, user_id, kind, title, xp, item_id, score, time_spent, occurred_at`

func (r *SQLiteRepository) List(ctx context.Context, userID string, limit int) ([]models.HistoryItem, error) {
	if limit <= 0 {
		limit = -1
	}

	items := []models.HistoryItem{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT `+selectColumns+`
		FROM activity_history
		WHERE user_id = ?
		ORDER BY occurred_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history[%s]: %w", userID, err)
	}
	return items, nil
}

func (r *SQLiteRepository) Add(ctx context.Context, item models.HistoryItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_history (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.UserID, string(item.Kind), item.Title, item.XP, item.ItemID, item.Score, item.TimeSpent, item.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to add history[%s]: %w", item.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activity_history WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete history[%s]: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Trim(ctx context.Context, userID string, keep int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM activity_history
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM activity_history
			WHERE user_id = ?
			ORDER BY occurred_at DESC, rowid DESC
			LIMIT ?
		)
	`, userID, userID, keep)
	if err != nil {
		return fmt.Errorf("failed to trim history[%s]: %w", userID, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activity_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
