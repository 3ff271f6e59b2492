// Package backup is the durable local copy of the signed-in state: the last
// known profile snapshot and the backend session. Both live in named
// metadata slots so they survive restarts.
package backup

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/repositories/history"
	"github.com/dmitrijs2005/profilesync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/profilesync/internal/dbx"
	"github.com/jmoiron/sqlx"
)

const (
	ProfileKey = "profile_backup"
	SessionKey = "session"
)

// Store holds the profile snapshot slot.
type Store interface {
	Load(ctx context.Context) (*models.Profile, error)
	Save(ctx context.Context, p *models.Profile) error
	Remove(ctx context.Context) error
	// Wipe deletes every piece of local durable state: slots and history.
	Wipe(ctx context.Context) error
}

// SQLiteStore implements Store and the backend client's SessionStore on
// top of the metadata table.
type SQLiteStore struct {
	db       *sqlx.DB
	metadata metadata.Repository
}

func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db, metadata: metadata.NewSQLiteRepository(db)}
}

// Load returns the stored snapshot, or nil when the slot is empty.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	ok, err := s.read(ctx, ProfileKey, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// Save overwrites the snapshot; a nil profile empties the slot.
func (s *SQLiteStore) Save(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return s.Remove(ctx)
	}
	return s.write(ctx, ProfileKey, p)
}

func (s *SQLiteStore) Remove(ctx context.Context) error {
	return s.metadata.Delete(ctx, ProfileKey)
}

func (s *SQLiteStore) Wipe(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := metadata.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return history.NewSQLiteRepository(tx).Clear(ctx)
	})
}

func (s *SQLiteStore) LoadSession(ctx context.Context) (*models.Session, error) {
	var sess models.Session
	ok, err := s.read(ctx, SessionKey, &sess)
	if err != nil || !ok {
		return nil, err
	}
	return &sess, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess *models.Session) error {
	if sess == nil {
		return s.ClearSession(ctx)
	}
	return s.write(ctx, SessionKey, sess)
}

func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	return s.metadata.Delete(ctx, SessionKey)
}

func (s *SQLiteStore) read(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.metadata.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) write(ctx context.Context, key string, v any) error {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.metadata.Set(ctx, key, raw)
}
