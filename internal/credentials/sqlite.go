package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/grantshandy/starify/internal/models"
	"github.com/grantshandy/starify/internal/shared"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore persists credentials in an embedded SQLite database so sessions survive restarts.
type SQLiteStore struct {
	db    *sql.DB
	codec *codec
	now   func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path and applies migrations.
//
// key seals payloads when non-empty; see [newCodec].
func NewSQLiteStore(ctx context.Context, path string, key []byte) (*SQLiteStore, error) {
	c, err := newCodec(key)
	if err != nil {
		return nil, err
	}

	db, err := shared.NewDatabase(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCacheUnavailable, err)
	}

	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", shared.ErrCacheUnavailable, err)
	}

	return &SQLiteStore{db: db, codec: c, now: time.Now}, nil
}

// Get loads and decodes the credential for userID.
func (s *SQLiteStore) Get(ctx context.Context, userID string) (*models.Credential, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM credentials WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query credential: %v", shared.ErrCacheUnavailable, err)
	}

	var cred models.Credential
	if err := s.codec.unmarshal(userID, payload, &cred); err != nil {
		return nil, err
	}
	if cred.UserID != userID {
		return nil, fmt.Errorf("%w: row %s holds credential for %q", shared.ErrCacheCorrupt, userID, cred.UserID)
	}

	return &cred, nil
}

// Put upserts cred keyed by its user id.
func (s *SQLiteStore) Put(ctx context.Context, cred models.Credential) error {
	if cred.UserID == "" {
		return fmt.Errorf("%w: credential without user id", shared.ErrInvalidArgument)
	}

	payload, err := s.codec.marshal(cred.UserID, cred.Clone())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO credentials (user_id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, cred.UserID, payload, s.now().UTC()); err != nil {
		return fmt.Errorf("%w: failed to store credential: %v", shared.ErrCacheUnavailable, err)
	}

	return nil
}

// Remove deletes the credential and cached profile for userID in one transaction.
func (s *SQLiteStore) Remove(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrCacheUnavailable, err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM credentials WHERE user_id = ?`,
		`DELETE FROM profiles WHERE user_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, userID); err != nil {
			return fmt.Errorf("%w: failed to remove credential: %v", shared.ErrCacheUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit removal: %v", shared.ErrCacheUnavailable, err)
	}
	return nil
}

// List decodes every stored credential. A single undecodable row fails the whole listing.
func (s *SQLiteStore) List(ctx context.Context) ([]models.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, payload FROM credentials ORDER BY user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query credentials: %v", shared.ErrCacheUnavailable, err)
	}
	defer rows.Close()

	var out []models.Credential
	for rows.Next() {
		var (
			userID  string
			payload []byte
		)
		if err := rows.Scan(&userID, &payload); err != nil {
			return nil, fmt.Errorf("%w: failed to scan credential: %v", shared.ErrCacheUnavailable, err)
		}

		var cred models.Credential
		if err := s.codec.unmarshal(userID, payload, &cred); err != nil {
			return nil, err
		}
		out = append(out, cred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrCacheUnavailable, err)
	}

	return out, nil
}

// Profile loads the cached profile for userID.
func (s *SQLiteStore) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM profiles WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: profile %s", shared.ErrCredentialNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query profile: %v", shared.ErrCacheUnavailable, err)
	}

	var p models.Profile
	if err := s.codec.unmarshal(userID, payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PutProfile upserts the cached profile for userID.
func (s *SQLiteStore) PutProfile(ctx context.Context, userID string, profile models.Profile) error {
	profile.FetchedAt = profile.FetchedAt.UTC()
	payload, err := s.codec.marshal(userID, profile)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO profiles (user_id, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
	`
	if _, err := s.db.ExecContext(ctx, query, userID, payload, profile.FetchedAt); err != nil {
		return fmt.Errorf("%w: failed to store profile: %v", shared.ErrCacheUnavailable, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
