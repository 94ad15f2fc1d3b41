package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tallyho/internal/shared"
)

var _ SessionStore = (*SessionRepository)(nil)

// SessionRepository implements [SessionStore] on the sessions table.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Save stores token for userID until expiresAt, replacing any previous value for the token.
func (r *SessionRepository) Save(ctx context.Context, token, userID string, expiresAt time.Time) error {
	query := `
		INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET user_id = excluded.user_id, expires_at = excluded.expires_at
	`

	if _, err := r.db.ExecContext(ctx, query, token, userID, r.now().UTC(), expiresAt.UTC()); err != nil {
		return fmt.Errorf("%w: failed to save session: %v", shared.ErrPersistence, err)
	}
	return nil
}

// Load returns the user id stored for token when it has not expired.
func (r *SessionRepository) Load(ctx context.Context, token string) (string, error) {
	var (
		userID    string
		expiresAt time.Time
	)

	err := r.db.QueryRowContext(ctx, `SELECT user_id, expires_at FROM sessions WHERE token = ?`, token).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", shared.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to query session: %v", shared.ErrPersistence, err)
	}

	if !expiresAt.After(r.now()) {
		return "", fmt.Errorf("%w: expired", shared.ErrSessionNotFound)
	}

	return userID, nil
}

// Delete removes token. Deleting an unknown token is not an error.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("%w: failed to delete session: %v", shared.ErrPersistence, err)
	}
	return nil
}

// PurgeExpired deletes every expired session and returns how many were removed.
func (r *SessionRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: failed to purge sessions: %v", shared.ErrPersistence, err)
	}
	return result.RowsAffected()
}
