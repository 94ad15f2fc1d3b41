package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/shared"
)

const userColumns = `id, sequence, username, password_hash, google_id, facebook_id, display_name, items, created_at, updated_at, deleted_at`

var _ models.Repository[*models.User] = (*UserRepository)(nil)

// UserRepository implements [models.Repository] for user [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database with generated ID and sequence.
//
// Returns [shared.ErrDuplicateUser] when the username or provider id is already taken.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(ctx, r.db, "users")
	if err != nil {
		return fmt.Errorf("%w: failed to generate sequence: %v", shared.ErrPersistence, err)
	}

	items, err := json.Marshal(user.Items())
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO users (id, sequence, username, password_hash, google_id, facebook_id, display_name, items, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id, sequence,
		nullable(user.Username()), nullable(user.PasswordHash()),
		nullable(user.GoogleID()), nullable(user.FacebookID()),
		user.DisplayName(), string(items),
		user.CreatedAt(), user.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", shared.ErrDuplicateUser, user.Name())
		}
		return fmt.Errorf("%w: failed to insert user: %v", shared.ErrPersistence, err)
	}

	user.SetID(id)
	user.SetSequence(sequence)
	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	return r.getWhere(ctx, "id = ?", id)
}

// GetByUsername retrieves a local account by its username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getWhere(ctx, "username = ?", username)
}

// GetByProviderID retrieves the account holding externalID for provider.
func (r *UserRepository) GetByProviderID(ctx context.Context, provider models.Provider, externalID string) (*models.User, error) {
	if provider == models.ProviderLocal {
		return nil, fmt.Errorf("%w: local accounts have no provider id", shared.ErrInvalidArgument)
	}
	return r.getWhere(ctx, provider.Column()+" = ?", externalID)
}

func (r *UserRepository) getWhere(ctx context.Context, cond string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + cond + ` AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", shared.ErrUserNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query user: %v", shared.ErrPersistence, err)
	}
	return user, nil
}

// Update writes the identity fields of an existing user.
//
// Items are not written here; use [UserRepository.AppendItem], [UserRepository.PullItem]
// and [UserRepository.SeedIfEmpty] so that concurrent list edits are not lost.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE users
		SET username = ?, password_hash = ?, google_id = ?, facebook_id = ?, display_name = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		nullable(user.Username()), nullable(user.PasswordHash()),
		nullable(user.GoogleID()), nullable(user.FacebookID()),
		user.DisplayName(), now, user.ID(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", shared.ErrDuplicateUser, user.Name())
		}
		return fmt.Errorf("%w: failed to update user: %v", shared.ErrPersistence, err)
	}

	if err := expectRow(result, user.ID()); err != nil {
		return err
	}

	user.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete user: %v", shared.ErrPersistence, err)
	}

	return expectRow(result, id)
}

// List retrieves all users matching the given criteria, excluding soft-deleted users.
//
// Supported criteria: "username" (string) and "provider" ([models.Provider]).
func (r *UserRepository) List(ctx context.Context, criteria map[string]any) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	args := []any{}

	if username, ok := criteria["username"].(string); ok && username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}

	if provider, ok := criteria["provider"].(models.Provider); ok {
		switch provider {
		case models.ProviderLocal:
			query += " AND username IS NOT NULL"
		default:
			query += " AND " + provider.Column() + " IS NOT NULL"
		}
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query users: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan user: %v", shared.ErrPersistence, err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrPersistence, err)
	}

	return users, nil
}

// Items returns the stored items of the user in insertion order.
func (r *UserRepository) Items(ctx context.Context, id string) ([]string, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT items FROM users WHERE id = ? AND deleted_at IS NULL`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query items: %v", shared.ErrPersistence, err)
	}
	return decodeItems(raw)
}

// AppendItem appends one item to the end of the user's list.
func (r *UserRepository) AppendItem(ctx context.Context, id, item string) error {
	query := `
		UPDATE users
		SET items = json_insert(items, '$[#]', ?), updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, item, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: failed to append item: %v", shared.ErrPersistence, err)
	}
	return expectRow(result, id)
}

// PullItem removes every item exactly equal to item, keeping the order of the rest.
func (r *UserRepository) PullItem(ctx context.Context, id, item string) error {
	query := `
		UPDATE users
		SET items = (
			SELECT json_group_array(value ORDER BY key)
			FROM json_each(users.items)
			WHERE value IS NOT ?
		), updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, item, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: failed to remove item: %v", shared.ErrPersistence, err)
	}
	return expectRow(result, id)
}

// SeedIfEmpty stores items only while the user's list is empty and reports whether it did.
//
// The emptiness check and the write are one statement, so concurrent callers seed at most once.
func (r *UserRepository) SeedIfEmpty(ctx context.Context, id string, items []string) (bool, error) {
	encoded, err := json.Marshal(items)
	if err != nil {
		return false, fmt.Errorf("failed to encode items: %w", err)
	}

	query := `
		UPDATE users
		SET items = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL AND json_array_length(items) = 0
	`

	result, err := r.db.ExecContext(ctx, query, string(encoded), time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("%w: failed to seed items: %v", shared.ErrPersistence, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: failed to get affected rows: %v", shared.ErrPersistence, err)
	}
	return rows == 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		id           string
		sequence     int
		username     sql.NullString
		passwordHash sql.NullString
		googleID     sql.NullString
		facebookID   sql.NullString
		displayName  string
		rawItems     string
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := s.Scan(&id, &sequence, &username, &passwordHash, &googleID, &facebookID, &displayName, &rawItems, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	items, err := decodeItems(rawItems)
	if err != nil {
		return nil, err
	}

	var user *models.User
	switch {
	case googleID.Valid:
		user = models.NewExternalUser(sequence, models.ProviderGoogle, googleID.String, displayName)
	case facebookID.Valid:
		user = models.NewExternalUser(sequence, models.ProviderFacebook, facebookID.String, displayName)
	default:
		user = models.NewLocalUser(sequence, username.String, passwordHash.String)
		user.SetDisplayName(displayName)
	}

	user.SetID(id)
	user.SetItems(items)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		user.SetDeletedAt(&deletedAt.Time)
	}

	return user, nil
}

func decodeItems(raw string) ([]string, error) {
	items := []string{}
	if raw == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get affected rows: %v", shared.ErrPersistence, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	return nil
}
