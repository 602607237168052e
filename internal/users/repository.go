package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors for the persistence layer.
var (
	ErrNotFound        = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrTokenNotFound   = errors.New("reset token not found")
	ErrVersionConflict = errors.New("concurrent update conflict")
)

// Repository defines persistence operations for accounts and reset tokens.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	// UpdateProfile and UpdatePassword are compare-and-swap on Version;
	// a stale version yields ErrVersionConflict.
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, user *User) error
	// ReplaceResetToken enforces at most one live token per user by
	// deleting any prior token before inserting the new one.
	ReplaceResetToken(ctx context.Context, token ResetToken) error
	GetResetToken(ctx context.Context, tokenHash string, now time.Time) (*ResetToken, error)
	// DeleteResetToken consumes a token after a successful reset.
	DeleteResetToken(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, photo, phone, bio, version, created_at, updated_at`

// CreateUser inserts a new account. A unique-violation on email maps to
// ErrDuplicateEmail.
func (r *PGRepository) CreateUser(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, name, email, password_hash, photo, phone, bio, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	now := time.Now().UTC()
	user.Version = 1
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.Photo, user.Phone, user.Bio, user.Version, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetUserByEmail fetches a user by email.
func (r *PGRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByID fetches a user by id.
func (r *PGRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// UpdateProfile persists profile fields. Email is deliberately absent
// from the SET list; it is immutable through this path.
func (r *PGRepository) UpdateProfile(ctx context.Context, user *User) error {
	query := `UPDATE users SET name = $2, photo = $3, phone = $4, bio = $5,
		version = version + 1, updated_at = $6
		WHERE id = $1 AND version = $7`
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, query,
		user.ID, user.Name, user.Photo, user.Phone, user.Bio, now, user.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	user.Version++
	user.UpdatedAt = now
	return nil
}

// UpdatePassword persists a new password hash with the same CAS guard.
func (r *PGRepository) UpdatePassword(ctx context.Context, user *User) error {
	query := `UPDATE users SET password_hash = $2,
		version = version + 1, updated_at = $3
		WHERE id = $1 AND version = $4`
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, query, user.ID, user.PasswordHash, now, user.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	user.Version++
	user.UpdatedAt = now
	return nil
}

// ReplaceResetToken deletes any prior token for the user and inserts the
// new one in a single transaction.
func (r *PGRepository) ReplaceResetToken(ctx context.Context, token ResetToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM reset_tokens WHERE user_id = $1`, token.UserID); err != nil {
		return err
	}
	query := `INSERT INTO reset_tokens (user_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, query, token.UserID, token.TokenHash, token.CreatedAt, token.ExpiresAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetResetToken looks up a token by hash, requiring it to be unexpired.
func (r *PGRepository) GetResetToken(ctx context.Context, tokenHash string, now time.Time) (*ResetToken, error) {
	query := `SELECT user_id, token_hash, created_at, expires_at
		FROM reset_tokens WHERE token_hash = $1 AND expires_at > $2`
	var token ResetToken
	err := r.pool.QueryRow(ctx, query, tokenHash, now).
		Scan(&token.UserID, &token.TokenHash, &token.CreatedAt, &token.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// DeleteResetToken removes the user's token, if any.
func (r *PGRepository) DeleteResetToken(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM reset_tokens WHERE user_id = $1`, userID)
	return err
}

// DeleteExpiredResetTokens removes tokens past their expiry. Verification
// checks expiry itself, so this is hygiene only.
func (r *PGRepository) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reset_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Photo, &user.Phone, &user.Bio, &user.Version,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

var _ Repository = (*PGRepository)(nil)
