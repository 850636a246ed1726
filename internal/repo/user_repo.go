package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/travelguide/server/internal/model"
)

// LockState is the attempt counter and lock fields after a failed attempt
type LockState struct {
	FailedAttempts int
	IsLocked       bool
	LockExpiresAt  *time.Time
}

// UserRepo defines the interface for credential store operations
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	RecordFailedAttempt(ctx context.Context, id uuid.UUID, threshold int, lockUntil time.Time) (LockState, error)
	ResetLockout(ctx context.Context, id uuid.UUID) error
	Register(ctx context.Context, username, passwordHash string, fp model.Fingerprint, deviceName string) (model.User, error)
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

const userColumns = `id, username, password_hash, failed_attempts, is_locked, lock_expires_at, is_admin, created_at`

func scanUser(row *sql.Row) (model.User, error) {
	var user model.User
	var lockExpires sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.FailedAttempts,
		&user.IsLocked,
		&lockExpires,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	if lockExpires.Valid {
		t := lockExpires.Time
		user.LockExpiresAt = &t
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByUsername retrieves a user by exact username
func (r *userRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// RecordFailedAttempt atomically increments failed_attempts and locks the
// account until lockUntil once the new count reaches threshold.
func (r *userRepo) RecordFailedAttempt(ctx context.Context, id uuid.UUID, threshold int, lockUntil time.Time) (LockState, error) {
	var state LockState
	var lockExpires sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET failed_attempts = failed_attempts + 1,
		    is_locked = (failed_attempts + 1 >= $2),
		    lock_expires_at = CASE WHEN failed_attempts + 1 >= $2 THEN $3 ELSE lock_expires_at END
		WHERE id = $1
		RETURNING failed_attempts, is_locked, lock_expires_at
	`, id, threshold, lockUntil).Scan(&state.FailedAttempts, &state.IsLocked, &lockExpires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LockState{}, ErrNotFound
		}
		return LockState{}, fmt.Errorf("record failed attempt: %w", err)
	}
	if lockExpires.Valid {
		t := lockExpires.Time
		state.LockExpiresAt = &t
	}
	return state, nil
}

// ResetLockout clears the attempt counter and any lock.
func (r *userRepo) ResetLockout(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_attempts = 0, is_locked = FALSE, lock_expires_at = NULL
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Register creates the user, its fingerprint record (if absent) and an
// untrusted device entry in a single transaction.
func (r *userRepo) Register(ctx context.Context, username, passwordHash string, fp model.Fingerprint, deviceName string) (model.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	user := model.User{Username: username, PasswordHash: passwordHash}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, username, passwordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, insertFingerprintSQL,
		fp.Hash, fp.UserAgent, fp.DisplaySignature, fp.EnvironmentSignature); err != nil {
		return model.User{}, fmt.Errorf("insert fingerprint: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_devices (user_id, fingerprint_hash, device_name, is_trusted)
		VALUES ($1, $2, $3, FALSE)
	`, user.ID, fp.Hash, deviceName); err != nil {
		return model.User{}, fmt.Errorf("insert device: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.User{}, fmt.Errorf("commit: %w", err)
	}
	return user, nil
}
