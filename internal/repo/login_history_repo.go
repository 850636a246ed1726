package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/travelguide/server/internal/model"
)

// LoginHistoryRepo is the append-only login attempt log
type LoginHistoryRepo interface {
	Append(ctx context.Context, e model.LoginHistoryEntry) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.LoginHistoryEntry, error)
}

type loginHistoryRepo struct {
	db *sql.DB
}

// NewLoginHistoryRepo creates a new LoginHistoryRepo instance
func NewLoginHistoryRepo(db *sql.DB) LoginHistoryRepo {
	return &loginHistoryRepo{db: db}
}

func (r *loginHistoryRepo) Append(ctx context.Context, e model.LoginHistoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO login_history (user_id, fingerprint_hash, ip_address, status, failure_reason)
		VALUES ($1, $2, $3, $4, $5)
	`, e.UserID, e.FingerprintHash, e.IPAddress, string(e.Status), e.FailureReason)
	if err != nil {
		return fmt.Errorf("append login history: %w", err)
	}
	return nil
}

func (r *loginHistoryRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.LoginHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, fingerprint_hash, ip_address, status, failure_reason, created_at
		FROM login_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list login history: %w", err)
	}
	defer rows.Close()

	entries := make([]model.LoginHistoryEntry, 0)
	for rows.Next() {
		var e model.LoginHistoryEntry
		var uid uuid.NullUUID
		var reason sql.NullString
		var status string
		if err := rows.Scan(&e.ID, &uid, &e.FingerprintHash, &e.IPAddress, &status, &reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan login history: %w", err)
		}
		if uid.Valid {
			id := uid.UUID
			e.UserID = &id
		}
		if reason.Valid {
			r := reason.String
			e.FailureReason = &r
		}
		e.Status = model.LoginStatus(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list login history: %w", err)
	}
	return entries, nil
}
