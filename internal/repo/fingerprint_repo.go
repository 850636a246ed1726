package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/travelguide/server/internal/model"
)

const insertFingerprintSQL = `
	INSERT INTO browser_fingerprints (hash, user_agent, display_signature, environment_signature)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (hash) DO NOTHING
`

// FingerprintRepo defines the interface for the fingerprint registry
type FingerprintRepo interface {
	// InsertIfAbsent stores fp unless a record with the same hash exists.
	// It reports whether a new row was written.
	InsertIfAbsent(ctx context.Context, fp model.Fingerprint) (bool, error)
}

type fingerprintRepo struct {
	db *sql.DB
}

// NewFingerprintRepo creates a new FingerprintRepo instance
func NewFingerprintRepo(db *sql.DB) FingerprintRepo {
	return &fingerprintRepo{db: db}
}

func (r *fingerprintRepo) InsertIfAbsent(ctx context.Context, fp model.Fingerprint) (bool, error) {
	result, err := r.db.ExecContext(ctx, insertFingerprintSQL,
		fp.Hash, fp.UserAgent, fp.DisplaySignature, fp.EnvironmentSignature)
	if err != nil {
		return false, fmt.Errorf("insert fingerprint: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}
