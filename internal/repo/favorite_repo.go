package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// FavoriteRepo defines the interface for per-user favorites
type FavoriteRepo interface {
	List(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// Add is idempotent; an unknown attraction yields ErrNotFound.
	Add(ctx context.Context, userID, attractionID uuid.UUID) error
	// Remove is idempotent.
	Remove(ctx context.Context, userID, attractionID uuid.UUID) error
}

type favoriteRepo struct {
	db *sqlx.DB
}

// NewFavoriteRepo creates a new FavoriteRepo instance
func NewFavoriteRepo(db *sqlx.DB) FavoriteRepo {
	return &favoriteRepo{db: db}
}

func (r *favoriteRepo) List(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	err := r.db.SelectContext(ctx, &ids, `
		SELECT attraction_id FROM user_favorites
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return ids, nil
}

func (r *favoriteRepo) Add(ctx context.Context, userID, attractionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_favorites (user_id, attraction_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, attraction_id) DO NOTHING
	`, userID, attractionID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (r *favoriteRepo) Remove(ctx context.Context, userID, attractionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM user_favorites WHERE user_id = $1 AND attraction_id = $2
	`, userID, attractionID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}
