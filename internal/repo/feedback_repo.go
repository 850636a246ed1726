package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/travelguide/server/internal/model"
)

// FeedbackRepo stores feedback submissions
type FeedbackRepo interface {
	Create(ctx context.Context, f model.Feedback) (model.Feedback, error)
}

type feedbackRepo struct {
	db *sqlx.DB
}

// NewFeedbackRepo creates a new FeedbackRepo instance
func NewFeedbackRepo(db *sqlx.DB) FeedbackRepo {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Create(ctx context.Context, f model.Feedback) (model.Feedback, error) {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO feedback (name, email, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, f.Name, f.Email, f.Message).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return model.Feedback{}, fmt.Errorf("create feedback: %w", err)
	}
	return f, nil
}
