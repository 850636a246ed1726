// Package catalog implements attraction, favorite and feedback operations.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/travelguide/server/internal/model"
	"github.com/travelguide/server/internal/repo"
	"github.com/travelguide/server/internal/validation"
)

const (
	DefaultRating     = 5.0
	MaxRating         = 5.0
	MaxFeedbackLength = 5000
)

// ErrAttractionNotFound is returned for an unknown attraction id
var ErrAttractionNotFound = errors.New("attraction not found")

// ValidationError reports a malformed field in a request payload
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// check runs the validator and converts its first failure to a ValidationError
func check(err error) error {
	var ferr *validation.FieldError
	if errors.As(err, &ferr) {
		return &ValidationError{Field: ferr.Field, Message: ferr.Message()}
	}
	return err
}

// ParseRating accepts a JSON number or a numeric string in [0, 5]. An absent
// or null value returns nil.
func ParseRating(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, invalid("rating", "must be a number")
		}
		text = strings.TrimSpace(text)
	} else {
		text = string(raw)
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, invalid("rating", "must be a number")
	}
	if v < 0 || v > MaxRating {
		return nil, invalid("rating", "must be between 0 and %g", MaxRating)
	}
	v = math.Round(v*10) / 10
	return &v, nil
}

// AttractionInput is a create or partial update payload. Nil fields are
// left unchanged on update.
type AttractionInput struct {
	Name        *string         `json:"name" validate:"omitnil,min=1,max=200"`
	Description *string         `json:"description" validate:"omitnil,max=5000"`
	Category    *string         `json:"category" validate:"omitnil,max=100"`
	Location    *string         `json:"location" validate:"omitnil,max=200"`
	ImageURL    *string         `json:"imageUrl" validate:"omitnil,max=2048"`
	Rating      json.RawMessage `json:"rating"`
	Tags        []string        `json:"tags" validate:"omitempty,dive,max=100"`
}

// trimmed returns a copy with surrounding whitespace removed from every
// string field.
func (in AttractionInput) trimmed() AttractionInput {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	in.Name = trim(in.Name)
	in.Description = trim(in.Description)
	in.Category = trim(in.Category)
	in.Location = trim(in.Location)
	in.ImageURL = trim(in.ImageURL)
	if in.Tags != nil {
		in.Tags = normalizeTags(in.Tags)
	}
	return in
}

// FeedbackInput is a feedback submission
type FeedbackInput struct {
	Name    string `json:"name" validate:"max=200"`
	Email   string `json:"email" validate:"omitempty,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Service exposes the catalog to HTTP handlers
type Service struct {
	attractions repo.AttractionRepo
	favorites   repo.FavoriteRepo
	feedback    repo.FeedbackRepo
	logger      zerolog.Logger
}

// NewService creates a new catalog service
func NewService(attractions repo.AttractionRepo, favorites repo.FavoriteRepo, feedback repo.FeedbackRepo, logger zerolog.Logger) *Service {
	return &Service{
		attractions: attractions,
		favorites:   favorites,
		feedback:    feedback,
		logger:      logger.With().Str("component", "catalog").Logger(),
	}
}

// ListAttractions returns the attractions matching f
func (s *Service) ListAttractions(ctx context.Context, f repo.AttractionFilter) ([]model.Attraction, error) {
	if f.MinRating != nil {
		if err := check(validation.Var("minRating", *f.MinRating, "gte=0,lte=5")); err != nil {
			return nil, err
		}
	}
	return s.attractions.List(ctx, f)
}

// GetAttraction returns a single attraction
func (s *Service) GetAttraction(ctx context.Context, id uuid.UUID) (model.Attraction, error) {
	a, err := s.attractions.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Attraction{}, ErrAttractionNotFound
	}
	return a, err
}

// CreateAttraction validates in and stores a new attraction. Rating defaults
// to 5.0 when omitted.
func (s *Service) CreateAttraction(ctx context.Context, in AttractionInput) (model.Attraction, error) {
	a := model.Attraction{Rating: DefaultRating, Tags: pq.StringArray{}}
	if err := check(validation.Var("name", in.Name, "required")); err != nil {
		return model.Attraction{}, err
	}
	if err := apply(&a, in); err != nil {
		return model.Attraction{}, err
	}
	created, err := s.attractions.Create(ctx, a)
	if err != nil {
		return model.Attraction{}, err
	}
	s.logger.Info().Str("attraction_id", created.ID.String()).Msg("attraction created")
	return created, nil
}

// UpdateAttraction applies the non-nil fields of in to an existing attraction
func (s *Service) UpdateAttraction(ctx context.Context, id uuid.UUID, in AttractionInput) (model.Attraction, error) {
	a, err := s.GetAttraction(ctx, id)
	if err != nil {
		return model.Attraction{}, err
	}
	if err := apply(&a, in); err != nil {
		return model.Attraction{}, err
	}
	updated, err := s.attractions.Update(ctx, a)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Attraction{}, ErrAttractionNotFound
	}
	return updated, err
}

// DeleteAttraction removes an attraction and, by cascade, its favorites
func (s *Service) DeleteAttraction(ctx context.Context, id uuid.UUID) error {
	err := s.attractions.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAttractionNotFound
	}
	if err == nil {
		s.logger.Info().Str("attraction_id", id.String()).Msg("attraction deleted")
	}
	return err
}

func apply(a *model.Attraction, in AttractionInput) error {
	in = in.trimmed()
	if err := check(validation.Struct(in)); err != nil {
		return err
	}
	rating, err := ParseRating(in.Rating)
	if err != nil {
		return err
	}

	if in.Name != nil {
		a.Name = *in.Name
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.Category != nil {
		a.Category = *in.Category
	}
	if in.Location != nil {
		a.Location = *in.Location
	}
	if in.ImageURL != nil {
		a.ImageURL = *in.ImageURL
	}
	if rating != nil {
		a.Rating = *rating
	}
	if in.Tags != nil {
		a.Tags = pq.StringArray(in.Tags)
	}
	return nil
}

// normalizeTags trims tags and drops empties and duplicates, keeping order
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Favorites returns the attraction ids favorited by userID
func (s *Service) Favorites(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.favorites.List(ctx, userID)
}

// AddFavorite is idempotent
func (s *Service) AddFavorite(ctx context.Context, userID, attractionID uuid.UUID) error {
	err := s.favorites.Add(ctx, userID, attractionID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAttractionNotFound
	}
	return err
}

// RemoveFavorite is idempotent
func (s *Service) RemoveFavorite(ctx context.Context, userID, attractionID uuid.UUID) error {
	return s.favorites.Remove(ctx, userID, attractionID)
}

// SubmitFeedback validates and stores a feedback message
func (s *Service) SubmitFeedback(ctx context.Context, in FeedbackInput) (model.Feedback, error) {
	in = FeedbackInput{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Message: strings.TrimSpace(in.Message),
	}
	if err := check(validation.Struct(in)); err != nil {
		return model.Feedback{}, err
	}
	return s.feedback.Create(ctx, model.Feedback{Name: in.Name, Email: in.Email, Message: in.Message})
}
