package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/travelguide/server/internal/model"
)

// AttractionFilter narrows a catalog listing; zero values are ignored.
type AttractionFilter struct {
	Query     string
	Category  string
	Tag       string
	MinRating *float64
}

// AttractionRepo defines the interface for catalog operations
type AttractionRepo interface {
	List(ctx context.Context, f AttractionFilter) ([]model.Attraction, error)
	Get(ctx context.Context, id uuid.UUID) (model.Attraction, error)
	Create(ctx context.Context, a model.Attraction) (model.Attraction, error)
	Update(ctx context.Context, a model.Attraction) (model.Attraction, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type attractionRepo struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewAttractionRepo creates a new AttractionRepo instance
func NewAttractionRepo(db *sqlx.DB) AttractionRepo {
	return &attractionRepo{db: db, dialect: goqu.Dialect("postgres")}
}

var attractionColumns = []any{
	"id", "name", "description", "category", "location", "image_url", "rating", "tags", "created_at", "updated_at",
}

const attractionReturning = `id, name, description, category, location, image_url, rating, tags, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *attractionRepo) listQuery(f AttractionFilter) (string, []any, error) {
	var where []exp.Expression
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + likeEscaper.Replace(q) + "%"
		where = append(where, goqu.Or(
			goqu.C("name").ILike(pattern),
			goqu.C("description").ILike(pattern),
			goqu.C("location").ILike(pattern),
		))
	}
	if f.Category != "" {
		where = append(where, goqu.C("category").Eq(f.Category))
	}
	if f.Tag != "" {
		where = append(where, goqu.L("? = ANY(tags)", f.Tag))
	}
	if f.MinRating != nil {
		where = append(where, goqu.C("rating").Gte(*f.MinRating))
	}

	ds := r.dialect.From("attractions").Prepared(true).Select(attractionColumns...)
	if len(where) > 0 {
		ds = ds.Where(where...)
	}
	return ds.Order(goqu.C("name").Asc()).ToSQL()
}

// List returns attractions matching f ordered by name
func (r *attractionRepo) List(ctx context.Context, f AttractionFilter) ([]model.Attraction, error) {
	query, args, err := r.listQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build attraction query: %w", err)
	}
	attractions := make([]model.Attraction, 0)
	if err := r.db.SelectContext(ctx, &attractions, query, args...); err != nil {
		return nil, fmt.Errorf("list attractions: %w", err)
	}
	return attractions, nil
}

func (r *attractionRepo) Get(ctx context.Context, id uuid.UUID) (model.Attraction, error) {
	var a model.Attraction
	err := r.db.GetContext(ctx, &a, `SELECT `+attractionReturning+` FROM attractions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Attraction{}, ErrNotFound
		}
		return model.Attraction{}, fmt.Errorf("get attraction: %w", err)
	}
	return a, nil
}

func (r *attractionRepo) Create(ctx context.Context, a model.Attraction) (model.Attraction, error) {
	var created model.Attraction
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO attractions (name, description, category, location, image_url, rating, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+attractionReturning,
		a.Name, a.Description, a.Category, a.Location, a.ImageURL, a.Rating, a.Tags,
	).StructScan(&created)
	if err != nil {
		return model.Attraction{}, fmt.Errorf("create attraction: %w", err)
	}
	return created, nil
}

func (r *attractionRepo) Update(ctx context.Context, a model.Attraction) (model.Attraction, error) {
	var updated model.Attraction
	err := r.db.QueryRowxContext(ctx, `
		UPDATE attractions
		SET name = $2, description = $3, category = $4, location = $5,
		    image_url = $6, rating = $7, tags = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+attractionReturning,
		a.ID, a.Name, a.Description, a.Category, a.Location, a.ImageURL, a.Rating, a.Tags,
	).StructScan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Attraction{}, ErrNotFound
		}
		return model.Attraction{}, fmt.Errorf("update attraction: %w", err)
	}
	return updated, nil
}

func (r *attractionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attractions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attraction: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
