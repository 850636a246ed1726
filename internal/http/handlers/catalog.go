package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/travelguide/server/internal/catalog"
	"github.com/travelguide/server/internal/middleware"
	"github.com/travelguide/server/internal/model"
	"github.com/travelguide/server/internal/repo"
)

// CatalogService is the part of catalog.Service used by CatalogHandler
type CatalogService interface {
	ListAttractions(ctx context.Context, f repo.AttractionFilter) ([]model.Attraction, error)
	GetAttraction(ctx context.Context, id uuid.UUID) (model.Attraction, error)
	CreateAttraction(ctx context.Context, in catalog.AttractionInput) (model.Attraction, error)
	UpdateAttraction(ctx context.Context, id uuid.UUID, in catalog.AttractionInput) (model.Attraction, error)
	DeleteAttraction(ctx context.Context, id uuid.UUID) error
	Favorites(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	AddFavorite(ctx context.Context, userID, attractionID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, attractionID uuid.UUID) error
	SubmitFeedback(ctx context.Context, in catalog.FeedbackInput) (model.Feedback, error)
}

// CatalogHandler serves attractions, favorites and feedback
type CatalogHandler struct {
	catalog CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

func (h *CatalogHandler) respondCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, catalog.ErrAttractionNotFound):
		respondWithError(w, http.StatusNotFound, "attraction not found")
	default:
		respondInternal(w, r, err, "catalog operation failed")
	}
}

// HandleListAttractions handles GET /attractions
func (h *CatalogHandler) HandleListAttractions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repo.AttractionFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
	}
	if raw := q.Get("minRating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "minRating must be a number")
			return
		}
		f.MinRating = &v
	}

	attractions, err := h.catalog.ListAttractions(r.Context(), f)
	if err != nil {
		h.respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"attractions": attractions})
}

// HandleGetAttraction handles GET /attractions/{id}
func (h *CatalogHandler) HandleGetAttraction(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "attraction not found")
		return
	}
	a, err := h.catalog.GetAttraction(r.Context(), id)
	if err != nil {
		h.respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, a)
}

// HandleCreateAttraction handles POST /attractions (admin)
func (h *CatalogHandler) HandleCreateAttraction(w http.ResponseWriter, r *http.Request) {
	var in catalog.AttractionInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := h.catalog.CreateAttraction(r.Context(), in)
	if err != nil {
		h.respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, a)
}

// HandleUpdateAttraction handles PUT /attractions/{id} (admin)
func (h *CatalogHandler) HandleUpdateAttraction(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "attraction not found")
		return
	}
	var in catalog.AttractionInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := h.catalog.UpdateAttraction(r.Context(), id, in)
	if err != nil {
		h.respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, a)
}

// HandleDeleteAttraction handles DELETE /attractions/{id} (admin)
func (h *CatalogHandler) HandleDeleteAttraction(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "attraction not found")
		return
	}
	if err := h.catalog.DeleteAttraction(r.Context(), id); err != nil {
		h.respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, successResponse{Success: true})
}

// HandleListFavorites handles GET /favorites
func (h *CatalogHandler) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	ids, err := h.catalog.Favorites(r.Context(), userID)
	if err != nil {
		respondInternal(w, r, err, "failed to list favorites")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"favorites": ids})
}

type addFavoriteRequest struct {
	AttractionID string `json:"attractionId"`
}

// HandleAddFavorite handles POST /favorites
func (h *CatalogHandler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	var req addFavoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	attractionID, err := uuid.Parse(req.AttractionID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "attractionId must be a valid id")
		return
	}
	if err := h.catalog.AddFavorite(r.Context(), userID, attractionID); err != nil {
		h.respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, successResponse{Success: true})
}

// HandleRemoveFavorite handles DELETE /favorites/{attractionId}
func (h *CatalogHandler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	attractionID, ok := uuidParam(r, "attractionId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "attractionId must be a valid id")
		return
	}
	if err := h.catalog.RemoveFavorite(r.Context(), userID, attractionID); err != nil {
		respondInternal(w, r, err, "failed to remove favorite")
		return
	}
	respondJSON(w, r, http.StatusOK, successResponse{Success: true})
}

// HandleSubmitFeedback handles POST /feedback
func (h *CatalogHandler) HandleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var in catalog.FeedbackInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.catalog.SubmitFeedback(r.Context(), in); err != nil {
		h.respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, successResponse{Success: true})
}
