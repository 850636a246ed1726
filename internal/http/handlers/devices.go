package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/travelguide/server/internal/auth"
	"github.com/travelguide/server/internal/middleware"
	"github.com/travelguide/server/internal/model"
)

// DeviceService is the part of auth.DeviceService used by DeviceHandler
type DeviceService interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.Device, error)
	Update(ctx context.Context, userID, deviceID uuid.UUID, upd auth.DeviceUpdate) (model.Device, error)
	Delete(ctx context.Context, userID, deviceID uuid.UUID) error
	Confirm(ctx context.Context, userID uuid.UUID, token string) (model.Device, error)
}

// DeviceHandler lets a user manage their own device trust entries
type DeviceHandler struct {
	devices DeviceService
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(devices DeviceService) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

type deviceResponse struct {
	ID          string     `json:"id"`
	DeviceName  string     `json:"deviceName"`
	IsTrusted   bool       `json:"isTrusted"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toDeviceResponse(d model.Device) deviceResponse {
	return deviceResponse{
		ID:          d.ID.String(),
		DeviceName:  d.DeviceName,
		IsTrusted:   d.IsTrusted,
		LastLoginAt: d.LastLoginAt,
		CreatedAt:   d.CreatedAt,
	}
}

// HandleList handles GET /devices
func (h *DeviceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	devices, err := h.devices.List(r.Context(), userID)
	if err != nil {
		respondInternal(w, r, err, "failed to list devices")
		return
	}
	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDeviceResponse(d))
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"devices": out})
}

type updateDeviceRequest struct {
	DeviceName *string `json:"deviceName"`
	IsTrusted  *bool   `json:"isTrusted"`
}

// HandleUpdate handles PUT /devices/{id}
func (h *DeviceHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	deviceID, ok := uuidParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "device not found")
		return
	}
	var req updateDeviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DeviceName != nil && *req.DeviceName == "" {
		respondWithError(w, http.StatusBadRequest, "deviceName must not be empty")
		return
	}

	device, err := h.devices.Update(r.Context(), userID, deviceID, auth.DeviceUpdate{
		DeviceName: req.DeviceName,
		IsTrusted:  req.IsTrusted,
	})
	if err != nil {
		h.respondDeviceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toDeviceResponse(device))
}

// HandleDelete handles DELETE /devices/{id}
func (h *DeviceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	deviceID, ok := uuidParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, "device not found")
		return
	}
	if err := h.devices.Delete(r.Context(), userID, deviceID); err != nil {
		h.respondDeviceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, successResponse{Success: true})
}

type confirmDeviceRequest struct {
	Token string `json:"token"`
}

// HandleConfirm handles POST /devices/confirm
func (h *DeviceHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	var req confirmDeviceRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "token is required")
		return
	}
	device, err := h.devices.Confirm(r.Context(), userID, req.Token)
	if err != nil {
		h.respondDeviceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toDeviceResponse(device))
}

func (h *DeviceHandler) respondDeviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrDeviceNotFound):
		respondWithError(w, http.StatusNotFound, "device not found")
	case errors.Is(err, auth.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, auth.ErrInvalidDeviceToken):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondInternal(w, r, err, "device operation failed")
	}
}
