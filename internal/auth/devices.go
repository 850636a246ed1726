package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/travelguide/server/internal/model"
	"github.com/travelguide/server/internal/repo"
)

// DeviceService manages a user's device trust entries
type DeviceService struct {
	devices repo.DeviceRepo
	tokens  *DeviceTokenService
	logger  zerolog.Logger
}

// NewDeviceService creates a new device service
func NewDeviceService(devices repo.DeviceRepo, tokens *DeviceTokenService, logger zerolog.Logger) *DeviceService {
	return &DeviceService{
		devices: devices,
		tokens:  tokens,
		logger:  logger.With().Str("component", "devices").Logger(),
	}
}

// List returns the user's devices, most recently used first.
func (s *DeviceService) List(ctx context.Context, userID uuid.UUID) ([]model.Device, error) {
	return s.devices.ListByUser(ctx, userID)
}

// DeviceUpdate carries the optional fields of a device update
type DeviceUpdate struct {
	DeviceName *string
	IsTrusted  *bool
}

// Update renames a device and/or changes its trust flag.
func (s *DeviceService) Update(ctx context.Context, userID, deviceID uuid.UUID, upd DeviceUpdate) (model.Device, error) {
	if _, err := s.owned(ctx, userID, deviceID); err != nil {
		return model.Device{}, err
	}
	device, err := s.devices.Update(ctx, deviceID, upd.DeviceName, upd.IsTrusted)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Device{}, ErrDeviceNotFound
		}
		return model.Device{}, fmt.Errorf("update device: %w", err)
	}
	if upd.IsTrusted != nil {
		s.logger.Info().
			Str("user_id", userID.String()).
			Str("device_id", deviceID.String()).
			Bool("trusted", *upd.IsTrusted).
			Msg("device trust changed")
	}
	return device, nil
}

// Delete removes a device entry. The next login from it counts as new.
func (s *DeviceService) Delete(ctx context.Context, userID, deviceID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, deviceID); err != nil {
		return err
	}
	if err := s.devices.Delete(ctx, deviceID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("delete device: %w", err)
	}
	return nil
}

// Confirm marks the device named by a confirmation token as trusted. The
// token must have been issued to userID.
func (s *DeviceService) Confirm(ctx context.Context, userID uuid.UUID, token string) (model.Device, error) {
	tokenUser, fpHash, err := s.tokens.Verify(token)
	if err != nil {
		return model.Device{}, err
	}
	if tokenUser != userID {
		return model.Device{}, ErrInvalidDeviceToken
	}
	if err := s.devices.SetTrustedByFingerprint(ctx, userID, fpHash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Device{}, ErrDeviceNotFound
		}
		return model.Device{}, fmt.Errorf("confirm device: %w", err)
	}
	device, err := s.devices.Get(ctx, userID, fpHash)
	if err != nil {
		return model.Device{}, fmt.Errorf("load confirmed device: %w", err)
	}
	s.logger.Info().Str("user_id", userID.String()).Str("device_id", device.ID.String()).Msg("device confirmed")
	return device, nil
}

func (s *DeviceService) owned(ctx context.Context, userID, deviceID uuid.UUID) (model.Device, error) {
	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Device{}, ErrDeviceNotFound
		}
		return model.Device{}, fmt.Errorf("load device: %w", err)
	}
	if device.UserID != userID {
		return model.Device{}, ErrForbidden
	}
	return device, nil
}
