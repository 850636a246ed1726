package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DeviceNotifier delivers a device confirmation token to the account owner
type DeviceNotifier interface {
	NotifyNewDevice(ctx context.Context, userID uuid.UUID, deviceName, token string) error
}

// LogNotifier records that a confirmation was issued. The token itself is
// never logged; in dev mode the login response carries it instead.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that writes to logger
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyNewDevice(ctx context.Context, userID uuid.UUID, deviceName, token string) error {
	n.logger.Info().
		Str("user_id", userID.String()).
		Str("device", deviceName).
		Msg("device confirmation issued")
	return nil
}
