package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/travelguide/server/internal/model"
)

// ErrInvalidFingerprint is returned when the client blob cannot be decoded.
var ErrInvalidFingerprint = errors.New("invalid browser fingerprint")

// fingerprintPayload is the JSON document carried, base64 encoded, in the
// browserFingerprint field.
type fingerprintPayload struct {
	UserAgent           string      `json:"userAgent"`
	Language            string      `json:"language"`
	Platform            string      `json:"platform"`
	HardwareConcurrency json.Number `json:"hardwareConcurrency"`
	ScreenResolution    string      `json:"screenResolution"`
	ColorDepth          json.Number `json:"colorDepth"`
	Timezone            string      `json:"timezone"`
	Canvas              string      `json:"canvas"`
}

// HashFingerprint returns the hex SHA-256 of the raw blob.
func HashFingerprint(blob string) string {
	sum := sha256.Sum256([]byte(blob))
	return hex.EncodeToString(sum[:])
}

// DecodeFingerprint parses the client blob into a registry record keyed by
// HashFingerprint(blob).
func DecodeFingerprint(blob string) (model.Fingerprint, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return model.Fingerprint{}, ErrInvalidFingerprint
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return model.Fingerprint{}, ErrInvalidFingerprint
	}

	var p fingerprintPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Fingerprint{}, ErrInvalidFingerprint
	}
	if strings.TrimSpace(p.UserAgent) == "" {
		return model.Fingerprint{}, ErrInvalidFingerprint
	}

	return model.Fingerprint{
		Hash:                 HashFingerprint(blob),
		UserAgent:            p.UserAgent,
		DisplaySignature:     strings.Join([]string{p.ScreenResolution, p.ColorDepth.String(), p.Canvas}, "|"),
		EnvironmentSignature: strings.Join([]string{p.Language, p.Platform, p.HardwareConcurrency.String(), p.Timezone}, "|"),
	}, nil
}
