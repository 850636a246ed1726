package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	deviceConfirmPurpose = "device_confirm"
	deviceTokenExpiry    = 15 * time.Minute
)

// ErrInvalidDeviceToken is returned for malformed, expired or foreign tokens.
var ErrInvalidDeviceToken = errors.New("invalid or expired device confirmation token")

// DeviceClaims binds a confirmation token to one (user, fingerprint) pair
type DeviceClaims struct {
	FingerprintHash string `json:"fph"`
	Purpose         string `json:"purpose"`
	jwt.RegisteredClaims
}

// DeviceTokenService signs and verifies device confirmation tokens
type DeviceTokenService struct {
	secret []byte
	now    func() time.Time
}

// NewDeviceTokenService creates a new device token service
func NewDeviceTokenService(secret string) *DeviceTokenService {
	return &DeviceTokenService{secret: []byte(secret), now: time.Now}
}

// Sign creates a short-lived token confirming fingerprintHash for userID
func (s *DeviceTokenService) Sign(userID uuid.UUID, fingerprintHash string) (string, error) {
	now := s.now()
	claims := &DeviceClaims{
		FingerprintHash: fingerprintHash,
		Purpose:         deviceConfirmPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(deviceTokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign device token: %w", err)
	}
	return tokenString, nil
}

// Verify parses tokenString and returns the user and fingerprint it confirms
func (s *DeviceTokenService) Verify(tokenString string) (uuid.UUID, string, error) {
	claims := &DeviceClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return uuid.Nil, "", ErrInvalidDeviceToken
	}
	if claims.Purpose != deviceConfirmPurpose || claims.FingerprintHash == "" {
		return uuid.Nil, "", ErrInvalidDeviceToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", ErrInvalidDeviceToken
	}
	return userID, claims.FingerprintHash, nil
}
