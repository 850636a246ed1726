package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User represents an account in the credential store
type User struct {
	ID             uuid.UUID
	Username       string
	PasswordHash   string // encoded argon2id
	FailedAttempts int
	IsLocked       bool
	LockExpiresAt  *time.Time
	IsAdmin        bool
	CreatedAt      time.Time
}

// LockedAt reports whether the lock is still in force at now.
func (u User) LockedAt(now time.Time) bool {
	return u.IsLocked && u.LockExpiresAt != nil && u.LockExpiresAt.After(now)
}

// Fingerprint is a registry row keyed by the hash of the raw client blob
type Fingerprint struct {
	Hash                 string
	UserAgent            string
	DisplaySignature     string
	EnvironmentSignature string
	CreatedAt            time.Time
}

// Device is a (user, fingerprint) trust entry
type Device struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	FingerprintHash string
	DeviceName      string
	IsTrusted       bool
	LastLoginAt     *time.Time
	CreatedAt       time.Time
}

// Session maps the hash of a cookie token to a user until ExpiresAt
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	IPAddress string
	UserAgent string
}

// LoginStatus is the outcome recorded for a login attempt
type LoginStatus string

const (
	LoginFailure          LoginStatus = "failure"
	LoginSuccessTrusted   LoginStatus = "success_trusted"
	LoginSuccessUntrusted LoginStatus = "success_untrusted"
)

// InvalidFingerprintHash is recorded when no fingerprint could be derived.
const InvalidFingerprintHash = "invalid"

// LoginHistoryEntry is an append-only record of a login attempt
type LoginHistoryEntry struct {
	ID              int64
	UserID          *uuid.UUID
	FingerprintHash string
	IPAddress       string
	Status          LoginStatus
	FailureReason   *string
	CreatedAt       time.Time
}

// Attraction is a catalog entry
type Attraction struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Category    string         `db:"category" json:"category"`
	Location    string         `db:"location" json:"location"`
	ImageURL    string         `db:"image_url" json:"imageUrl"`
	Rating      float64        `db:"rating" json:"rating"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// Feedback is a free-text submission
type Feedback struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name,omitempty"`
	Email     string    `db:"email" json:"email,omitempty"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
