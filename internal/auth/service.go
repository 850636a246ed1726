package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/travelguide/server/internal/logging"
	"github.com/travelguide/server/internal/metrics"
	"github.com/travelguide/server/internal/model"
	"github.com/travelguide/server/internal/repo"
	"github.com/travelguide/server/internal/validation"
)

const (
	MaxFailedAttempts = 5
	LockoutDuration   = 30 * time.Minute
	SessionTTL        = 24 * time.Hour
	RememberMeTTL     = 30 * 24 * time.Hour

	MessageLoginSuccess = "Login successful"
	MessageNewDevice    = "Login successful. New device detected, verification recommended"
)

// failure reasons stored in login_history.failure_reason
const (
	reasonUnknownUser        = "unknown_user"
	reasonAccountLocked      = "account_locked"
	reasonBadPassword        = "bad_password"
	reasonInvalidFingerprint = "invalid_fingerprint"
	reasonServerError        = "server_error"
)

// Repos groups the stores the auth workflow reads and writes
type Repos struct {
	Users        repo.UserRepo
	Fingerprints repo.FingerprintRepo
	Devices      repo.DeviceRepo
	Sessions     repo.SessionRepo
	History      repo.LoginHistoryRepo
}

// AuthService orchestrates login, registration and session validation
type AuthService struct {
	users        repo.UserRepo
	fingerprints repo.FingerprintRepo
	devices      repo.DeviceRepo
	sessions     repo.SessionRepo
	history      repo.LoginHistoryRepo

	hasher       *PasswordHasher
	deviceTokens *DeviceTokenService
	notifier     DeviceNotifier
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	devMode      bool

	now       func() time.Time
	dummyHash string
}

// NewAuthService creates a new auth service
func NewAuthService(
	repos Repos,
	hasher *PasswordHasher,
	deviceTokens *DeviceTokenService,
	notifier DeviceNotifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
	devMode bool,
) (*AuthService, error) {
	// verified against for unknown usernames so both paths cost one hash
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("init dummy hash: %w", err)
	}
	return &AuthService{
		users:        repos.Users,
		fingerprints: repos.Fingerprints,
		devices:      repos.Devices,
		sessions:     repos.Sessions,
		history:      repos.History,
		hasher:       hasher,
		deviceTokens: deviceTokens,
		notifier:     notifier,
		metrics:      m,
		logger:       logger.With().Str("component", "auth").Logger(),
		devMode:      devMode,
		now:          time.Now,
		dummyHash:    dummy,
	}, nil
}

// LoginInput is a single login attempt
type LoginInput struct {
	Username    string
	Password    string
	Fingerprint string
	RememberMe  bool
	IP          string
	UserAgent   string
}

// LoginResult describes an accepted login
type LoginResult struct {
	UserID       uuid.UUID
	DeviceID     uuid.UUID
	IsNewDevice  bool
	Message      string
	SessionToken string
	ExpiresAt    time.Time
	// DevConfirmationToken is only populated in dev mode.
	DevConfirmationToken string
}

// Login validates credentials, applies lockout rules, records the device and
// issues a session. Every rejection is a *LoginError and is written to the
// login history before it is returned.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	now := s.now()
	log := s.logger.With().Str("username", logging.MaskUsername(in.Username)).Str("ip", in.IP).Logger()

	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, s.reject(ctx, log, nil, model.InvalidFingerprintHash, in.IP, reasonServerError, &LoginError{Kind: ServerError, Err: err})
		}
		_, _ = s.hasher.Verify(in.Password, s.dummyHash)
		return nil, s.reject(ctx, log, nil, model.InvalidFingerprintHash, in.IP, reasonUnknownUser, &LoginError{Kind: InvalidCredentials})
	}
	uid := &user.ID

	if user.IsLocked {
		if user.LockedAt(now) {
			return nil, s.reject(ctx, log, uid, model.InvalidFingerprintHash, in.IP, reasonAccountLocked, &LoginError{
				Kind:              AccountLocked,
				RetryAfterMinutes: remainingMinutes(user.LockExpiresAt.Sub(now)),
			})
		}
		if err := s.users.ResetLockout(ctx, user.ID); err != nil {
			return nil, s.reject(ctx, log, uid, model.InvalidFingerprintHash, in.IP, reasonServerError, &LoginError{Kind: ServerError, Err: err})
		}
		user.IsLocked, user.FailedAttempts, user.LockExpiresAt = false, 0, nil
		log.Info().Msg("lock expired, account unlocked")
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, s.reject(ctx, log, uid, model.InvalidFingerprintHash, in.IP, reasonServerError, &LoginError{Kind: ServerError, Err: err})
	}
	if !ok {
		state, err := s.users.RecordFailedAttempt(ctx, user.ID, MaxFailedAttempts, now.Add(LockoutDuration))
		if err != nil {
			return nil, s.reject(ctx, log, uid, model.InvalidFingerprintHash, in.IP, reasonServerError, &LoginError{Kind: ServerError, Err: err})
		}
		if state.IsLocked && state.FailedAttempts == MaxFailedAttempts {
			s.metrics.AccountLocks.Inc()
			log.Warn().Int("attempts", state.FailedAttempts).Msg("account locked")
		}
		return nil, s.reject(ctx, log, uid, model.InvalidFingerprintHash, in.IP, reasonBadPassword, &LoginError{Kind: InvalidCredentials})
	}

	fp, err := DecodeFingerprint(in.Fingerprint)
	if err != nil {
		return nil, s.reject(ctx, log, uid, model.InvalidFingerprintHash, in.IP, reasonInvalidFingerprint, &LoginError{Kind: InvalidFingerprint, Err: err})
	}

	fail := func(err error) error {
		return s.reject(ctx, log, uid, fp.Hash, in.IP, reasonServerError, &LoginError{Kind: ServerError, Err: err})
	}

	if _, err := s.fingerprints.InsertIfAbsent(ctx, fp); err != nil {
		return nil, fail(err)
	}

	isNewDevice := false
	device, err := s.devices.Get(ctx, user.ID, fp.Hash)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		device, _, err = s.devices.Create(ctx, user.ID, fp.Hash, DeviceLabel(fp.UserAgent))
		if err != nil {
			return nil, fail(err)
		}
		isNewDevice = !device.IsTrusted
	case err != nil:
		return nil, fail(err)
	default:
		isNewDevice = !device.IsTrusted
	}

	if err := s.users.ResetLockout(ctx, user.ID); err != nil {
		return nil, fail(err)
	}
	if err := s.devices.TouchLastLogin(ctx, device.ID, now); err != nil {
		return nil, fail(err)
	}

	status := model.LoginSuccessTrusted
	if isNewDevice {
		status = model.LoginSuccessUntrusted
	}
	if err := s.history.Append(ctx, model.LoginHistoryEntry{
		UserID:          uid,
		FingerprintHash: fp.Hash,
		IPAddress:       in.IP,
		Status:          status,
	}); err != nil {
		s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeServerError).Inc()
		return nil, &LoginError{Kind: ServerError, Err: err}
	}

	token, err := NewSessionToken()
	if err != nil {
		return nil, fail(err)
	}
	ttl := SessionTTL
	if in.RememberMe {
		ttl = RememberMeTTL
	}
	expiresAt := now.Add(ttl)
	if _, err := s.sessions.Create(ctx, model.Session{
		UserID:    user.ID,
		TokenHash: token.Hash,
		ExpiresAt: expiresAt,
		IPAddress: in.IP,
		UserAgent: in.UserAgent,
	}); err != nil {
		return nil, fail(err)
	}

	result := &LoginResult{
		UserID:       user.ID,
		DeviceID:     device.ID,
		IsNewDevice:  isNewDevice,
		Message:      MessageLoginSuccess,
		SessionToken: token.Value,
		ExpiresAt:    expiresAt,
	}
	if isNewDevice {
		result.Message = MessageNewDevice
		result.DevConfirmationToken = s.issueDeviceConfirmation(ctx, log, user.ID, device)
	}

	s.metrics.LoginAttempts.WithLabelValues(string(status)).Inc()
	log.Info().Bool("new_device", isNewDevice).Str("device", device.DeviceName).Msg("login succeeded")
	return result, nil
}

// issueDeviceConfirmation signs and delivers a confirmation token for an
// untrusted device. Delivery problems never fail the login.
func (s *AuthService) issueDeviceConfirmation(ctx context.Context, log zerolog.Logger, userID uuid.UUID, device model.Device) string {
	token, err := s.deviceTokens.Sign(userID, device.FingerprintHash)
	if err != nil {
		log.Warn().Err(err).Msg("failed to sign device confirmation")
		return ""
	}
	if err := s.notifier.NotifyNewDevice(ctx, userID, device.DeviceName, token); err != nil {
		log.Warn().Err(err).Msg("failed to deliver device confirmation")
	}
	if s.devMode {
		return token
	}
	return ""
}

// reject writes the failure to the login history and returns lerr, or a
// ServerError when the history write itself fails.
func (s *AuthService) reject(ctx context.Context, log zerolog.Logger, userID *uuid.UUID, fpHash, ip, reason string, lerr *LoginError) error {
	entry := model.LoginHistoryEntry{
		UserID:          userID,
		FingerprintHash: fpHash,
		IPAddress:       ip,
		Status:          model.LoginFailure,
		FailureReason:   &reason,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeServerError).Inc()
		log.Error().Err(err).Msg("failed to record login history")
		return &LoginError{Kind: ServerError, Err: err}
	}

	s.metrics.LoginAttempts.WithLabelValues(lerr.Kind.String()).Inc()
	ev := log.Warn()
	if lerr.Kind == ServerError {
		ev = log.Error().Err(lerr.Err)
	}
	ev.Str("reason", reason).Msg("login rejected")
	return lerr
}

func remainingMinutes(d time.Duration) int {
	m := int(math.Ceil(float64(d.Milliseconds()) / 60000))
	if m < 1 {
		return 1
	}
	return m
}

// RegisterInput is a registration request
type RegisterInput struct {
	Username    string `validate:"required,min=3,max=50,username"`
	Password    string `validate:"securepassword"`
	Fingerprint string
}

// Register creates the account together with its first (untrusted) device.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := registerValidationError(validation.Struct(in)); err != nil {
		s.metrics.Registrations.WithLabelValues("invalid").Inc()
		return model.User{}, err
	}
	username := in.Username
	fp, err := DecodeFingerprint(in.Fingerprint)
	if err != nil {
		s.metrics.Registrations.WithLabelValues("invalid").Inc()
		return model.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Register(ctx, username, hash, fp, DeviceLabel(fp.UserAgent))
	if err != nil {
		if errors.Is(err, repo.ErrUsernameTaken) {
			s.metrics.Registrations.WithLabelValues("username_taken").Inc()
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, fmt.Errorf("register user: %w", err)
	}

	s.metrics.Registrations.WithLabelValues("success").Inc()
	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

// registerValidationError maps a failed RegisterInput rule to the
// registration error for that field.
func registerValidationError(err error) error {
	var ferr *validation.FieldError
	if !errors.As(err, &ferr) {
		return err
	}
	if ferr.StructField == "Password" {
		return ErrWeakPassword
	}
	return ErrInvalidUsername
}

// ValidateSession resolves a cookie token to its user. Expired sessions are
// deleted on detection. The user row is re-read on every call so admin
// changes apply to the next request.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (model.User, model.Session, error) {
	if token == "" {
		return model.User{}, model.Session{}, ErrNoSession
	}
	session, err := s.sessions.FindByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, model.Session{}, ErrNoSession
		}
		return model.User{}, model.Session{}, fmt.Errorf("find session: %w", err)
	}
	if !session.ExpiresAt.After(s.now()) {
		if err := s.sessions.DeleteByID(ctx, session.ID); err != nil {
			s.logger.Warn().Err(err).Msg("failed to delete expired session")
		}
		return model.User{}, model.Session{}, ErrNoSession
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, model.Session{}, ErrNoSession
		}
		return model.User{}, model.Session{}, fmt.Errorf("load session user: %w", err)
	}
	return user, session, nil
}

// Logout deletes the session identified by token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteByTokenHash(ctx, HashSessionToken(token))
}

// LoginHistory returns the user's most recent login attempts.
func (s *AuthService) LoginHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.LoginHistoryEntry, error) {
	return s.history.ListByUser(ctx, userID, limit)
}
