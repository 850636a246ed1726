package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
	"github.com/travelguide/server/internal/auth"
	"github.com/travelguide/server/internal/logging"
	"github.com/travelguide/server/internal/middleware"
	"github.com/travelguide/server/internal/model"
)

const historyLimit = 50

// AuthService is the part of auth.AuthService used by AuthHandler
type AuthService interface {
	Login(ctx context.Context, in auth.LoginInput) (*auth.LoginResult, error)
	Register(ctx context.Context, in auth.RegisterInput) (model.User, error)
	Logout(ctx context.Context, token string) error
	LoginHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.LoginHistoryEntry, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new auth handler. cookieSecure controls the
// Secure attribute of the session cookie.
func NewAuthHandler(authService AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authService: authService, cookieSecure: cookieSecure}
}

// loginRequest is the request body for POST /login
type loginRequest struct {
	Username           string `json:"username"`
	Password           string `json:"password"`
	RememberMe         bool   `json:"rememberMe"`
	BrowserFingerprint string `json:"browserFingerprint"`
}

// loginResponse is the JSON response for a successful login
type loginResponse struct {
	Message              string `json:"message"`
	IsNewDevice          bool   `json:"isNewDevice"`
	UserID               string `json:"userId"`
	DevConfirmationToken string `json:"devConfirmationToken,omitempty"`
}

// authFailureResponse is the JSON body of a rejected login or registration
type authFailureResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func respondAuthFailure(w http.ResponseWriter, r *http.Request, status int, message string, errs ...string) {
	respondJSON(w, r, status, authFailureResponse{Message: message, Errors: errs})
}

// HandleLogin handles POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondAuthFailure(w, r, http.StatusBadRequest, "Invalid request body", "invalid_request")
		return
	}

	res, err := h.authService.Login(r.Context(), auth.LoginInput{
		Username:    req.Username,
		Password:    req.Password,
		Fingerprint: req.BrowserFingerprint,
		RememberMe:  req.RememberMe,
		IP:          getClientIP(r),
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		h.respondLoginError(w, r, req.Username, err)
		return
	}

	h.setSessionCookie(w, res.SessionToken, res.ExpiresAt)
	respondJSON(w, r, http.StatusOK, loginResponse{
		Message:              res.Message,
		IsNewDevice:          res.IsNewDevice,
		UserID:               res.UserID.String(),
		DevConfirmationToken: res.DevConfirmationToken,
	})
}

func (h *AuthHandler) respondLoginError(w http.ResponseWriter, r *http.Request, username string, err error) {
	var lerr *auth.LoginError
	if !errors.As(err, &lerr) {
		lerr = &auth.LoginError{Kind: auth.ServerError, Err: err}
	}

	switch lerr.Kind {
	case auth.AccountLocked:
		w.Header().Set("Retry-After", strconv.Itoa(lerr.RetryAfterMinutes*60))
		respondAuthFailure(w, r, http.StatusUnauthorized,
			"Account is locked. Please try again in "+strconv.Itoa(lerr.RetryAfterMinutes)+" minute(s).", lerr.Kind.String())
	case auth.InvalidCredentials:
		respondAuthFailure(w, r, http.StatusUnauthorized, "Invalid username or password.", lerr.Kind.String())
	case auth.InvalidFingerprint:
		respondAuthFailure(w, r, http.StatusUnauthorized, "Could not verify this browser. Please reload and try again.", lerr.Kind.String())
	default:
		// login failures of every kind share the 401 failure shape
		hlog.FromRequest(r).Error().Err(lerr.Err).
			Str("username", logging.MaskUsername(username)).
			Msg("login failed with server error")
		respondAuthFailure(w, r, http.StatusUnauthorized,
			"Something went wrong. Please try again.", auth.ServerError.String())
	}
}

// registerRequest is the request body for POST /register
type registerRequest struct {
	Username           string `json:"username"`
	Password           string `json:"password"`
	BrowserFingerprint string `json:"browserFingerprint"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// HandleRegister handles POST /register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondAuthFailure(w, r, http.StatusBadRequest, "Invalid request body", "invalid_request")
		return
	}

	user, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		Fingerprint: req.BrowserFingerprint,
	})
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUsernameTaken):
		respondAuthFailure(w, r, http.StatusConflict, "Username is already taken.", "username_taken")
		return
	case errors.Is(err, auth.ErrInvalidUsername):
		respondAuthFailure(w, r, http.StatusBadRequest, err.Error(), "invalid_username")
		return
	case errors.Is(err, auth.ErrWeakPassword):
		respondAuthFailure(w, r, http.StatusBadRequest, err.Error(), "weak_password")
		return
	case errors.Is(err, auth.ErrInvalidFingerprint):
		respondAuthFailure(w, r, http.StatusBadRequest, "Could not verify this browser. Please reload and try again.", "invalid_fingerprint")
		return
	default:
		hlog.FromRequest(r).Error().Err(err).Str("username", logging.MaskUsername(req.Username)).Msg("registration failed")
		respondAuthFailure(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.", auth.ServerError.String())
		return
	}

	respondJSON(w, r, http.StatusCreated, registerResponse{
		Message: "Registration successful",
		UserID:  user.ID.String(),
	})
}

// HandleLogout handles POST /logout. It succeeds whether or not a session exists.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			respondInternal(w, r, err, "failed to delete session")
			return
		}
	}
	h.clearSessionCookie(w)
	respondJSON(w, r, http.StatusOK, map[string]string{"message": "Logged out"})
}

// userResponse is the user object in API responses
type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

type meResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *userResponse `json:"user,omitempty"`
	ExpiresAt     *time.Time    `json:"expiresAt,omitempty"`
}

// HandleMe handles GET /me. It never fails on a missing or invalid session.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		respondJSON(w, r, http.StatusOK, meResponse{Authenticated: false})
		return
	}
	resp := meResponse{
		Authenticated: true,
		User: &userResponse{
			ID:       user.ID.String(),
			Username: user.Username,
			IsAdmin:  user.IsAdmin,
		},
	}
	if session, ok := middleware.GetSession(r.Context()); ok {
		resp.ExpiresAt = &session.ExpiresAt
	}
	respondJSON(w, r, http.StatusOK, resp)
}

type historyEntryResponse struct {
	Status          string    `json:"status"`
	FingerprintHash string    `json:"fingerprintHash"`
	IPAddress       string    `json:"ipAddress"`
	FailureReason   *string   `json:"failureReason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// HandleLoginHistory handles GET /login-history (protected)
func (h *AuthHandler) HandleLoginHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	entries, err := h.authService.LoginHistory(r.Context(), userID, historyLimit)
	if err != nil {
		respondInternal(w, r, err, "failed to load login history")
		return
	}
	out := make([]historyEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryResponse{
			Status:          string(e.Status),
			FingerprintHash: e.FingerprintHash,
			IPAddress:       e.IPAddress,
			FailureReason:   e.FailureReason,
			CreatedAt:       e.CreatedAt,
		})
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"history": out})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
