package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
	"github.com/travelguide/server/internal/auth"
	"github.com/travelguide/server/internal/model"
)

// SessionCookieName is the cookie carrying the opaque session token
const SessionCookieName = "session_id"

type contextKey string

const (
	userKey    contextKey = "user"
	sessionKey contextKey = "session"
)

// SessionValidator resolves a session token to its user
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (model.User, model.Session, error)
}

// LoadSession attaches the user of a valid session cookie to the request
// context. Requests without a valid session pass through unchanged.
func LoadSession(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, session, err := validator.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, auth.ErrNoSession) {
					hlog.FromRequest(r).Error().Err(err).Msg("session lookup failed")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, &user)
			ctx = context.WithValue(ctx, sessionKey, &session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests without an authenticated user with 401.
// It must run after LoadSession.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			respondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects authenticated non-admin users with 403
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !user.IsAdmin {
			respondWithError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser returns the user attached to the request context (set by LoadSession)
func GetUser(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	u, ok := GetUser(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return u.ID, true
}

// GetSession returns the session attached to the request context
func GetSession(ctx context.Context) (*model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*model.Session)
	return s, ok
}

// WithUser returns a copy of ctx carrying user, for handlers invoked outside
// LoadSession.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{"error": message}
	_ = json.NewEncoder(w).Encode(response)
}
