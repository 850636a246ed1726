package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelguide/server/internal/auth"
	"github.com/travelguide/server/internal/catalog"
	"github.com/travelguide/server/internal/middleware"
	"github.com/travelguide/server/internal/model"
	"github.com/travelguide/server/internal/repo"
)

type stubAuth struct {
	loginRes   *auth.LoginResult
	loginErr   error
	lastLogin  auth.LoginInput
	registerFn func(auth.RegisterInput) (model.User, error)
	loggedOut  []string
	history    []model.LoginHistoryEntry
}

func (s *stubAuth) Login(_ context.Context, in auth.LoginInput) (*auth.LoginResult, error) {
	s.lastLogin = in
	return s.loginRes, s.loginErr
}

func (s *stubAuth) Register(_ context.Context, in auth.RegisterInput) (model.User, error) {
	return s.registerFn(in)
}

func (s *stubAuth) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

func (s *stubAuth) LoginHistory(_ context.Context, _ uuid.UUID, limit int) ([]model.LoginHistoryEntry, error) {
	if len(s.history) > limit {
		return s.history[:limit], nil
	}
	return s.history, nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func postJSON(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:5555"
	return req
}

func withUser(req *http.Request, u model.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), &u))
}

func TestHandleLogin_Success(t *testing.T) {
	userID := uuid.New()
	expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	svc := &stubAuth{loginRes: &auth.LoginResult{
		UserID:       userID,
		IsNewDevice:  true,
		Message:      auth.MessageNewDevice,
		SessionToken: "tok",
		ExpiresAt:    expires,
	}}
	h := NewAuthHandler(svc, true)

	rec := httptest.NewRecorder()
	req := postJSON("/login", `{"username":"alice","password":"Secret#123","rememberMe":true,"browserFingerprint":"fp"}`)
	req.Header.Set("User-Agent", "test-agent")
	h.HandleLogin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isNewDevice"])
	assert.Equal(t, userID.String(), body["userId"])
	assert.Equal(t, auth.MessageNewDevice, body["message"])
	assert.NotContains(t, body, "devConfirmationToken")

	assert.Equal(t, "203.0.113.7", svc.lastLogin.IP)
	assert.Equal(t, "test-agent", svc.lastLogin.UserAgent)
	assert.True(t, svc.lastLogin.RememberMe)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, middleware.SessionCookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.True(t, expires.Equal(c.Expires))
}

func TestHandleLogin_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"bad credentials", &auth.LoginError{Kind: auth.InvalidCredentials}, http.StatusUnauthorized, "invalid_credentials"},
		{"locked", &auth.LoginError{Kind: auth.AccountLocked, RetryAfterMinutes: 12}, http.StatusUnauthorized, "account_locked"},
		{"fingerprint", &auth.LoginError{Kind: auth.InvalidFingerprint}, http.StatusUnauthorized, "invalid_fingerprint"},
		{"server", &auth.LoginError{Kind: auth.ServerError, Err: errors.New("db")}, http.StatusUnauthorized, "server_error"},
		{"unexpected", errors.New("boom"), http.StatusUnauthorized, "server_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&stubAuth{loginErr: tt.err}, true)
			rec := httptest.NewRecorder()
			h.HandleLogin(rec, postJSON("/login", `{"username":"alice","password":"x","browserFingerprint":"fp"}`))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.NotEmpty(t, body["message"])
			assert.Equal(t, []any{tt.wantKind}, body["errors"])
			assert.Empty(t, rec.Result().Cookies())
			if tt.wantKind == "account_locked" {
				assert.Equal(t, "720", rec.Header().Get("Retry-After"))
				assert.Contains(t, body["message"], "12 minute")
			}
		})
	}
}

func TestHandleLogin_BadRequest(t *testing.T) {
	svc := &stubAuth{}
	h := NewAuthHandler(svc, true)
	for _, body := range []string{``, `{`, `[1]`} {
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, postJSON("/login", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, []any{"invalid_request"}, decodeBody(t, rec)["errors"], body)
	}
	assert.Empty(t, svc.lastLogin.Username, "undecodable bodies never reach the workflow")
}

func TestHandleLogin_EmptyCredentialsRunWorkflow(t *testing.T) {
	for _, body := range []string{
		`{"username":"alice","password":"","browserFingerprint":"fp"}`,
		`{"username":"","password":"Secret#123"}`,
		`{}`,
	} {
		called := false
		svc := &stubAuth{loginErr: &auth.LoginError{Kind: auth.AccountLocked, RetryAfterMinutes: 3}}
		h := NewAuthHandler(&recordingAuth{stubAuth: svc, called: &called}, true)

		rec := httptest.NewRecorder()
		h.HandleLogin(rec, postJSON("/login", body))

		assert.True(t, called, body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
		resp := decodeBody(t, rec)
		assert.Equal(t, []any{"account_locked"}, resp["errors"], body)
		assert.NotEmpty(t, resp["message"], body)
		assert.Equal(t, "180", rec.Header().Get("Retry-After"), body)
	}
}

// recordingAuth notes whether Login was reached
type recordingAuth struct {
	*stubAuth
	called *bool
}

func (r *recordingAuth) Login(ctx context.Context, in auth.LoginInput) (*auth.LoginResult, error) {
	*r.called = true
	return r.stubAuth.Login(ctx, in)
}

func TestHandleRegister(t *testing.T) {
	userID := uuid.New()
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"created", nil, http.StatusCreated},
		{"taken", auth.ErrUsernameTaken, http.StatusConflict},
		{"weak", auth.ErrWeakPassword, http.StatusBadRequest},
		{"username", auth.ErrInvalidUsername, http.StatusBadRequest},
		{"fingerprint", auth.ErrInvalidFingerprint, http.StatusBadRequest},
		{"server", errors.New("db"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubAuth{registerFn: func(in auth.RegisterInput) (model.User, error) {
				assert.Equal(t, "alice", in.Username)
				assert.Equal(t, "fp", in.Fingerprint)
				if tt.err != nil {
					return model.User{}, tt.err
				}
				return model.User{ID: userID, Username: in.Username}, nil
			}}
			rec := httptest.NewRecorder()
			NewAuthHandler(svc, true).HandleRegister(rec,
				postJSON("/register", `{"username":"alice","password":"Secret#123","browserFingerprint":"fp"}`))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.err == nil {
				assert.Equal(t, userID.String(), decodeBody(t, rec)["userId"])
			}
		})
	}
}

func TestHandleLogout(t *testing.T) {
	svc := &stubAuth{}
	h := NewAuthHandler(svc, false)

	req := postJSON("/logout", ``)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"tok"}, svc.loggedOut)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)

	rec = httptest.NewRecorder()
	h.HandleLogout(rec, postJSON("/logout", ``))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.loggedOut, 1)
}

func TestHandleMe(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, true)

	rec := httptest.NewRecorder()
	h.HandleMe(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	u := model.User{ID: uuid.New(), Username: "alice", IsAdmin: true}
	rec = httptest.NewRecorder()
	h.HandleMe(rec, withUser(httptest.NewRequest(http.MethodGet, "/me", nil), u))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":true,"user":{"id":"`+u.ID.String()+`","username":"alice","isAdmin":true}}`, rec.Body.String())
}

type fixedSession struct {
	user    model.User
	session model.Session
}

func (f fixedSession) ValidateSession(context.Context, string) (model.User, model.Session, error) {
	return f.user, f.session, nil
}

func TestHandleMe_ReportsSessionExpiry(t *testing.T) {
	u := model.User{ID: uuid.New(), Username: "alice"}
	expires := time.Date(2026, 11, 2, 9, 30, 0, 0, time.UTC)
	h := middleware.LoadSession(fixedSession{user: u, session: model.Session{UserID: u.ID, ExpiresAt: expires}})(
		http.HandlerFunc(NewAuthHandler(&stubAuth{}, true).HandleMe))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "2026-11-02T09:30:00Z", body["expiresAt"])
}

func TestHandleLoginHistory(t *testing.T) {
	reason := "bad_password"
	svc := &stubAuth{history: []model.LoginHistoryEntry{
		{Status: model.LoginSuccessTrusted, FingerprintHash: "abc", IPAddress: "1.2.3.4"},
		{Status: model.LoginFailure, FingerprintHash: "invalid", FailureReason: &reason},
	}}
	rec := httptest.NewRecorder()
	NewAuthHandler(svc, true).HandleLoginHistory(rec,
		withUser(httptest.NewRequest(http.MethodGet, "/login-history", nil), model.User{ID: uuid.New()}))

	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeBody(t, rec)["history"].([]any)
	require.Len(t, history, 2)
	assert.Equal(t, "success_trusted", history[0].(map[string]any)["status"])
	assert.Equal(t, "bad_password", history[1].(map[string]any)["failureReason"])
}

type stubDevices struct {
	devices   []model.Device
	updateErr error
	confirmFn func(uuid.UUID, string) (model.Device, error)
}

func (s *stubDevices) List(context.Context, uuid.UUID) ([]model.Device, error) {
	return s.devices, nil
}

func (s *stubDevices) Update(_ context.Context, _, deviceID uuid.UUID, upd auth.DeviceUpdate) (model.Device, error) {
	if s.updateErr != nil {
		return model.Device{}, s.updateErr
	}
	d := model.Device{ID: deviceID, DeviceName: "old"}
	if upd.DeviceName != nil {
		d.DeviceName = *upd.DeviceName
	}
	if upd.IsTrusted != nil {
		d.IsTrusted = *upd.IsTrusted
	}
	return d, nil
}

func (s *stubDevices) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return s.updateErr
}

func (s *stubDevices) Confirm(_ context.Context, userID uuid.UUID, token string) (model.Device, error) {
	return s.confirmFn(userID, token)
}

// routed runs h behind a chi route so URL params resolve
func routed(method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDeviceHandler(t *testing.T) {
	user := model.User{ID: uuid.New()}
	deviceID := uuid.New()

	t.Run("list", func(t *testing.T) {
		h := NewDeviceHandler(&stubDevices{devices: []model.Device{{ID: deviceID, DeviceName: "Chrome on Windows"}}})
		rec := httptest.NewRecorder()
		h.HandleList(rec, withUser(httptest.NewRequest(http.MethodGet, "/devices", nil), user))
		require.Equal(t, http.StatusOK, rec.Code)
		devices := decodeBody(t, rec)["devices"].([]any)
		require.Len(t, devices, 1)
		assert.Equal(t, "Chrome on Windows", devices[0].(map[string]any)["deviceName"])
		assert.Equal(t, false, devices[0].(map[string]any)["isTrusted"])
	})

	t.Run("update", func(t *testing.T) {
		h := NewDeviceHandler(&stubDevices{})
		req := withUser(httptest.NewRequest(http.MethodPut, "/devices/"+deviceID.String(),
			strings.NewReader(`{"deviceName":"Laptop","isTrusted":true}`)), user)
		rec := routed(http.MethodPut, "/devices/{id}", h.HandleUpdate, req)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Laptop", body["deviceName"])
		assert.Equal(t, true, body["isTrusted"])
	})

	for name, tt := range map[string]struct {
		err  error
		want int
	}{
		"forbidden": {auth.ErrForbidden, http.StatusForbidden},
		"missing":   {auth.ErrDeviceNotFound, http.StatusNotFound},
		"internal":  {errors.New("db"), http.StatusInternalServerError},
	} {
		t.Run("update "+name, func(t *testing.T) {
			h := NewDeviceHandler(&stubDevices{updateErr: tt.err})
			req := withUser(httptest.NewRequest(http.MethodPut, "/devices/"+deviceID.String(), strings.NewReader(`{}`)), user)
			assert.Equal(t, tt.want, routed(http.MethodPut, "/devices/{id}", h.HandleUpdate, req).Code)

			req = withUser(httptest.NewRequest(http.MethodDelete, "/devices/"+deviceID.String(), nil), user)
			assert.Equal(t, tt.want, routed(http.MethodDelete, "/devices/{id}", h.HandleDelete, req).Code)
		})
	}

	t.Run("bad id", func(t *testing.T) {
		h := NewDeviceHandler(&stubDevices{})
		req := withUser(httptest.NewRequest(http.MethodDelete, "/devices/nope", nil), user)
		assert.Equal(t, http.StatusNotFound, routed(http.MethodDelete, "/devices/{id}", h.HandleDelete, req).Code)
	})

	t.Run("confirm", func(t *testing.T) {
		h := NewDeviceHandler(&stubDevices{confirmFn: func(id uuid.UUID, token string) (model.Device, error) {
			assert.Equal(t, user.ID, id)
			if token != "good" {
				return model.Device{}, auth.ErrInvalidDeviceToken
			}
			return model.Device{ID: deviceID, IsTrusted: true}, nil
		}})
		rec := httptest.NewRecorder()
		h.HandleConfirm(rec, withUser(postJSON("/devices/confirm", `{"token":"good"}`), user))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		h.HandleConfirm(rec, withUser(postJSON("/devices/confirm", `{"token":"bad"}`), user))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = httptest.NewRecorder()
		h.HandleConfirm(rec, withUser(postJSON("/devices/confirm", `{}`), user))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

type stubCatalog struct {
	filter    repo.AttractionFilter
	created   catalog.AttractionInput
	favorites map[uuid.UUID]bool
	feedback  []catalog.FeedbackInput
	known     uuid.UUID
}

func (s *stubCatalog) ListAttractions(_ context.Context, f repo.AttractionFilter) ([]model.Attraction, error) {
	s.filter = f
	return []model.Attraction{{ID: s.known, Name: "Museum"}}, nil
}

func (s *stubCatalog) GetAttraction(_ context.Context, id uuid.UUID) (model.Attraction, error) {
	if id != s.known {
		return model.Attraction{}, catalog.ErrAttractionNotFound
	}
	return model.Attraction{ID: id, Name: "Museum"}, nil
}

func (s *stubCatalog) CreateAttraction(_ context.Context, in catalog.AttractionInput) (model.Attraction, error) {
	s.created = in
	rating, err := catalog.ParseRating(in.Rating)
	if err != nil {
		return model.Attraction{}, err
	}
	a := model.Attraction{ID: uuid.New(), Name: *in.Name, Rating: catalog.DefaultRating}
	if rating != nil {
		a.Rating = *rating
	}
	return a, nil
}

func (s *stubCatalog) UpdateAttraction(_ context.Context, id uuid.UUID, _ catalog.AttractionInput) (model.Attraction, error) {
	return s.GetAttraction(context.Background(), id)
}

func (s *stubCatalog) DeleteAttraction(_ context.Context, id uuid.UUID) error {
	_, err := s.GetAttraction(context.Background(), id)
	return err
}

func (s *stubCatalog) Favorites(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0)
	for id := range s.favorites {
		out = append(out, id)
	}
	return out, nil
}

func (s *stubCatalog) AddFavorite(_ context.Context, _, attractionID uuid.UUID) error {
	if attractionID != s.known {
		return catalog.ErrAttractionNotFound
	}
	s.favorites[attractionID] = true
	return nil
}

func (s *stubCatalog) RemoveFavorite(_ context.Context, _, attractionID uuid.UUID) error {
	delete(s.favorites, attractionID)
	return nil
}

func (s *stubCatalog) SubmitFeedback(_ context.Context, in catalog.FeedbackInput) (model.Feedback, error) {
	if in.Message == "" {
		return model.Feedback{}, &catalog.ValidationError{Field: "message", Message: "is required"}
	}
	s.feedback = append(s.feedback, in)
	return model.Feedback{ID: 1, Message: in.Message}, nil
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{known: uuid.New(), favorites: map[uuid.UUID]bool{}}
}

func TestCatalogHandler_Attractions(t *testing.T) {
	svc := newStubCatalog()
	h := NewCatalogHandler(svc)

	t.Run("list with filters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleListAttractions(rec, httptest.NewRequest(http.MethodGet, "/attractions?q=mus&category=art&tag=indoor&minRating=4", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "mus", svc.filter.Query)
		assert.Equal(t, "art", svc.filter.Category)
		assert.Equal(t, "indoor", svc.filter.Tag)
		require.NotNil(t, svc.filter.MinRating)
		assert.Equal(t, 4.0, *svc.filter.MinRating)
		assert.Len(t, decodeBody(t, rec)["attractions"], 1)
	})

	t.Run("bad minRating", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleListAttractions(rec, httptest.NewRequest(http.MethodGet, "/attractions?minRating=high", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/attractions/"+svc.known.String(), nil)
		assert.Equal(t, http.StatusOK, routed(http.MethodGet, "/attractions/{id}", h.HandleGetAttraction, req).Code)

		req = httptest.NewRequest(http.MethodGet, "/attractions/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, routed(http.MethodGet, "/attractions/{id}", h.HandleGetAttraction, req).Code)
	})

	t.Run("create", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleCreateAttraction(rec, postJSON("/attractions", `{"name":"Zoo","rating":"4.5","tags":["family"]}`))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 4.5, decodeBody(t, rec)["rating"])
		assert.Equal(t, []string{"family"}, svc.created.Tags)

		rec = httptest.NewRecorder()
		h.HandleCreateAttraction(rec, postJSON("/attractions", `{"name":"Zoo","rating":"6"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "rating")
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/attractions/"+svc.known.String(), nil)
		rec := routed(http.MethodDelete, "/attractions/{id}", h.HandleDeleteAttraction, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	})
}

func TestCatalogHandler_Favorites(t *testing.T) {
	svc := newStubCatalog()
	h := NewCatalogHandler(svc)
	user := model.User{ID: uuid.New()}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.HandleAddFavorite(rec, withUser(postJSON("/favorites", `{"attractionId":"`+svc.known.String()+`"}`), user))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.HandleListFavorites(rec, withUser(httptest.NewRequest(http.MethodGet, "/favorites", nil), user))
	assert.JSONEq(t, `{"favorites":["`+svc.known.String()+`"]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.HandleAddFavorite(rec, withUser(postJSON("/favorites", `{"attractionId":"`+uuid.NewString()+`"}`), user))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleAddFavorite(rec, withUser(postJSON("/favorites", `{"attractionId":"nope"}`), user))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := withUser(httptest.NewRequest(http.MethodDelete, "/favorites/"+svc.known.String(), nil), user)
	rec = routed(http.MethodDelete, "/favorites/{attractionId}", h.HandleRemoveFavorite, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.favorites)
}

func TestCatalogHandler_Feedback(t *testing.T) {
	svc := newStubCatalog()
	h := NewCatalogHandler(svc)

	rec := httptest.NewRecorder()
	h.HandleSubmitFeedback(rec, postJSON("/feedback", `{"name":"Ada","message":"Lovely"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.HandleSubmitFeedback(rec, postJSON("/feedback", `{"name":"Ada"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, svc.feedback, 1)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(stubPinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{err: errors.New("down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
