package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/travelguide/server/internal/http/handlers"
	"github.com/travelguide/server/internal/logging"
	"github.com/travelguide/server/internal/middleware"
)

// Deps carries everything the router mounts
type Deps struct {
	Logger         zerolog.Logger
	Sessions       middleware.SessionValidator
	AuthLimiter    *middleware.RateLimiter
	Auth           *handlers.AuthHandler
	Devices        *handlers.DeviceHandler
	Catalog        *handlers.CatalogHandler
	Health         *handlers.HealthHandler
	MetricsHandler http.Handler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.RequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.LoadSession(d.Sessions))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", d.Health.ServeHTTP)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(d.AuthLimiter, middleware.GetIPKey))
		r.Post("/login", d.Auth.HandleLogin)
		r.Post("/register", d.Auth.HandleRegister)
	})
	r.Post("/logout", d.Auth.HandleLogout)
	r.Get("/me", d.Auth.HandleMe)

	r.Route("/attractions", func(r chi.Router) {
		r.Get("/", d.Catalog.HandleListAttractions)
		r.Get("/{id}", d.Catalog.HandleGetAttraction)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/", d.Catalog.HandleCreateAttraction)
			r.Put("/{id}", d.Catalog.HandleUpdateAttraction)
			r.Delete("/{id}", d.Catalog.HandleDeleteAttraction)
		})
	})

	r.Post("/feedback", d.Catalog.HandleSubmitFeedback)

	// Protected routes (require a valid session)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)

		r.Get("/login-history", d.Auth.HandleLoginHistory)

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", d.Catalog.HandleListFavorites)
			r.Post("/", d.Catalog.HandleAddFavorite)
			r.Delete("/{attractionId}", d.Catalog.HandleRemoveFavorite)
		})

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", d.Devices.HandleList)
			r.Post("/confirm", d.Devices.HandleConfirm)
			r.Put("/{id}", d.Devices.HandleUpdate)
			r.Delete("/{id}", d.Devices.HandleDelete)
		})
	})

	return r
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}` + "\n"))
}
