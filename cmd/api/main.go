package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travelguide/server/internal/auth"
	"github.com/travelguide/server/internal/catalog"
	"github.com/travelguide/server/internal/config"
	"github.com/travelguide/server/internal/db"
	httphandler "github.com/travelguide/server/internal/http"
	"github.com/travelguide/server/internal/http/handlers"
	"github.com/travelguide/server/internal/logging"
	"github.com/travelguide/server/internal/metrics"
	"github.com/travelguide/server/internal/middleware"
	"github.com/travelguide/server/internal/repo"
)

func main() {
	// Load .env if present; real environment variables take precedence
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open database connection
	database, err := db.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	// Run migrations
	if err := db.Migrate(ctx, database); err != nil {
		return err
	}
	logger.Info().Msg("migrations applied")

	catalogDB := sqlx.NewDb(database, "postgres")

	// Initialize repositories
	repos := auth.Repos{
		Users:        repo.NewUserRepo(database),
		Fingerprints: repo.NewFingerprintRepo(database),
		Devices:      repo.NewDeviceRepo(database),
		Sessions:     repo.NewSessionRepo(database),
		History:      repo.NewLoginHistoryRepo(database),
	}

	// Initialize services
	m := metrics.New()
	deviceTokens := auth.NewDeviceTokenService(cfg.DeviceTokenSecret)
	authService, err := auth.NewAuthService(
		repos,
		auth.NewPasswordHasher(auth.DefaultArgon2Params()),
		deviceTokens,
		auth.NewLogNotifier(logger),
		m,
		logger,
		cfg.DevMode,
	)
	if err != nil {
		return err
	}
	deviceService := auth.NewDeviceService(repos.Devices, deviceTokens, logger)
	catalogService := catalog.NewService(
		repo.NewAttractionRepo(catalogDB),
		repo.NewFavoriteRepo(catalogDB),
		repo.NewFeedbackRepo(catalogDB),
		logger,
	)

	authLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst)
	defer authLimiter.Stop()

	// Create router
	router := httphandler.NewRouter(httphandler.Deps{
		Logger:         logger,
		Sessions:       authService,
		AuthLimiter:    authLimiter,
		Auth:           handlers.NewAuthHandler(authService, cfg.CookieSecure),
		Devices:        handlers.NewDeviceHandler(deviceService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Health:         handlers.NewHealthHandler(database),
		MetricsHandler: m.Handler(),
	})

	go auth.RunSessionJanitor(ctx, repos.Sessions, cfg.SessionCleanupInterval, m, logger)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Bool("dev_mode", cfg.DevMode).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info().Msg("server exited")
	return nil
}
