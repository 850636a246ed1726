package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/travelguide/server/internal/metrics"
	"github.com/travelguide/server/internal/repo"
)

// RunSessionJanitor periodically deletes expired sessions until ctx is done.
// ValidateSession already rejects expired rows, this only keeps the table small.
func RunSessionJanitor(ctx context.Context, sessions repo.SessionRepo, interval time.Duration, m *metrics.Metrics, logger zerolog.Logger) {
	if interval <= 0 {
		return
	}
	log := logger.With().Str("component", "session_janitor").Logger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			purgeExpiredSessions(ctx, sessions, now, m, log)
		}
	}
}

func purgeExpiredSessions(ctx context.Context, sessions repo.SessionRepo, now time.Time, m *metrics.Metrics, log zerolog.Logger) {
	n, err := sessions.DeleteExpired(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to purge expired sessions")
		return
	}
	if n > 0 {
		m.SessionsPurged.Add(float64(n))
		log.Info().Int64("purged", n).Msg("expired sessions purged")
	}
}
