package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersAndHandler(t *testing.T) {
	m := New()
	m.LoginAttempts.WithLabelValues(OutcomeInvalidCredentials).Inc()
	m.LoginAttempts.WithLabelValues(OutcomeInvalidCredentials).Inc()
	m.AccountLocks.Inc()
	m.SessionsPurged.Add(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues(OutcomeInvalidCredentials)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountLocks))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsPurged))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `travelguide_login_attempts_total{outcome="invalid_credentials"} 2`)
	assert.Contains(t, rec.Body.String(), "travelguide_sessions_purged_total 3")
}

func TestMetrics_PrivateRegistries(t *testing.T) {
	a, b := New(), New()
	a.AccountLocks.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.AccountLocks))
}
