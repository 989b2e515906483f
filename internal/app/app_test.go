package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotasync/internal/config"
	"dotasync/internal/db"
)

func newTestApp(t *testing.T) (*App, *config.Config) {
	t.Helper()

	writeDB, readDB := db.OpenTestSQLite(t)
	cfg := &config.Config{
		ListenAddr:         ":0",
		LogLevel:           "error",
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		CORSAllowedOrigins: []string{"*"},
	}
	a := New(Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return a, cfg
}

func TestApp_WiresAllServices(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t)
	require.NotNil(t, a.Sync)
	require.NotNil(t, a.Usage)
	require.NotNil(t, a.Scheduler)
	require.NotNil(t, a.Provider)
	assert.False(t, a.Provider.HasAPIKey())
}

func TestApp_RouterServesHealthAndAPI(t *testing.T) {
	t.Parallel()

	a, cfg := newTestApp(t)
	router := a.Router(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Sync routes demand the account header.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/sync/status", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/sync/status", nil)
	req.Header.Set("X-Account-ID", "42")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Usage routes do not.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/api-usage/summary", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApp_SchedulerDisabledWithoutSchedule(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t)
	require.NoError(t, a.Scheduler.Start())
	a.Scheduler.Stop()
}
