// Package app provides application-level wiring and dependency injection:
// repositories onto the right connection pools, services onto repositories,
// and the HTTP router onto the services.
package app

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"dotasync/internal/api"
	"dotasync/internal/config"
	"dotasync/internal/db/repository"
	"dotasync/internal/middleware"
	"dotasync/internal/provider/opendota"
	syncsvc "dotasync/internal/service/sync"
	"dotasync/internal/service/usage"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Sync      *syncsvc.Service
	Usage     *usage.Service
	Scheduler *syncsvc.Scheduler
	Provider  *opendota.Client
}

// New wires repositories, the upstream client, and services from the
// provided deps. Repositories that INSERT/UPDATE use the write pool; the
// read-only ledger aggregations use the read pool.
func New(deps Deps) *App {
	cfg := deps.Cfg

	jobRepo := repository.NewSyncJobRepo(deps.WriteDB)
	matchRepo := repository.NewMatchRepo(deps.WriteDB)
	ledgerRepo := repository.NewAPICallRepo(deps.WriteDB)
	ledgerReadRepo := repository.NewAPICallRepo(deps.ReadDB)

	provider := opendota.NewClient(opendota.Config{
		BaseURL:      cfg.OpenDota.BaseURL,
		APIKey:       cfg.OpenDota.APIKey,
		RateLimitRPS: cfg.OpenDota.RateLimitRPS,
		Timeout:      cfg.OpenDota.Timeout,
	}, ledgerRepo, deps.Logger)

	syncService := syncsvc.NewService(jobRepo, matchRepo, provider, deps.Logger)
	usageService := usage.NewService(ledgerReadRepo, provider.HasAPIKey(), deps.Logger)
	scheduler := syncsvc.NewScheduler(syncService, jobRepo, cfg.SyncSchedule, deps.Logger)

	return &App{
		Sync:      syncService,
		Usage:     usageService,
		Scheduler: scheduler,
		Provider:  provider,
	}
}

// Router builds the chi router with the standard middleware chain and all
// API routes mounted.
func (a *App) Router(cfg *config.Config, logger *slog.Logger) http.Handler {
	handler := api.NewHandler(a.Sync, a.Usage, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.AccountHeader, "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	handler.Routes(r)
	return r
}
