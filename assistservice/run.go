// Package assistservice boots the Waypoint assist service: configuration,
// store, collaborators, router, health probing, and graceful shutdown.
package assistservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/waypointhq/waypoint/server/internal/api"
	"github.com/waypointhq/waypoint/server/internal/assistant"
	"github.com/waypointhq/waypoint/server/internal/config"
	"github.com/waypointhq/waypoint/server/internal/geocode"
	"github.com/waypointhq/waypoint/server/internal/health"
	"github.com/waypointhq/waypoint/server/internal/logger"
	"github.com/waypointhq/waypoint/server/internal/services"
	"github.com/waypointhq/waypoint/server/internal/store"
	"github.com/waypointhq/waypoint/server/internal/store/postgres"
	"github.com/waypointhq/waypoint/server/internal/store/sqlite"
)

// Run starts the assist service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("assist-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Assist service starting")

	ctx, stop := newServerContext()
	defer stop()

	st, err := newStore(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Store adapter unavailable")
		return err
	}

	router := buildRouter(st, cfg, log)

	svcHealth := startHealthCheckers(ctx, cfg, log, st)
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}

// newStore picks the adapter the config asks for.
func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return postgres.NewWithDB(db), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

// buildRouter wires services to HTTP routes. The geo routes and the
// assistant turn endpoint degrade gracefully when their keys are absent.
func buildRouter(st store.Store, cfg *config.Config, log zerolog.Logger) http.Handler {
	var geocoder *geocode.Client
	var geoHandler *api.GeoHandler
	if cfg.GoogleMapsAPIKey != "" {
		geocoder = geocode.New(cfg.GoogleMapsAPIKey,
			time.Duration(cfg.GeocodeCacheTTLSeconds)*time.Second, log)
		geoHandler = api.NewGeoHandler(geocoder)
	} else {
		log.Warn().Msg("no Google Maps key configured; geo endpoints disabled")
	}

	var asst assistant.Assistant
	if cfg.OpenAIAPIKey != "" {
		asst = assistant.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, log)
	} else {
		log.Warn().Msg("no OpenAI key configured; assistant turns disabled")
	}

	providerSvc := services.NewProviderService(st)
	return api.NewRouter(api.Deps{
		Conversations: services.NewConversationService(st, asst, geocoder, providerSvc, log),
		Replay:        services.NewReplayService(st, log),
		Providers:     providerSvc,
		Geo:           geoHandler,
	})
}

// startHealthCheckers starts the store checker and the service aggregator,
// then binds the health endpoint to it.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// startupHealthTimeout is interval*2 with a floor of 60 seconds, giving the
// checkers time to finish their first probe cycle.
func startupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until the service reports healthy or the startup
// window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceChecker) error {
	timeoutSeconds := startupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a context cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
