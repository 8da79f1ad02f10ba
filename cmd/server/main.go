// main wires the admission stack: config, logger, metrics, the identity
// oracle, both gates, and the HTTP server lifecycle. Business decisions live
// in the internal packages; this file only assembles them.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetgate/internal/gate/edge"
	"fleetgate/internal/gate/orggate"
	"fleetgate/internal/identity"
	"fleetgate/internal/metrics"
	"fleetgate/internal/onboarding"
	"fleetgate/internal/onboarding/store"
	"fleetgate/internal/platform/config"
	"fleetgate/internal/platform/database"
	"fleetgate/internal/platform/httpserver"
	"fleetgate/internal/platform/logger"
	"fleetgate/internal/platform/tracer"
	httptransport "fleetgate/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing fleetgate",
		"addr", cfg.Addr,
		"env", cfg.Env,
	)

	m := metrics.New()

	onboardingStore, cleanup, err := buildOnboardingStore(cfg, log)
	if err != nil {
		log.Error("onboarding store setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	resolver := identity.NewJWTResolver(cfg.SessionJWTKey, cfg.SessionIssuer)

	routes := edge.NewRouteTable(cfg.ExemptPrefixes, cfg.PublicPrefixes, cfg.AdminPrefixes)
	gate := edge.New(resolver, routes, cfg.LoginPath, cfg.LandingPath, log,
		edge.WithOracleTimeout(cfg.OracleTimeout),
		edge.WithMetrics(m),
		edge.WithTracer(tracer.NewOTel()),
	)

	checker := orggate.NewChecker(onboardingStore, log,
		orggate.WithCacheTTL(cfg.OnboardingCacheTTL),
		orggate.WithMetrics(m),
	)

	handler := httptransport.NewHandler(checker, cfg.TokenTTL, log, m)
	router := httptransport.NewRouter(handler, gate, httptransport.RouterConfig{
		OnboardingPath: cfg.OnboardingPath,
		OpsTokenHash:   cfg.OpsTokenHash,
	}, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// buildOnboardingStore picks the backing store from config. Postgres is the
// system of record when DATABASE_URL is set; a Redis layer in front is
// optional. With neither configured the in-memory store serves development.
func buildOnboardingStore(cfg config.Server, log *slog.Logger) (onboarding.Store, func(), error) {
	cleanup := func() {}

	if cfg.DatabaseURL == "" {
		log.Warn("no DATABASE_URL configured, using in-memory onboarding store")
		return store.NewMemory(), cleanup, nil
	}

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		return nil, cleanup, err
	}
	cleanup = func() { _ = pool.Close() }

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		cleanup()
		return nil, func() {}, err
	}

	var s onboarding.Store = store.NewPostgres(pool.DB())

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s = store.NewRedis(client, s, cfg.RedisTTL, log)
		prev := cleanup
		cleanup = func() {
			_ = client.Close()
			prev()
		}
		log.Info("redis onboarding cache enabled", "addr", cfg.RedisAddr)
	}

	return s, cleanup, nil
}
