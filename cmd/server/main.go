// Package main is the entry point of the mentorship hub API server.
//
// Startup order: config, logger, Postgres (+ migrations), Redis (optional),
// event bus, application handlers, HTTP server. Shutdown runs in reverse.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alem-hub/mentorship-hub/config"

	// Application layer
	"github.com/alem-hub/mentorship-hub/internal/application/command"
	"github.com/alem-hub/mentorship-hub/internal/application/query"

	// Domain
	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
	"github.com/alem-hub/mentorship-hub/internal/domain/mentorship"
	"github.com/alem-hub/mentorship-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/alem-hub/mentorship-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/mentorship-hub/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/mentorship-hub/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/alem-hub/mentorship-hub/internal/interface/http"
	"github.com/alem-hub/mentorship-hub/internal/interface/http/handlers"

	"github.com/alem-hub/mentorship-hub/pkg/circuitbreaker"
	"github.com/alem-hub/mentorship-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Level:       logger.ParseLevel(cfg.Observability.LogLevel),
		Format:      cfg.Observability.LogFormat,
		AddCaller:   true,
		Development: cfg.IsDevelopment(),
	})
	defer func() { _ = log.Sync() }()

	log.Info("starting mentorship hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MinConns = int32(cfg.Database.MinConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	dbConn, err := postgres.NewConnection(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	if cfg.Database.RunMigrations {
		if err := migrate(ctx, dbConn); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	mentorships := postgres.NewMentorshipRepository(dbConn)
	requests := postgres.NewRequestRepository(dbConn)
	collaborations := postgres.NewCollaborationRepository(dbConn)
	notifications := postgres.NewNotificationRepository(dbConn)
	txManager := postgres.NewTxManager(dbConn, cfg.Database.LockTimeout)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache      *redis.Cache
		suggestionCache *redis.SuggestionCache
	)
	if cfg.Redis.Enabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// Suggestions are computed on every call without the cache.
			log.Warn("failed to connect to Redis, suggestion cache disabled", logger.Err(err))
		} else {
			defer func() { _ = redisCache.Close() }()
			breaker := circuitbreaker.New("suggestion-cache",
				circuitbreaker.WithFailureThreshold(3),
				circuitbreaker.WithCooldown(30*time.Second),
				circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
					log.Warn("circuit breaker state changed",
						logger.Component(name),
						logger.String("from", from.String()),
						logger.String("to", to.String()),
					)
				}),
			)
			suggestionCache = redis.NewSuggestionCache(redisCache, cfg.Redis.SuggestionTTL).WithBreaker(breaker)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	if err := eventBus.SubscribeAll(messaging.AuditLog(log)); err != nil {
		return fmt.Errorf("subscribe audit log: %w", err)
	}
	if suggestionCache != nil {
		for _, t := range []shared.EventType{
			shared.EventCollaborationProposed,
			shared.EventCollaborationAccepted,
			shared.EventCollaborationDeclined,
		} {
			if err := eventBus.Subscribe(t, suggestionCache.OnCollaborationEvent); err != nil {
				return fmt.Errorf("subscribe cache invalidation: %w", err)
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	deps := command.LifecycleDeps{
		Tx:             txManager,
		Requests:       requests,
		Collaborations: collaborations,
		Mentorships:    mentorships,
		Notifier:       notifications,
		Events:         eventBus,
		Logger:         log,
		TxAttempts:     cfg.Collaboration.TxRetryAttempts,
	}

	classifier := mentorship.NewClassifier(cfg.Collaboration.StrengthCutoff)
	matcher := collaboration.NewMatcher(cfg.Collaboration.MatchThreshold)

	// A nil *SuggestionCache must not reach the handler as a non-nil interface.
	var cache query.SuggestionCache
	if suggestionCache != nil {
		cache = suggestionCache
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.NewPingCheck(dbConn))
	if redisCache != nil {
		health.AddCheck("redis", handlers.NewPingCheck(redisCache))
	}

	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.EnableCORS = cfg.HTTP.EnableCORS
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.EnableMetrics = cfg.Observability.MetricsEnabled
	httpCfg.Version = cfg.App.Version

	httpServer := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		ProposeHandler: command.NewProposeCollaborationHandler(deps),
		AcceptHandler:  command.NewAcceptCollaborationHandler(deps),
		DeclineHandler: command.NewDeclineCollaborationHandler(deps),
		GetSuggestionsHandler: query.NewGetSuggestionsHandler(
			mentorships, mentorships, requests, collaborations,
			classifier, matcher, cache, log,
		),
		GetTraitsHandler: query.NewGetTraitsHandler(mentorships, mentorships, classifier),
		Logger:           log,
		HealthChecker:    health,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 8. RUN UNTIL SIGNALLED
	// ─────────────────────────────────────────────────────────────────────────
	errCh := httpServer.StartAsync()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", logger.Err(err))
	}

	log.Info("shutdown complete")
	return nil
}

func migrate(ctx context.Context, conn *postgres.Connection) error {
	migrator, err := postgres.NewMigrator(conn)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
