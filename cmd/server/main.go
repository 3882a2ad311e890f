package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"Spillit/internal/api/routes"
	"Spillit/internal/config"
	"Spillit/internal/core/follows"
	"Spillit/internal/core/identity"
	"Spillit/internal/core/posts"
	"Spillit/internal/core/sessions"
	"Spillit/internal/core/signing"
	"Spillit/internal/core/users"
	postgresRepo "Spillit/internal/db/postgres"
	"Spillit/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(cfg.NewLogger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	discoveryCache, closeCache, err := newDiscoveryCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	exchanger, err := identity.NewExchanger(identity.Config{
		ClientID:            cfg.GoogleClientID,
		ClientSecret:        cfg.GoogleClientSecret,
		DiscoveryURL:        cfg.GoogleDiscoveryURL,
		Scopes:              cfg.GoogleScopes,
		AllowedRedirectURIs: cfg.AllowedRedirectURIs,
	}, discoveryCache, identity.NewJWKSVerifier(httpClient, cfg.DiscoveryCacheTTL), httpClient)
	if err != nil {
		return err
	}

	signer, err := signing.NewSigner([]byte(cfg.SessionSecret))
	if err != nil {
		return fmt.Errorf("session signer: %w", err)
	}

	// Initialize repositories and services
	userRepo := postgresRepo.NewUserRepository(db)
	sessionRepo := postgresRepo.NewSessionRepository(db)
	followRepo := postgresRepo.NewFollowRepository(db)
	postRepo := postgresRepo.NewPostRepository(db)

	userService := users.NewUserService(userRepo)
	sessionService := sessions.NewService(sessionRepo, userService, signer)
	followService := follows.NewFollowService(followRepo, userService)
	postService := posts.NewPostService(postRepo, userService, followService)

	stopSweeper := sessions.StartSweeper(sessionRepo, cfg.SessionSweepInterval)
	defer stopSweeper()

	router := routes.NewRouter(routes.Dependencies{
		Exchanger:      exchanger,
		Sessions:       sessionService,
		Users:          userService,
		Follows:        followService,
		Posts:          postService,
		Metrics:        metrics.New(),
		AllowedOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("spillit api starting", "addr", cfg.HTTPAddr, "env", cfg.Env)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	slog.Info("connected to database")

	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, cfg.MigrationsDir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("migrations completed")

	return db, nil
}

// newDiscoveryCache returns a Redis-backed cache when SPILLIT_REDIS_URL is
// set and an in-process one otherwise.
func newDiscoveryCache(ctx context.Context, cfg *config.Config) (identity.DiscoveryCache, func(), error) {
	if cfg.RedisURL == "" {
		slog.Info("using in-memory discovery cache")
		return identity.NewMemoryDiscoveryCache(4, cfg.DiscoveryCacheTTL), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid SPILLIT_REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// The exchanger falls back to fetching when the cache errors
		slog.Warn("redis unreachable at startup", "error", err)
	}
	slog.Info("using redis discovery cache", "addr", opts.Addr)

	return identity.NewRedisDiscoveryCache(client, "spillit:", cfg.DiscoveryCacheTTL), func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}, nil
}
