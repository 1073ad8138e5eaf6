package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/rsepme/rsemodule/internal/access"
	"github.com/rsepme/rsemodule/internal/config"
	"github.com/rsepme/rsemodule/internal/database"
	"github.com/rsepme/rsemodule/internal/handler/health"
	"github.com/rsepme/rsemodule/internal/migrations"
	"github.com/rsepme/rsemodule/internal/module"
	"github.com/rsepme/rsemodule/internal/progress"
	"github.com/rsepme/rsemodule/internal/server"
	"github.com/rsepme/rsemodule/internal/store"
	"github.com/rsepme/rsemodule/internal/tracking"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Database ---
	db, dialect, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db, dialect); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to database", "dialect", dialect)

	st := store.New(db, dialect)

	// --- Content ---
	modules := module.NewLoader()
	if err := modules.LoadBuiltin(); err != nil {
		return fmt.Errorf("loading builtin modules: %w", err)
	}
	if cfg.ContentDir != "" {
		if err := modules.LoadFromDir(logger, cfg.ContentDir); err != nil {
			return fmt.Errorf("loading modules from %s: %w", cfg.ContentDir, err)
		}
	}

	if err := server.Seed(ctx, logger, st, modules, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}

	checks := map[string]health.Checker{
		"database": dbChecker{db},
		"content": health.CheckFunc(func(context.Context) error {
			if len(modules.All()) == 0 {
				return errors.New("no module loaded")
			}
			return nil
		}),
	}

	// --- Wizard progress: Redis when configured ---
	var progressStore progress.Store = progress.NewMemoryStore()
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		progressStore = progress.NewRedisStore(rdb, cfg.ProgressTTL)
		checks["redis"] = redisChecker{rdb}
	} else {
		logger.Warn("REDIS_URL not set, keeping wizard progress in memory")
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Store:           st,
		Modules:         modules,
		Gate:            access.NewGate(st),
		Tracker:         tracking.NewTracker(st),
		Progress:        progressStore,
		Tokens:          server.NewTokens(cfg.TokenSecret, cfg.TokenTTL),
		Broker:          server.NewBroker(),
		ShareModuleName: cfg.ShareModule,
		CORSOrigins:     cfg.CORSOrigins,
		SPADir:          cfg.SPADir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
