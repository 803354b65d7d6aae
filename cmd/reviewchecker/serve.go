package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	cacheadapter "github.com/ericfisherdev/reviewchecker/internal/adapter/driven/cache"
	githubadapter "github.com/ericfisherdev/reviewchecker/internal/adapter/driven/github"
	"github.com/ericfisherdev/reviewchecker/internal/adapter/driven/gitrepo"
	sqliteadapter "github.com/ericfisherdev/reviewchecker/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/reviewchecker/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/reviewchecker/internal/adapter/driving/web"
	"github.com/ericfisherdev/reviewchecker/internal/application"
	"github.com/ericfisherdev/reviewchecker/internal/config"
	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

const (
	redisKeyPrefix   = "reviewchecker:"
	memoryPurgeEvery = time.Minute
	readinessTimeout = 2 * time.Second
	shutdownTimeout  = 10 * time.Second
)

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configFile)
		},
	}
}

func runServe(parent context.Context, configFile string) error {
	// 1. Load configuration (fail fast on invalid settings).
	cfg, log, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	log.Info("config loaded",
		"env", cfg.Env,
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"cache_type", cfg.CacheType,
		"repo", cfg.Repo,
		"github_username", cfg.GitHubUsername,
		"github_token_set", cfg.HasGitHubToken(),
	)
	if !cfg.HasGitHubToken() {
		log.Warn("no github token configured, only public data is reachable at a low rate limit")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode) and migrate.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database opened", "path", cfg.DBPath)

	if err := sqliteadapter.RunMigrations(db.Writer.DB); err != nil {
		return err
	}
	log.Info("migrations complete")

	// 4. Metrics registry shared by the cache and HTTP layers.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	health := application.NewHealthService(readinessTimeout)
	health.Register("database", db)

	// 5. Cache backend.
	store, closeStore, err := newCacheStore(ctx, cfg, health, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 6. Driven adapters.
	locator := gitrepo.NewResolver(cfg.Repo, cfg.RepoPath)
	ghClient := githubadapter.NewClient(cfg.GitHubToken, cfg.GitHubUsername, locator)
	checkStore := sqliteadapter.NewCommentCheckRepo(db)

	// 7. Services.
	memo := application.NewMemoizer(cacheadapter.NewInstrumentedStore(store, reg), log)
	prSvc := application.NewPRService(ghClient, memo, log)
	checkSvc := application.NewCheckService(checkStore, prSvc, log)
	commentSvc := application.NewCommentService(ghClient, prSvc, log)

	if repo, err := prSvc.RepoInfo(ctx); err != nil {
		log.Warn("repository not resolved yet", "error", err)
	} else {
		log.Info("repository resolved", "repo", repo.FullName())
	}

	// 8. HTTP handlers.
	mux := http.NewServeMux()

	apiHandler := httphandler.NewHandler(checkSvc, commentSvc, health, webhandler.RenderMarkdown, log)
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	metrics := httphandler.NewMetrics(reg)
	mux.Handle("GET /metrics", metrics.Handler())

	webHandler := webhandler.NewHandler(prSvc, checkSvc, cfg.AppTitle, cfg.DefaultPRState, log)
	webhandler.RegisterRoutes(mux, webHandler)

	handler := httphandler.ApplyMiddleware(mux, log, metrics)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	log.Info("reviewchecker started", "listen_addr", cfg.ListenAddr, "app_title", cfg.AppTitle)

	// 9. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			log.Error("http server error", "error", err)
			return err
		}
	}

	// 10. Graceful shutdown.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}

// newCacheStore builds the configured cache backend. The memory store gets a
// background purge loop bound to ctx; the redis store is registered as a
// readiness probe.
func newCacheStore(
	ctx context.Context,
	cfg *config.Config,
	health *application.HealthService,
	log *slog.Logger,
) (driven.CacheStore, func(), error) {
	switch cfg.CacheType {
	case config.CacheRedis:
		store, err := cacheadapter.NewRedisStore(cfg.RedisURL, redisKeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Ping(ctx); err != nil {
			log.Warn("redis unreachable at startup, reads will bypass the cache", "error", err)
		}
		health.Register("cache", store)
		log.Info("cache backend ready", "type", config.CacheRedis)

		return store, func() {
			if err := store.Close(); err != nil {
				log.Error("error closing redis", "error", err)
			}
		}, nil

	default:
		store := cacheadapter.NewMemoryStore()
		go purgeLoop(ctx, store, log)
		log.Info("cache backend ready", "type", config.CacheMemory)

		return store, func() {}, nil
	}
}

func purgeLoop(ctx context.Context, store *cacheadapter.MemoryStore, log *slog.Logger) {
	ticker := time.NewTicker(memoryPurgeEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Purge(); n > 0 {
				log.Debug("expired cache entries purged", "count", n, "remaining", store.Len())
			}
		}
	}
}
