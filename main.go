// Drug interaction API server with clean separation of concerns:
// canonicalization, a cached model-backed pipeline, a deterministic rule
// engine, and a drug/pharmacy directory refreshed from scraper output files.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mokokaf/interactions-api/config"
	"github.com/mokokaf/interactions-api/directory"
	"github.com/mokokaf/interactions-api/handlers"
	"github.com/mokokaf/interactions-api/interfaces"
	"github.com/mokokaf/interactions-api/logging"
	"github.com/mokokaf/interactions-api/modelclient"
	"github.com/mokokaf/interactions-api/parser"
	"github.com/mokokaf/interactions-api/pipeline"
	"github.com/mokokaf/interactions-api/server"
	"github.com/mokokaf/interactions-api/store"
)

func main() {
	// Best effort: env vars may come from the environment directly.
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogDir, cfg.SlogLevel())

	cacheTTL := time.Duration(cfg.CacheTTLHours) * time.Hour
	limitWindow := time.Duration(cfg.RateLimitWindowSec) * time.Second

	var (
		interactionStore interfaces.Store
		limiter          interfaces.RateLimiter
	)
	if strings.EqualFold(cfg.CacheBackend, "redis") {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		interactionStore = store.NewRedisStore(client, cacheTTL)
		limiter = store.NewRedisLimiter(client, cfg.RateLimitRequests, limitWindow)
		logging.Info("Using redis cache backend", "addr", cfg.RedisAddr)
	} else {
		interactionStore = store.NewMemoryStore(cacheTTL)
		limiter = store.NewFixedWindowLimiter(cfg.RateLimitRequests, limitWindow)
	}

	client := modelclient.New(modelclient.Options{
		APIURL:        cfg.LLMAPIURL,
		APIKey:        cfg.LLMAPIKey,
		Model:         cfg.LLMModel,
		MaxTokens:     cfg.LLMMaxTokens,
		SearchDomains: cfg.SearchDomains,
		FullTimeout:   time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		QuickTimeout:  time.Duration(cfg.QuickTimeoutSeconds) * time.Second,
	})

	resolver := pipeline.NewResolver(client, interactionStore, parser.KeywordClassifier{})
	interactionHandler := handlers.NewInteractionHandler(resolver, interactionStore, limiter)

	// Directory data is optional: the interaction endpoints work without it.
	dirContainer := directory.NewContainer()
	dirScheduler := directory.NewScheduler(dirContainer, cfg.CatalogFile, cfg.PharmaciesFile)
	if err := dirScheduler.Start(); err != nil {
		logging.Warn("Directory data unavailable, catalog endpoints will be empty", "error", err)
	}
	defer dirScheduler.Stop()

	srv := server.NewServer(cfg, interactionHandler, dirContainer)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}
