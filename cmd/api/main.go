package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pulsesignals/contract-relay/internal/config"
	"github.com/pulsesignals/contract-relay/internal/constants"
	"github.com/pulsesignals/contract-relay/internal/dexscreener"
	"github.com/pulsesignals/contract-relay/internal/events"
	"github.com/pulsesignals/contract-relay/internal/license"
	"github.com/pulsesignals/contract-relay/internal/livefeed"
	"github.com/pulsesignals/contract-relay/internal/moralis"
	"github.com/pulsesignals/contract-relay/internal/relay"
	"github.com/pulsesignals/contract-relay/internal/retry"
	"github.com/pulsesignals/contract-relay/internal/server"
	"github.com/pulsesignals/contract-relay/internal/storage/redisstore"
	"github.com/pulsesignals/contract-relay/internal/token"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the relay API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Initialize Redis client for the event log, enrichment cache and pub/sub
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0, // Use default database for main application
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	store, err := redisstore.NewStore(rclient, cfg.EventLogMaxLen)
	if err != nil {
		logger.WithError(err).Fatal("failed to create redis store")
	}

	// License storage: Postgres when configured, in-memory otherwise so
	// local development works without a database
	var licenses license.Store
	if cfg.DatabaseURL != "" {
		pg, err := license.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to Postgres")
		}
		licenses = pg
	} else {
		logger.Warn("DATABASE_URL not set, licenses are stored in memory")
		licenses = license.NewMemoryStore()
	}
	defer licenses.Close()

	// Upstream metadata providers
	dex := dexscreener.NewClient(cfg.DexScreenerBaseURL, cfg.HTTPTimeout)
	mor := moralis.NewClient(cfg.MoralisBaseURL, cfg.MoralisAPIKey, cfg.HTTPTimeout)

	// Deferred enrichment retry for tokens the secondary provider has not
	// indexed yet
	coordinator, err := retry.NewCoordinator(retry.CoordinatorDeps{
		KV:       store,
		Moralis:  mor,
		Delay:    cfg.RetryDelay,
		LockTTL:  cfg.RetryLockTTL,
		CacheTTL: cfg.TokenInfoTTL,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create retry coordinator")
	}

	tokenCache, err := token.NewCache(token.CacheDeps{
		KV:          store,
		DexScreener: dex,
		Moralis:     mor,
		Retry:       coordinator,
		TTL:         cfg.TokenInfoTTL,
		Logger:      logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create token cache")
	}

	// Live feed hub and the pub/sub bridge that feeds it
	hub := livefeed.NewHub(logger)
	eventStore := events.NewStore(store, logger)

	bridge, err := relay.NewBridge(rclient, constants.PubSubChannelContracts, eventStore, hub, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create relay bridge")
	}
	go func() {
		if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("relay bridge stopped")
		}
	}()

	// Periodic sweep that revokes licenses past their expiry
	go func() {
		ticker := time.NewTicker(cfg.ExpirySweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := licenses.RevokeExpired(ctx)
				if err != nil {
					logger.WithError(err).Warn("license expiry sweep failed")
					continue
				}
				if n > 0 {
					logger.WithField("revoked", n).Info("revoked expired licenses")
				}
			}
		}
	}()

	// Create handlers with all dependencies injected
	h := server.NewHandlers(server.Handlers{
		Events:   eventStore,
		Tokens:   tokenCache,
		Licenses: licenses,
		Hub:      hub,
		DevMode:  cfg.DevMode,
		Logger:   logger,
	})

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
