/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the PTO approval engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (config.yaml + PTO_* environment)
  2. Build the zap logger
  3. Initialize SQLite store
  4. Wire the approval service over the store
  5. Configure HTTP router
  6. Start server with graceful shutdown

CONFIGURATION:
  See config/config.go. Key settings:
    server.port                    HTTP port (default 8080)
    database.path                  SQLite path, ":memory:" for ephemeral
    logger.level                   debug|info|warn|error
    approval.fallback_approver_id  Admin identity for approver-less chains

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  PTO_DATABASE_PATH=./data/pto.db ./server

  # Run with in-memory database
  PTO_DATABASE_PATH=":memory:" ./server

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/pto-engine/api"
	"github.com/warp/pto-engine/config"
	"github.com/warp/pto-engine/engine"
	"github.com/warp/pto-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	// Wire the approval service. The store implements every engine
	// collaborator interface.
	service := engine.NewService(store, store, store, store, store, store,
		engine.Config{FallbackApproverID: engine.UserID(cfg.Approval.FallbackApproverID)},
		logger)

	handler := api.NewHandler(store, service, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Addr()),
			zap.String("database", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func buildLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
