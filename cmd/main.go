// AI Forge server
// Prompt-to-project generation service
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-forge/internal/api"
	"ai-forge/internal/config"
	"ai-forge/internal/logging"
	"ai-forge/internal/metrics"

	"go.uber.org/zap"
)

func main() {
	envLoaded := config.LoadDotEnv()
	logging.Init()
	defer logging.Sync()

	log := logging.L()
	log.Info("starting AI Forge")
	if !envLoaded {
		log.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	cfg.LogSummary()

	metrics.Get().SetBuildInfo(getEnv("VERSION", "dev"), getEnv("GIT_COMMIT", "unknown"), getEnv("BUILD_DATE", "unknown"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := api.NewServer(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize server", zap.Error(err))
	}
	defer server.Close()
	server.Start(ctx)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	log.Info("server ready",
		zap.String("port", cfg.Port),
		zap.String("ai_provider", string(cfg.AIProvider)),
		zap.String("workspace_provider", cfg.WorkspaceProvider),
	)

	select {
	case err := <-serverErrors:
		log.Fatal("failed to start server", zap.Error(err))
	case <-ctx.Done():
		log.Info("shutdown signal received, draining requests")
	}

	// Generation runs can take a while; give in-flight requests the configured grace period
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("graceful shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
