// AI Forge API Server
// Wires configuration into the generation pipeline and the HTTP router

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ai-forge/internal/ai"
	"ai-forge/internal/config"
	"ai-forge/internal/db"
	"ai-forge/internal/generation"
	"ai-forge/internal/handlers"
	"ai-forge/internal/logging"
	"ai-forge/internal/metrics"
	"ai-forge/internal/middleware"
	"ai-forge/internal/usage"
	"ai-forge/internal/workspace"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxRequestBody bounds JSON bodies; download requests carry whole projects
const maxRequestBody = 32 << 20

// Server holds every long-lived dependency of the service
type Server struct {
	cfg *config.Config

	AIClient  ai.StructuredClient
	Provider  workspace.Provider
	Pipeline  *generation.Pipeline
	Database  *db.Database
	Tracker   *usage.Tracker
	collector *metrics.RuntimeCollector
	limiter   *middleware.IPRateLimiter
	cancel    context.CancelFunc
}

// NewServer builds the model client, workspace provider, run history and
// pipeline described by cfg
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	client, err := ai.NewClient(ctx, ai.ClientConfig{
		Provider:     cfg.AIProvider,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		OllamaHost:   cfg.OllamaHost,
		OllamaModel:  cfg.OllamaModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	provider, err := NewWorkspaceProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, AIClient: client, Provider: provider}

	var recorder generation.RunRecorder
	if cfg.RunHistoryEnabled {
		database, err := db.NewDatabase(&db.Config{
			URL:        cfg.DatabaseURL,
			SQLitePath: cfg.DatabasePath,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open run history: %w", err)
		}
		s.Database = database
		s.Tracker = usage.NewTracker(database.GetDB())
		recorder = s.Tracker
	}

	gen := ai.NewGenerator(client, cfg.GenerationTimeout)
	if cfg.GenerationTemperature != nil {
		gen.WithTemperature(*cfg.GenerationTemperature)
	}
	planner := generation.NewPlanner(gen)
	materializer := workspace.NewMaterializer(provider, cfg.WriteConcurrency)
	s.Pipeline = generation.NewPipeline(planner, materializer, recorder)

	return s, nil
}

// NewWorkspaceProvider returns the provider named by cfg.WorkspaceProvider
func NewWorkspaceProvider(ctx context.Context, cfg *config.Config) (workspace.Provider, error) {
	switch cfg.WorkspaceProvider {
	case config.WorkspaceDocker:
		p, err := workspace.NewDockerProvider(workspace.DockerConfig{
			Host:       cfg.DockerHost,
			Image:      cfg.WorkspaceImage,
			Root:       cfg.WorkspaceRoot,
			TTL:        cfg.WorkspaceTTL,
			PullImages: cfg.PullImages,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create docker workspace provider: %w", err)
		}
		return p, nil
	case config.WorkspaceS3:
		p, err := workspace.NewS3Provider(ctx, workspace.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Prefix:          cfg.S3Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 workspace provider: %w", err)
		}
		return p, nil
	case config.WorkspaceLocal, "":
		p, err := workspace.NewLocalProvider(cfg.WorkspaceDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create local workspace provider: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported workspace provider %q", cfg.WorkspaceProvider)
	}
}

// Start launches background work: local workspace expiry and runtime metrics
func (s *Server) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	if local, ok := s.Provider.(*workspace.LocalProvider); ok && s.cfg.WorkspaceTTL > 0 {
		interval := s.cfg.WorkspaceTTL / 4
		if interval < time.Minute {
			interval = time.Minute
		}
		go local.RunSweeper(ctx, s.cfg.WorkspaceTTL, interval)
	}

	var gdb *gorm.DB
	if s.Database != nil {
		gdb = s.Database.GetDB()
	}
	s.collector = metrics.NewRuntimeCollector(gdb, 30*time.Second)
	s.collector.Start(ctx)
}

// Router builds the gin engine with middleware and all routes
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger("/health", "/metrics"))
	router.Use(middleware.CORS(s.cfg.AllowedOrigins))
	router.Use(middleware.Security())
	router.Use(metrics.PrometheusMiddleware())

	var runs handlers.RunLister
	if s.Tracker != nil {
		runs = s.Tracker
	}
	h := handlers.NewHandler(s.Pipeline, runs, s.AIClient, s.Provider)

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", metrics.PrometheusHandler())

	s.limiter = middleware.NewIPRateLimiter(s.cfg.RateLimitPerMinute, s.cfg.RateLimitBurst)
	api := router.Group("/api/v1", middleware.BodyLimit(maxRequestBody))
	h.RegisterRoutes(api, middleware.RateLimit(s.limiter))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.StandardResponse{
			Success: false,
			Error:   "Route not found",
			Code:    "NOT_FOUND",
		})
	})

	return router
}

// Close releases background work and connections
func (s *Server) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.collector != nil {
		s.collector.Stop()
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if closer, ok := s.Provider.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logging.L().Warn("failed to close workspace provider", zap.Error(err))
		}
	}
	if s.Database != nil {
		if err := s.Database.Close(); err != nil {
			logging.L().Warn("failed to close database", zap.Error(err))
		}
	}
}
