package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kataras/golog"

	"leadfinder/internal/config"
	"leadfinder/internal/handler"
	"leadfinder/internal/navigator"
	"leadfinder/internal/ratelimit"
	"leadfinder/internal/repository"
	"leadfinder/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		golog.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	// Print version info
	golog.Infof("Sales Navigator Lead Finder")
	golog.Infof("Version: %s", Version)
	golog.Infof("Build Time: %s", BuildTime)
	golog.Infof("Git Commit: %s", GitCommit)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	var repo *repository.Repository
	if cfg.Database.SearchLogEnabled || cfg.RateLimit.Store == "sql" {
		repo, err = repository.NewRepository(
			cfg.Database.Driver,
			cfg.GetDatabaseDSN(),
			cfg.Database.MaxConnections,
			cfg.Database.MaxIdleConnections,
		)
		if err != nil {
			golog.Fatalf("Failed to connect to database: %v", err)
		}
		defer repo.Close()
		golog.Infof("✅ Connected to %s database", cfg.Database.Driver)
	}

	// Initialize rate limiter state store
	store, closeStore, err := newStateStore(cfg, repo)
	if err != nil {
		golog.Fatalf("Failed to initialize rate limiter store: %v", err)
	}
	defer closeStore()

	limits := ratelimit.LimitsFromConfig(cfg.RateLimit)
	limiter := ratelimit.New(context.Background(), limits, store)
	golog.Infof("✅ Rate limiter ready (store=%s, identity=%s)", cfg.RateLimit.Store, cfg.RateLimit.Identity)
	golog.Infof("   - Searches: %d/day, %d/hour", limits.SearchesPerDay, limits.SearchesPerHour)
	golog.Infof("   - Profiles: %d/day, %d/hour", limits.ProfilesPerDay, limits.ProfilesPerHour)

	// Initialize browser collaborators
	fetcher := navigator.NewChromeFetcher(cfg.Browser)
	defer fetcher.Close()

	extractor, err := navigator.NewHTMLExtractor(cfg.Browser.BaseURL)
	if err != nil {
		golog.Fatalf("Failed to initialize extractor: %v", err)
	}

	// Initialize services
	controller := service.NewProgressiveSearchController(fetcher, extractor, limiter, service.ControllerConfig{
		BaseURL:         cfg.Browser.BaseURL,
		InterLevelDelay: cfg.Search.InterLevelDelay,
	})

	var searchLogger service.SearchLogger
	var searchLogs handler.SearchLogReader
	var viewLogger handler.ProfileViewLogger
	if repo != nil && cfg.Database.SearchLogEnabled {
		searchLogger, searchLogs, viewLogger = repo, repo, repo
	}
	searchService := service.NewSearchService(controller, service.NewDefaultRanker(), searchLogger, limiter, cfg.Search)

	golog.Infof("✅ Services initialized")

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.AllowedOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Retry-After"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := limiter.GetStatus()
		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"service":       "leadfinder",
			"version":       Version,
			"build_time":    BuildTime,
			"git_commit":    GitCommit,
			"blocked":       status.Blocked,
			"persist_error": status.PersistError,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	handler.RegisterAPI(router.Group("/api/v1"),
		handler.NewSearchHandler(searchService, searchLogs, cfg.Search.MaxLimit),
		handler.NewRateLimitHandler(limiter),
		handler.NewProfileViewHandler(limiter, viewLogger),
	)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	golog.Infof("🚀 Starting server on %s", addr)

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			golog.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	golog.Infof("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		golog.Errorf("Server shutdown: %v", err)
	}
	golog.Infof("✅ Server stopped")
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the default golog logger
func setupLogging(cfg config.LoggingConfig) {
	golog.SetLevel(cfg.Level)
	if cfg.Format == "json" {
		golog.SetFormat("json", "  ")
	}
}

// newStateStore selects where the rate limiter state lives
func newStateStore(cfg *config.Config, repo *repository.Repository) (ratelimit.StateStore, func(), error) {
	switch cfg.RateLimit.Store {
	case "redis":
		store := ratelimit.NewRedisStore(ratelimit.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			Identity: cfg.RateLimit.Identity,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		golog.Infof("✅ Connected to Redis at %s", cfg.Redis.Addr)
		return store, func() { store.Close() }, nil
	case "sql":
		return repo.StateStore(cfg.RateLimit.Identity), func() {}, nil
	default:
		return ratelimit.NewFileStore(cfg.RateLimit.StateFile), func() {}, nil
	}
}
