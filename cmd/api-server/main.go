package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"novelhub/database"
	"novelhub/internal/api/handler"
	"novelhub/internal/api/middleware"
	"novelhub/internal/cache"
	"novelhub/internal/config"
	"novelhub/internal/ingestion/googlebooks"
	"novelhub/internal/ingestion/royalroad"
	"novelhub/internal/repository"
	"novelhub/internal/resolver"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	// Redis is optional; the resolver works without the hot cache
	var hot *cache.ListingCache
	if cfg.RedisAddr != "" {
		hot, err = cache.NewListingCache(cfg.RedisAddr, cfg.RedisPassword, cfg.ListingCacheTTL, logger)
		if err != nil {
			logger.Warn("redis unavailable, continuing without hot cache", "error", err)
			hot = nil
		}
	}

	primary := royalroad.NewClient(royalroad.Config{
		BaseURL:    cfg.RoyalRoadBaseURL,
		Timeout:    cfg.RoyalRoadTimeout,
		RatePerSec: float64(cfg.RoyalRoadRate),
	})
	secondary := googlebooks.NewClient(cfg.GoogleBooksBaseURL, cfg.GoogleBooksTimeout)

	repo := repository.NewNovelRepo(db)
	svc := resolver.New(repo, primary, secondary, secondary, hot, logger)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/check-conn", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "API is alive and database connected"})
	})

	api := r.Group("/")
	if cfg.AuthEnabled() {
		api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		logger.Info("request authentication enabled")
	}
	handler.NewNovelHandler(svc).RegisterRoutes(api)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("server starting", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
