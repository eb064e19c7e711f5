// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supawave/pos-ecosystem/backend-go/internal/api"
	"github.com/supawave/pos-ecosystem/backend-go/internal/cache"
	"github.com/supawave/pos-ecosystem/backend-go/internal/config"
	"github.com/supawave/pos-ecosystem/backend-go/internal/forecast"
	"github.com/supawave/pos-ecosystem/backend-go/internal/repository/postgres"
	"github.com/supawave/pos-ecosystem/backend-go/internal/service"
	"github.com/supawave/pos-ecosystem/backend-go/internal/storage"
	"github.com/supawave/pos-ecosystem/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger.UseJSON(os.Stdout)
	}
	logger.SetLevel(cfg.Server.LogLevel)

	engine, err := forecast.NewEngine(cfg.Forecast.Params())
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid forecast configuration")
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Dashboard cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopDashboardCache()
	}

	exports, err := newExportStorage(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize export storage")
	}

	// Initialize services
	forecastService := service.NewForecastService(
		engine,
		postgres.NewCatalogRepository(db),
		postgres.NewSalesRepository(db, time.Now),
		dashboardCache,
		exports,
		time.Now,
	)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		ForecastService:       forecastService,
		RequestTimeout:        time.Duration(cfg.Server.RequestTimeout) * time.Second,
		RecommendationTimeout: time.Duration(cfg.Forecast.RecommendationTimeoutSecs) * time.Second,
	}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func newExportStorage(cfg *config.Config) (storage.ObjectStorage, error) {
	if !cfg.Storage.Enabled {
		return storage.NewLocalStorage(cfg.App.DataDir), nil
	}
	return storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	})
}
