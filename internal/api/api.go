// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/supawave/pos-ecosystem/backend-go/internal/api/handlers"
	"github.com/supawave/pos-ecosystem/backend-go/internal/api/middleware"
	"github.com/supawave/pos-ecosystem/backend-go/internal/service"
)

type Services struct {
	ForecastService *service.ForecastService
	// RequestTimeout bounds every API request; zero disables it.
	RequestTimeout time.Duration
	// RecommendationTimeout bounds catalog-wide runs; zero disables it.
	RecommendationTimeout time.Duration
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.BusinessIDHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")
	if services != nil {
		apiGroup.Use(middleware.RequestTimeout(services.RequestTimeout))
	}

	if services != nil && services.ForecastService != nil {
		forecastHandler := handlers.NewForecastHandler(services.ForecastService, services.RecommendationTimeout)
		forecastGroup := apiGroup.Group("/forecasting", middleware.BusinessScope())
		{
			forecastGroup.GET("/products/:productId/forecast", forecastHandler.GetProductForecast)
			forecastGroup.GET("/products/:productId/trends", forecastHandler.GetProductTrends)
			forecastGroup.GET("/recommendations", forecastHandler.GetRecommendations)
			forecastGroup.POST("/recommendations/export", forecastHandler.ExportRecommendations)
			forecastGroup.GET("/dashboard", forecastHandler.GetDashboard)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
