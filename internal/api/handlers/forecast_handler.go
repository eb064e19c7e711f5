package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/supawave/pos-ecosystem/backend-go/internal/api/middleware"
	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
	"github.com/supawave/pos-ecosystem/backend-go/internal/forecast"
	"github.com/supawave/pos-ecosystem/backend-go/internal/service"
)

const insufficientHistoryMessage = "insufficient sales history"

type ForecastHandler struct {
	service *service.ForecastService
	timeout time.Duration
}

// NewForecastHandler builds the handler. timeout bounds catalog-wide runs;
// zero leaves them bound only by the request context.
func NewForecastHandler(service *service.ForecastService, timeout time.Duration) *ForecastHandler {
	return &ForecastHandler{service: service, timeout: timeout}
}

type forecastResponse struct {
	ProductID string `json:"product_id"`
	*domain.ForecastResult
	Message string `json:"message,omitempty"`
}

type trendResponse struct {
	ProductID string `json:"product_id"`
	*domain.TrendResult
	Message string `json:"message,omitempty"`
}

func (h *ForecastHandler) GetProductForecast(c *gin.Context) {
	productID := strings.TrimSpace(c.Param("productId"))

	var days int
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid days parameter",
				"details": "days must be a positive integer",
			})
			return
		}
		days = parsed
	}

	result, err := h.service.ForecastProduct(c.Request.Context(), middleware.BusinessID(c), productID, days)
	if err != nil {
		h.handleError(c, err, "failed to generate forecast")
		return
	}

	resp := forecastResponse{ProductID: productID, ForecastResult: result}
	if result.Insufficient() {
		resp.Message = insufficientHistoryMessage
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ForecastHandler) GetProductTrends(c *gin.Context) {
	productID := strings.TrimSpace(c.Param("productId"))

	result, err := h.service.AnalyzeProductTrend(c.Request.Context(), middleware.BusinessID(c), productID)
	if err != nil {
		h.handleError(c, err, "failed to analyze trends")
		return
	}

	resp := trendResponse{ProductID: productID, TrendResult: result}
	if result.Trend == domain.TrendInsufficientData {
		resp.Message = insufficientHistoryMessage
	}
	c.JSON(http.StatusOK, resp)
}

// GetRecommendations ranks reorders for the business. ?priority=critical,high
// narrows the list. A run cut short by the timeout answers 200 with the
// products evaluated so far and "partial": true.
func (h *ForecastHandler) GetRecommendations(c *gin.Context) {
	priorities, err := domain.ParsePriorities(c.Query("priority"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid priority parameter",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := h.runContext(c)
	defer cancel()

	report, err := h.service.RecommendReorders(ctx, middleware.BusinessID(c))
	if err != nil && !(report != nil && service.IsInterrupted(err)) {
		h.handleError(c, err, "failed to generate recommendations")
		return
	}
	if err != nil {
		logPartial(c, err, len(report.Recommendations))
	}

	c.JSON(http.StatusOK, report.WithPriorities(priorities))
}

// GetDashboard serves the cached dashboard; ?refresh=true recomputes it.
func (h *ForecastHandler) GetDashboard(c *gin.Context) {
	refresh := false
	if raw := strings.TrimSpace(c.Query("refresh")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid refresh parameter",
				"details": "refresh must be true or false",
			})
			return
		}
		refresh = parsed
	}

	ctx, cancel := h.runContext(c)
	defer cancel()

	businessID := middleware.BusinessID(c)
	var (
		dashboard *domain.ForecastDashboard
		err       error
	)
	if refresh {
		dashboard, err = h.service.RefreshDashboard(ctx, businessID)
	} else {
		dashboard, err = h.service.GetDashboard(ctx, businessID)
	}
	if err != nil && !(dashboard != nil && service.IsInterrupted(err)) {
		h.handleError(c, err, "failed to build forecast dashboard")
		return
	}
	if err != nil {
		logPartial(c, err, dashboard.TotalRecommendations)
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *ForecastHandler) ExportRecommendations(c *gin.Context) {
	ctx, cancel := h.runContext(c)
	defer cancel()

	result, err := h.service.ExportRecommendations(ctx, middleware.BusinessID(c))
	if err != nil && !(result != nil && service.IsInterrupted(err)) {
		h.handleError(c, err, "failed to export recommendations")
		return
	}
	if err != nil {
		logPartial(c, err, result.Items)
	}

	c.JSON(http.StatusCreated, result)
}

func logPartial(c *gin.Context, err error, items int) {
	log.Warn().
		Err(err).
		Str("business_id", middleware.BusinessID(c)).
		Int("items", items).
		Msg("reorder: returning partial results")
}

func (h *ForecastHandler) runContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func (h *ForecastHandler) handleError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case forecast.IsInvalidInput(err):
		status = http.StatusBadRequest
		message = "invalid request"
	case errors.Is(err, service.ErrExportUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("business_id", middleware.BusinessID(c)).Msg(message)
	}
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
