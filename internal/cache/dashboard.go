package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/supawave/pos-ecosystem/backend-go/internal/config"
	"github.com/supawave/pos-ecosystem/backend-go/internal/domain"
)

const (
	forecastDashboardKeyPrefix = "forecast:dashboard"
	scanBatchSize              = 100
)

// ForecastDashboardCache stores the computed reorder dashboard per business.
// A miss is reported as (nil, false, nil).
type ForecastDashboardCache interface {
	GetDashboard(ctx context.Context, businessID string) (*domain.ForecastDashboard, bool, error)
	SetDashboard(ctx context.Context, businessID string, dashboard *domain.ForecastDashboard) error
	Invalidate(ctx context.Context, businessID string) error
	InvalidateAll(ctx context.Context) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

func NewDashboardCache(cfg config.CacheConfig) (ForecastDashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{
		client: client,
		ttl:    dashboardTTL(cfg),
	}, nil
}

func NewNoopDashboardCache() ForecastDashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) GetDashboard(ctx context.Context, businessID string) (*domain.ForecastDashboard, bool, error) {
	payload, err := c.client.Get(ctx, dashboardKey(businessID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var dashboard domain.ForecastDashboard
	if err := json.Unmarshal(payload, &dashboard); err != nil {
		return nil, false, fmt.Errorf("decode forecast dashboard cache: %w", err)
	}

	return &dashboard, true, nil
}

func (c *redisDashboardCache) SetDashboard(ctx context.Context, businessID string, dashboard *domain.ForecastDashboard) error {
	payload, err := json.Marshal(dashboard)
	if err != nil {
		return fmt.Errorf("encode forecast dashboard cache: %w", err)
	}

	if err := c.client.Set(ctx, dashboardKey(businessID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisDashboardCache) Invalidate(ctx context.Context, businessID string) error {
	if err := c.client.Del(ctx, dashboardKey(businessID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	removed, err := purgePrefix(ctx, c.client, forecastDashboardKeyPrefix+":", scanBatchSize)
	if err != nil {
		return err
	}
	log.Info().Int("keys", removed).Msg("cache: flushed forecast dashboards")
	return nil
}

func (n *noopDashboardCache) GetDashboard(ctx context.Context, businessID string) (*domain.ForecastDashboard, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetDashboard(ctx context.Context, businessID string, dashboard *domain.ForecastDashboard) error {
	return nil
}

func (n *noopDashboardCache) Invalidate(ctx context.Context, businessID string) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func dashboardKey(businessID string) string {
	return fmt.Sprintf("%s:%s", forecastDashboardKeyPrefix, strings.TrimSpace(businessID))
}
