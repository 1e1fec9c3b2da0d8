package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tmakoni/omnibus/config"
	"github.com/tmakoni/omnibus/internal/domain"
)

type RedisCache struct {
	client    *redis.Client
	routesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, routesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		routesTTL: routesTTL,
	}
}

// GetRoutes returns the cached active route list, or nil on a miss.
func (c *RedisCache) GetRoutes(ctx context.Context) ([]domain.Route, error) {
	data, err := c.client.Get(ctx, routesKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var routes []domain.Route
	if err := json.Unmarshal(data, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

func (c *RedisCache) SetRoutes(ctx context.Context, routes []domain.Route) error {
	payload, err := json.Marshal(routes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, routesKey(), payload, c.routesTTL).Err()
}

// AcquireHold guards against a user double-submitting the same departure and
// date while the first request is in flight. Seat capacity itself is enforced
// inside the database transaction, not here.
func (c *RedisCache) AcquireHold(ctx context.Context, scheduleID int64, travelDate string, userID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, holdKey(scheduleID, travelDate, userID), "held", ttl).Result()
}

func (c *RedisCache) ReleaseHold(ctx context.Context, scheduleID int64, travelDate string, userID int64) error {
	return c.client.Del(ctx, holdKey(scheduleID, travelDate, userID)).Err()
}

func routesKey() string {
	return "cache:routes"
}

func holdKey(scheduleID int64, travelDate string, userID int64) string {
	return fmt.Sprintf("hold:schedule:%d:%s:user:%d", scheduleID, travelDate, userID)
}
