package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"incentiva-engine/pkg/config"
	"incentiva-engine/pkg/db/pagination"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Cache is a short-TTL read-through over the leaderboard queries. Totals only
// ever grow, so a stale page understates a vendor briefly and is corrected on
// expiry; nothing is invalidated explicitly. All methods are nil-receiver safe
// so the service runs unchanged without redis.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

type CacheParams struct {
	fx.In

	Redis  *redis.Client `optional:"true"`
	Config *config.Config
}

func NewCache(p CacheParams) *Cache {
	if p.Redis == nil || p.Config.Ranking.CacheTTL <= 0 {
		return nil
	}
	return &Cache{rdb: p.Redis, ttl: p.Config.Ranking.CacheTTL}
}

func (c *Cache) GetPage(ctx context.Context, scope Scope, p pagination.Pagination) (*Page, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, pageKey(scope, p)).Bytes()
	if err != nil {
		return nil, false
	}
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		zap.L().Warn("dropping undecodable ranking cache entry", zap.Error(err))
		return nil, false
	}
	return &page, true
}

func (c *Cache) SetPage(ctx context.Context, scope Scope, p pagination.Pagination, page *Page) {
	if c == nil || page == nil {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, pageKey(scope, p), raw, c.ttl).Err(); err != nil {
		zap.L().Warn("failed to cache ranking page", zap.Error(err))
	}
}

func (c *Cache) GetPosition(ctx context.Context, scope Scope, memberID string) (int, bool) {
	if c == nil {
		return 0, false
	}
	raw, err := c.rdb.Get(ctx, positionKey(scope, memberID)).Result()
	if err != nil {
		return 0, false
	}
	pos, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return pos, true
}

func (c *Cache) SetPosition(ctx context.Context, scope Scope, memberID string, position int) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, positionKey(scope, memberID), strconv.Itoa(position), c.ttl).Err(); err != nil {
		zap.L().Warn("failed to cache ranking position", zap.Error(err))
	}
}

func pageKey(scope Scope, p pagination.Pagination) string {
	return fmt.Sprintf("%s:page:%d:%d", scope.cacheKey(), p.Page, p.PageSize)
}

func positionKey(scope Scope, memberID string) string {
	return fmt.Sprintf("%s:position:%s", scope.cacheKey(), memberID)
}
