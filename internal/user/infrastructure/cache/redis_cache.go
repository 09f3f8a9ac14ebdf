// Package cache 基于 Redis 列表的推荐滑动窗口
package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wyfcoding/storefront/pkg/cache"
)

const keyPrefix = "user:recommendations:"

// RedisRecommendationCache 每个用户一个定长列表
type RedisRecommendationCache struct {
	redis *cache.RedisCache
	size  int64
}

// NewRedisRecommendationCache 创建 Redis 推荐缓存
func NewRedisRecommendationCache(redis *cache.RedisCache, size int) *RedisRecommendationCache {
	return &RedisRecommendationCache{redis: redis, size: int64(size)}
}

func (c *RedisRecommendationCache) Push(ctx context.Context, username string, productIDs []int64) error {
	values := make([]interface{}, len(productIDs))
	for i, id := range productIDs {
		values[i] = id
	}
	return c.redis.PushWindow(ctx, keyPrefix+username, c.size, values...)
}

func (c *RedisRecommendationCache) Get(ctx context.Context, username string) ([]int64, error) {
	vals, err := c.redis.LRange(ctx, keyPrefix+username, 0, -1)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(vals))
	for _, v := range vals {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt recommendation entry %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
