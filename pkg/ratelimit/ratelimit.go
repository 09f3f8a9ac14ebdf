// Package ratelimit 基于 Redis GCRA 的分布式限流
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimiter 按 key 判断请求是否放行
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit 每 Period 允许 Rate 次，Burst 为突发容量
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// Result 一次限流判定
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// Key 限流键：调用方主机 + 服务/方法。
// 端口不参与计算，同一主机的重连共享配额；包名前缀被去掉，例如
// "/checkout.v1.CheckoutService/ConfirmPurchase" 记为 "CheckoutService/ConfirmPurchase"。
func Key(caller net.Addr, fullMethod string) string {
	method := strings.TrimPrefix(fullMethod, "/")
	if slash := strings.Index(method, "/"); slash >= 0 {
		if dot := strings.LastIndex(method[:slash], "."); dot >= 0 {
			method = method[dot+1:]
		}
	}

	host := "unknown"
	if caller != nil {
		host = caller.String()
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
	}
	return host + "|" + method
}

// RedisRateLimiter 基于 redis_rate 的限流器
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
	prefix  string
}

// NewRedisRateLimiter 创建限流器，prefix 区分不同服务的键空间
func NewRedisRateLimiter(rdb *redis.Client, prefix string) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		prefix:  prefix,
	}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := r.limiter.Allow(ctx, r.prefix+key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed for %s: %w", key, err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}
