package server

import (
	"context"
	"time"

	"github.com/wyfcoding/storefront/pkg/cache"
	"github.com/wyfcoding/storefront/pkg/config"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/grpcclient"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/middleware"
	"github.com/wyfcoding/storefront/pkg/mq"
	"github.com/wyfcoding/storefront/pkg/ratelimit"
	"google.golang.org/grpc"
)

// OpenDatabase memory 驱动返回 nil，由调用方改用内存仓储
func OpenDatabase(cfg *config.Config) (*db.DB, error) {
	if cfg.Database.Driver == "memory" {
		logger.Info(context.Background(), "Using in-memory repositories")
		return nil, nil
	}
	return db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
}

// OpenRedis 未配置 Redis 时返回 nil
func OpenRedis(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.RedisEnabled() {
		return nil, nil
	}
	return cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
}

// OpenKafka 未配置 broker 时返回 nil
func OpenKafka(cfg *config.Config) (*mq.KafkaProducer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	return mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
}

// Dial 连接下游服务
func Dial(cfg *config.Config, target string) (*grpc.ClientConn, error) {
	return grpcclient.NewClient(grpcclient.ClientConfig{
		Target:            target,
		ConnTimeout:       cfg.Client.ConnTimeout,
		RequestTimeout:    cfg.Client.RequestTimeout,
		KeepaliveInterval: cfg.Client.KeepaliveInterval,
	})
}

// RateLimitInterceptors 启用限流且 Redis 可用时返回限流拦截器
func RateLimitInterceptors(cfg *config.Config, redis *cache.RedisCache) []grpc.UnaryServerInterceptor {
	if !cfg.RateLimit.Enabled || redis == nil {
		return nil
	}
	limiter := ratelimit.NewRedisRateLimiter(redis.GetClient(), "ratelimit:"+cfg.ServiceName+":")
	limit := ratelimit.Limit{Rate: cfg.RateLimit.Rate, Burst: cfg.RateLimit.Burst, Period: cfg.RateLimit.Period}
	logger.Info(context.Background(), "gRPC rate limiting enabled", "rate", limit.Rate, "period", limit.Period)
	return []grpc.UnaryServerInterceptor{middleware.GRPCRateLimitInterceptor(limiter, limit)}
}

// BreakerTimeout 熔断打开时长
func BreakerTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Client.BreakerTimeout) * time.Second
}
