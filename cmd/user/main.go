// UserService 主程序
// 功能：记录用户购买历史，维护与推荐服务的常驻流并缓存推荐结果
// 架构：基于 DDD（命令/查询分离）+ gRPC + Outbox + Kafka
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	recv1 "github.com/wyfcoding/storefront/go-api/recommendation/v1"
	invclient "github.com/wyfcoding/storefront/internal/inventory/client"
	"github.com/wyfcoding/storefront/internal/user/application"
	"github.com/wyfcoding/storefront/internal/user/domain"
	usercache "github.com/wyfcoding/storefront/internal/user/infrastructure/cache"
	"github.com/wyfcoding/storefront/internal/user/infrastructure/messaging"
	"github.com/wyfcoding/storefront/internal/user/infrastructure/persistence/memory"
	"github.com/wyfcoding/storefront/internal/user/infrastructure/persistence/mysql"
	"github.com/wyfcoding/storefront/internal/user/infrastructure/recommender"
	grpcserver "github.com/wyfcoding/storefront/internal/user/interfaces/grpc"
	"github.com/wyfcoding/storefront/pkg/auth"
	"github.com/wyfcoding/storefront/pkg/config"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/server"
)

var configPath = flag.String("config", config.GetEnv("APP_CONFIG", "configs/user/config.toml"), "config file path")

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := server.InitLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting UserService",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化追踪
	shutdownTracer := server.InitTracing(ctx, cfg)
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error(ctx, "Failed to shutdown tracer", "error", err)
		}
	}()

	// 4. 初始化 Redis（推荐缓存、限流）
	redisCache, err := server.OpenRedis(cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	if redisCache != nil {
		defer redisCache.Close()
	}

	// 5. 初始化 Kafka
	producer, err := server.OpenKafka(cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka producer", "error", err)
	}
	if producer != nil {
		defer producer.Close()
	}

	// 6. 初始化仓储
	var (
		userRepo   domain.UserRepository
		recCache   domain.RecommendationCache
		publisher  domain.UserEventPublisher = messaging.NoopPublisher{}
		transactor domain.Transactor
		tasks      []server.Task
	)
	database, err := server.OpenDatabase(cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	if database != nil {
		defer database.Close()
		if err := database.AutoMigrate(&domain.User{}); err != nil {
			logger.Fatal(ctx, "Failed to migrate database", "error", err)
		}
		userRepo = mysql.NewUserRepository(database.DB)
		transactor = database

		dbCache := mysql.NewRecommendationCache(database.DB, cfg.User.CacheSize)
		if err := dbCache.AutoMigrate(); err != nil {
			logger.Fatal(ctx, "Failed to migrate database", "error", err)
		}
		recCache = dbCache

		outbox := messaging.NewOutboxPublisher(database.DB)
		if err := outbox.AutoMigrate(); err != nil {
			logger.Fatal(ctx, "Failed to migrate database", "error", err)
		}
		publisher = outbox
		if producer != nil {
			tasks = append(tasks, func(ctx context.Context) error {
				outbox.RunRelay(ctx, producer, cfg.User.EventTopic, cfg.User.RelayInterval)
				return nil
			})
		}
	} else {
		userRepo = memory.NewUserRepository()
		recCache = memory.NewRecommendationCache(cfg.User.CacheSize)
	}
	if redisCache != nil {
		recCache = usercache.NewRedisRecommendationCache(redisCache, cfg.User.CacheSize)
	}

	// 7. 下游客户端
	inventoryConn, err := server.Dial(cfg, cfg.Endpoints.Inventory)
	if err != nil {
		logger.Fatal(ctx, "Failed to dial inventory service", "error", err)
	}
	defer inventoryConn.Close()
	recommendationConn, err := server.Dial(cfg, cfg.Endpoints.Recommendation)
	if err != nil {
		logger.Fatal(ctx, "Failed to dial recommendation service", "error", err)
	}
	defer recommendationConn.Close()

	metricsInstance := metrics.New(cfg.ServiceName)
	inventory := invclient.New(inventoryConn, "inventory", invclient.BreakerConfig{
		Failures: uint32(cfg.Client.BreakerFailures),
		Timeout:  server.BreakerTimeout(cfg),
	})

	// 8. 初始化应用服务；推荐流的结果回调写入本服务的缓存
	var userService *application.UserService
	recommendationStream := recommender.NewStream(
		recv1.NewRecommendationServiceClient(recommendationConn),
		cfg.User.ForwardQueueSize,
		cfg.User.ReconnectBackoff,
		func(ctx context.Context, username string, productIDs []int64) error {
			return userService.ApplyRecommendations(ctx, username, productIDs)
		},
		metricsInstance,
	)
	userService = application.NewUserService(application.Deps{
		Verifier:    auth.NewJWTVerifier(cfg.Auth.Secret),
		Repo:        userRepo,
		Cache:       recCache,
		Publisher:   publisher,
		Forwarder:   recommendationStream,
		Transactor:  transactor,
		Inventory:   inventory,
		LockStripes: cfg.User.LockStripes,
	})
	if err := userService.SeedUsers(ctx, cfg.User.SeedUsers); err != nil {
		logger.Fatal(ctx, "Failed to seed users", "error", err)
	}
	tasks = append(tasks, recommendationStream.Run)

	// 9. 创建服务器
	grpcServer := server.NewGRPCServer(cfg, metricsInstance, server.RateLimitInterceptors(cfg, redisCache)...)
	grpcserver.NewServer(grpcServer, userService)
	httpServer := server.NewHTTPServer(cfg, metricsInstance)

	// 10. 运行直到收到退出信号
	if err := server.Run(cfg, grpcServer, httpServer, tasks...); err != nil {
		logger.Error(ctx, "UserService exited with error", "error", err)
		os.Exit(1)
	}
}
