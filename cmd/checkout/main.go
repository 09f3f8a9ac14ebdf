// CheckoutService 主程序
// 功能：确认购买、维护累计统计并推送统计快照，向用户服务转发购买记录
// 架构：基于 DDD + gRPC + Kafka，库存调用带熔断
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	pb "github.com/wyfcoding/storefront/go-api/checkout/v1"
	userv1 "github.com/wyfcoding/storefront/go-api/user/v1"
	"github.com/wyfcoding/storefront/internal/checkout/application"
	"github.com/wyfcoding/storefront/internal/checkout/domain"
	"github.com/wyfcoding/storefront/internal/checkout/infrastructure/messaging"
	"github.com/wyfcoding/storefront/internal/checkout/infrastructure/notifier"
	"github.com/wyfcoding/storefront/internal/checkout/infrastructure/persistence/memory"
	"github.com/wyfcoding/storefront/internal/checkout/infrastructure/persistence/mysql"
	grpchandler "github.com/wyfcoding/storefront/internal/checkout/interfaces/grpc"
	invclient "github.com/wyfcoding/storefront/internal/inventory/client"
	"github.com/wyfcoding/storefront/pkg/auth"
	"github.com/wyfcoding/storefront/pkg/config"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/server"
)

var configPath = flag.String("config", config.GetEnv("APP_CONFIG", "configs/checkout/config.toml"), "config file path")

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
	logger.Info(ctx, "Starting CheckoutService",
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

	// 4. 初始化仓储
	var statsRepo domain.StatsRepository
	database, err := server.OpenDatabase(cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	if database != nil {
		defer database.Close()
		if err := database.AutoMigrate(&domain.Stats{}); err != nil {
			logger.Fatal(ctx, "Failed to migrate database", "error", err)
		}
		statsRepo = mysql.NewStatsRepository(database.DB)
	} else {
		statsRepo = memory.NewStatsRepository()
	}

	// 5. 初始化 Redis（限流）
	redisCache, err := server.OpenRedis(cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	if redisCache != nil {
		defer redisCache.Close()
	}

	// 6. 初始化 Kafka
	var publisher domain.EventPublisher = messaging.NoopEventPublisher{}
	producer, err := server.OpenKafka(cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka producer", "error", err)
	}
	if producer != nil {
		defer producer.Close()
		publisher = messaging.NewKafkaEventPublisher(producer, cfg.Checkout.PurchaseTopic)
	}

	// 7. 下游客户端
	inventoryConn, err := server.Dial(cfg, cfg.Endpoints.Inventory)
	if err != nil {
		logger.Fatal(ctx, "Failed to dial inventory service", "error", err)
	}
	defer inventoryConn.Close()
	userConn, err := server.Dial(cfg, cfg.Endpoints.User)
	if err != nil {
		logger.Fatal(ctx, "Failed to dial user service", "error", err)
	}
	defer userConn.Close()

	metricsInstance := metrics.New(cfg.ServiceName)
	inventory := invclient.New(inventoryConn, "inventory", invclient.BreakerConfig{
		Failures: uint32(cfg.Client.BreakerFailures),
		Timeout:  server.BreakerTimeout(cfg),
	})
	userNotifier := notifier.NewUserStreamNotifier(
		userv1.NewUserServiceClient(userConn),
		cfg.Checkout.NotifyQueueSize,
		cfg.Checkout.ReconnectBackoff,
		metricsInstance,
	)

	// 8. 初始化应用服务
	checkoutService := application.NewCheckoutService(
		auth.NewJWTVerifier(cfg.Auth.Secret),
		inventory,
		statsRepo,
		publisher,
		userNotifier,
		metricsInstance,
	)
	if err := checkoutService.Load(ctx); err != nil {
		logger.Fatal(ctx, "Failed to load checkout stats", "error", err)
	}

	// 9. 创建服务器
	grpcServer := server.NewGRPCServer(cfg, metricsInstance, server.RateLimitInterceptors(cfg, redisCache)...)
	pb.RegisterCheckoutServiceServer(grpcServer, grpchandler.NewHandler(checkoutService, cfg.Checkout.StatsInterval))
	httpServer := server.NewHTTPServer(cfg, metricsInstance)

	// 10. 运行直到收到退出信号，通知流与服务器同生命周期
	if err := server.Run(cfg, grpcServer, httpServer, userNotifier.Run); err != nil {
		logger.Error(ctx, "CheckoutService exited with error", "error", err)
		os.Exit(1)
	}
}
