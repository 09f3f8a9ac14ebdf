// RecommendationService 主程序
// 功能：根据用户的购买历史为其打分推荐相似商品
// 架构：gRPC 双向流，目录来自库存服务
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	pb "github.com/wyfcoding/storefront/go-api/recommendation/v1"
	invclient "github.com/wyfcoding/storefront/internal/inventory/client"
	"github.com/wyfcoding/storefront/internal/recommendation/application"
	"github.com/wyfcoding/storefront/internal/recommendation/domain"
	grpchandler "github.com/wyfcoding/storefront/internal/recommendation/interfaces/grpc"
	"github.com/wyfcoding/storefront/pkg/config"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/server"
)

var configPath = flag.String("config", config.GetEnv("APP_CONFIG", "configs/recommendation/config.toml"), "config file path")

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
	logger.Info(ctx, "Starting RecommendationService",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
		"workers", cfg.Recommendation.Workers,
	)

	// 3. 初始化追踪
	shutdownTracer := server.InitTracing(ctx, cfg)
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error(ctx, "Failed to shutdown tracer", "error", err)
		}
	}()

	// 4. 下游客户端
	inventoryConn, err := server.Dial(cfg, cfg.Endpoints.Inventory)
	if err != nil {
		logger.Fatal(ctx, "Failed to dial inventory service", "error", err)
	}
	defer inventoryConn.Close()
	inventory := invclient.New(inventoryConn, "inventory", invclient.BreakerConfig{
		Failures: uint32(cfg.Client.BreakerFailures),
		Timeout:  server.BreakerTimeout(cfg),
	})

	// 5. 初始化应用服务
	metricsInstance := metrics.New(cfg.ServiceName)
	scorer := domain.NewScorer(domain.RandomWeight, cfg.Recommendation.Limit)
	recommendationService := application.NewRecommendationService(inventory, scorer, metricsInstance)

	// 6. 创建服务器
	grpcServer := server.NewGRPCServer(cfg, metricsInstance)
	pb.RegisterRecommendationServiceServer(grpcServer, grpchandler.NewHandler(recommendationService, cfg.Recommendation.Workers, metricsInstance))
	httpServer := server.NewHTTPServer(cfg, metricsInstance)

	// 7. 运行直到收到退出信号
	if err := server.Run(cfg, grpcServer, httpServer); err != nil {
		logger.Error(ctx, "RecommendationService exited with error", "error", err)
		os.Exit(1)
	}
}
