// InventoryService 主程序
// 功能：维护商品目录与库存，提供全量查询与原子批量扣减
// 架构：基于 DDD + gRPC，内存目录为权威数据，写穿到数据库
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	pb "github.com/wyfcoding/storefront/go-api/inventory/v1"
	"github.com/wyfcoding/storefront/internal/inventory/application"
	"github.com/wyfcoding/storefront/internal/inventory/domain"
	"github.com/wyfcoding/storefront/internal/inventory/infrastructure/persistence/memory"
	"github.com/wyfcoding/storefront/internal/inventory/infrastructure/persistence/mysql"
	grpchandler "github.com/wyfcoding/storefront/internal/inventory/interfaces/grpc"
	"github.com/wyfcoding/storefront/pkg/config"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/server"
)

var configPath = flag.String("config", config.GetEnv("APP_CONFIG", "configs/inventory/config.toml"), "config file path")

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
	logger.Info(ctx, "Starting InventoryService",
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
	var repo domain.ProductRepository
	database, err := server.OpenDatabase(cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	if database != nil {
		defer database.Close()
		if err := database.AutoMigrate(&domain.Product{}); err != nil {
			logger.Fatal(ctx, "Failed to migrate database", "error", err)
		}
		repo = mysql.NewProductRepository(database.DB)
	} else {
		repo = memory.NewProductRepository()
	}

	// 5. 初始化应用服务并加载目录
	inventoryService := application.NewInventoryService(repo)
	if err := inventoryService.Load(ctx, cfg.Inventory.SeedFile); err != nil {
		logger.Fatal(ctx, "Failed to load catalog", "error", err)
	}

	// 6. 初始化指标与服务器
	metricsInstance := metrics.New(cfg.ServiceName)
	grpcServer := server.NewGRPCServer(cfg, metricsInstance)
	pb.RegisterInventoryServiceServer(grpcServer, grpchandler.NewHandler(inventoryService, metricsInstance))
	httpServer := server.NewHTTPServer(cfg, metricsInstance)

	// 7. 运行直到收到退出信号
	if err := server.Run(cfg, grpcServer, httpServer); err != nil {
		logger.Error(ctx, "InventoryService exited with error", "error", err)
		os.Exit(1)
	}
}
