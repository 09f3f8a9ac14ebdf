// Package server 各服务共用的启动骨架：日志、追踪、gRPC 与 HTTP 服务器、优雅关停
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/pkg/config"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/middleware"
	"github.com/wyfcoding/storefront/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// InitLogger 按配置初始化全局日志
func InitLogger(cfg *config.Config) error {
	return logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
		Service:    cfg.ServiceName,
	})
}

// InitTracing 启用追踪时初始化 TracerProvider，返回的关停函数总是可调用
func InitTracing(ctx context.Context, cfg *config.Config) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !cfg.Tracing.Enabled {
		return noop
	}
	shutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
		Endpoint:       cfg.Tracing.CollectorEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize tracer", "error", err)
		return noop
	}
	logger.Info(ctx, "Tracer initialized", "endpoint", cfg.Tracing.CollectorEndpoint)
	return shutdown
}

// NewGRPCServer 创建带追踪、日志、指标与恢复拦截器的 gRPC 服务器
func NewGRPCServer(cfg *config.Config, m *metrics.Metrics, unary ...grpc.UnaryServerInterceptor) *grpc.Server {
	interceptors := append([]grpc.UnaryServerInterceptor{
		middleware.GRPCRecoveryInterceptor(),
		middleware.GRPCLoggingInterceptor(m),
	}, unary...)

	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
		grpc.ChainStreamInterceptor(
			middleware.GRPCStreamRecoveryInterceptor(),
			middleware.GRPCStreamLoggingInterceptor(m),
		),
		grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentStreams)),
	}
	if cfg.GRPC.KeepaliveTime > 0 {
		opts = append(opts,
			grpc.KeepaliveParams(keepalive.ServerParameters{Time: time.Duration(cfg.GRPC.KeepaliveTime) * time.Second}),
			grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{MinTime: 10 * time.Second, PermitWithoutStream: true}),
		)
	}
	return grpc.NewServer(opts...)
}

// NewHTTPServer 创建运维 HTTP 服务器：/health 与 Prometheus 指标
func NewHTTPServer(cfg *config.Config, m *metrics.Metrics) *http.Server {
	if cfg.Environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.GinLoggingMiddleware(m))
	router.Use(middleware.GinRecoveryMiddleware())

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}

// Task 与服务器同生命周期的后台任务，ctx 结束时应返回
type Task func(ctx context.Context) error

// Run 启动 gRPC 与 HTTP 服务器和后台任务，收到 SIGINT/SIGTERM 或任一组件出错时优雅关停
func Run(cfg *config.Config, grpcServer *grpc.Server, httpServer *http.Server, tasks ...Task) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC address: %w", err)
		}
		logger.Info(gctx, "Starting gRPC server", "addr", addr)
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		logger.Info(gctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	for _, task := range tasks {
		g.Go(func() error { return task(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "Shutting down", "service", cfg.ServiceName)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "HTTP server shutdown error", "error", err)
		}

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			// 常驻流不会自行结束，超时后强制关闭
			grpcServer.Stop()
		}
		return nil
	})

	err := g.Wait()
	logger.Info(context.Background(), "Service stopped", "service", cfg.ServiceName)
	return err
}
