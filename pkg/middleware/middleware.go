// Package middleware 提供 Gin 与 gRPC 的通用中间件（日志、request id、panic recover、指标、限流）
package middleware

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// RequestIDHeader 透传 request id 的 header / metadata key
const RequestIDHeader = "x-request-id"

// GinLoggingMiddleware Gin 日志中间件
func GinLoggingMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := logger.ContextWithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		statusCode := c.Writer.Status()
		if m != nil {
			m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), strconv.Itoa(statusCode)).Inc()
		}
		logger.Debug(ctx, "HTTP request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", statusCode,
			"client_ip", c.ClientIP(),
			"duration", time.Since(start),
		)
	}
}

// GinRecoveryMiddleware Gin panic 恢复中间件
func GinRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				ctx := c.Request.Context()
				logger.Error(ctx, "HTTP request panicked", "panic", err)
				c.AbortWithStatusJSON(500, gin.H{
					"error":      "Internal server error",
					"request_id": logger.RequestID(ctx),
				})
			}
		}()
		c.Next()
	}
}

// GRPCLoggingInterceptor gRPC 日志与指标拦截器
func GRPCLoggingInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = withRequestID(ctx)
		start := time.Now()

		resp, err := handler(ctx, req)

		duration := time.Since(start)
		code := status.Code(err)
		if m != nil {
			m.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
			m.GRPCRequestDuration.WithLabelValues(info.FullMethod).Observe(duration.Seconds())
		}
		if err != nil {
			logger.Warn(ctx, "gRPC request failed",
				"method", info.FullMethod,
				"error_code", code.String(),
				"error_message", status.Convert(err).Message(),
				"duration", duration,
			)
		} else {
			logger.Debug(ctx, "gRPC request completed", "method", info.FullMethod, "duration", duration)
		}
		return resp, err
	}
}

// GRPCRecoveryInterceptor gRPC panic 恢复拦截器
func GRPCRecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "gRPC request panicked", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// GRPCStreamLoggingInterceptor 流 RPC 日志与指标拦截器，记录流的整个生命周期
func GRPCStreamLoggingInterceptor(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := withRequestID(ss.Context())
		start := time.Now()
		logger.Info(ctx, "gRPC stream opened", "method", info.FullMethod)

		err := handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx})

		code := status.Code(err)
		if m != nil {
			m.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
		}
		logger.Info(ctx, "gRPC stream closed",
			"method", info.FullMethod,
			"code", code.String(),
			"duration", time.Since(start),
		)
		return err
	}
}

// GRPCStreamRecoveryInterceptor 流 RPC panic 恢复拦截器
func GRPCStreamRecoveryInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ss.Context(), "gRPC stream panicked", "method", info.FullMethod, "panic", fmt.Sprint(r))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(srv, ss)
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

// withRequestID 优先使用调用方透传的 request id
func withRequestID(ctx context.Context) context.Context {
	requestID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(RequestIDHeader); len(vals) > 0 {
			requestID = vals[0]
		}
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return logger.ContextWithRequestID(ctx, requestID)
}

// GRPCRateLimitInterceptor 按调用方主机与方法限流，超限返回 ResourceExhausted。
// 限流器自身出错时放行。
func GRPCRateLimitInterceptor(limiter ratelimit.RateLimiter, limit ratelimit.Limit) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		var caller net.Addr
		if p, ok := peer.FromContext(ctx); ok {
			caller = p.Addr
		}
		key := ratelimit.Key(caller, info.FullMethod)

		res, err := limiter.Allow(ctx, key, limit)
		if err != nil {
			logger.Warn(ctx, "rate limiter unavailable, allowing request", "method", info.FullMethod, "error", err)
			return handler(ctx, req)
		}
		if !res.Allowed {
			logger.Warn(ctx, "gRPC request rate limited", "key", key, "retry_after", res.RetryAfter)
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded, retry after %s", res.RetryAfter)
		}
		return handler(ctx, req)
	}
}
