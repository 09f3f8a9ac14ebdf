package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// countingLimiter 每个 key 允许 allowed 次
type countingLimiter struct {
	allowed int
	seen    map[string]int
	err     error
}

func (l *countingLimiter) Allow(_ context.Context, key string, _ ratelimit.Limit) (*ratelimit.Result, error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.seen == nil {
		l.seen = make(map[string]int)
	}
	l.seen[key]++
	if l.seen[key] > l.allowed {
		return &ratelimit.Result{Allowed: false, RetryAfter: time.Second}, nil
	}
	return &ratelimit.Result{Allowed: true, Remaining: l.allowed - l.seen[key]}, nil
}

func okHandler(context.Context, interface{}) (interface{}, error) { return "ok", nil }

func peerContext(addr string) context.Context {
	return peerContextPort(addr, 4000)
}

func peerContextPort(addr string, port int) context.Context {
	return peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP(addr), Port: port}})
}

func TestGRPCRateLimitInterceptor(t *testing.T) {
	limiter := &countingLimiter{allowed: 2}
	interceptor := GRPCRateLimitInterceptor(limiter, ratelimit.Limit{Rate: 2, Period: time.Second, Burst: 2})
	info := &grpc.UnaryServerInfo{FullMethod: "/checkout.v1.CheckoutService/Checkout"}

	ctx := peerContext("10.0.0.1")
	for i := 0; i < 2; i++ {
		if _, err := interceptor(ctx, nil, info, okHandler); err != nil {
			t.Fatalf("request %d should pass: %v", i, err)
		}
	}
	_, err := interceptor(ctx, nil, info, okHandler)
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", err)
	}

	// 同一主机换端口重连仍共享配额
	if _, err := interceptor(peerContextPort("10.0.0.1", 4001), nil, info, okHandler); status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("reconnect from same host should stay limited, got %v", err)
	}

	// 不同调用方独立计数
	if _, err := interceptor(peerContext("10.0.0.2"), nil, info, okHandler); err != nil {
		t.Fatalf("other peer should pass: %v", err)
	}

	// 同一调用方的其他方法独立计数
	other := &grpc.UnaryServerInfo{FullMethod: "/checkout.v1.CheckoutService/ConfirmPurchase"}
	if _, err := interceptor(ctx, nil, other, okHandler); err != nil {
		t.Fatalf("other method should pass: %v", err)
	}
	if _, ok := limiter.seen["10.0.0.1|CheckoutService/Checkout"]; !ok {
		t.Fatalf("expected host|Service/Method keys, got %v", limiter.seen)
	}
}

func TestGRPCRateLimitInterceptorFailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	interceptor := GRPCRateLimitInterceptor(limiter, ratelimit.Limit{Rate: 1, Period: time.Second})
	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/m"}, okHandler)
	if err != nil || resp != "ok" {
		t.Fatalf("expected request to pass when limiter fails, got %v / %v", resp, err)
	}
}

func TestGRPCRecoveryInterceptor(t *testing.T) {
	panicking := func(context.Context, interface{}) (interface{}, error) { panic("boom") }
	_, err := GRPCRecoveryInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/m"}, panicking)
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestGRPCLoggingInterceptorKeepsRequestID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "req-1"))
	var got string
	handler := func(ctx context.Context, _ interface{}) (interface{}, error) {
		got = logger.RequestID(ctx)
		return nil, status.Error(codes.NotFound, "missing")
	}
	_, err := GRPCLoggingInterceptor(metrics.New("middleware-test"))(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/m"}, handler)
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected handler error to pass through, got %v", err)
	}
	if got != "req-1" {
		t.Fatalf("expected request id req-1, got %q", got)
	}
}

func TestGinMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinLoggingMiddleware(nil), GinRecoveryMiddleware())
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}
