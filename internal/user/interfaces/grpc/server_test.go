package grpc

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	recv1 "github.com/wyfcoding/storefront/go-api/recommendation/v1"
	v1 "github.com/wyfcoding/storefront/go-api/user/v1"
	invclient "github.com/wyfcoding/storefront/internal/inventory/client"
	invdomain "github.com/wyfcoding/storefront/internal/inventory/domain"
	recapp "github.com/wyfcoding/storefront/internal/recommendation/application"
	recdomain "github.com/wyfcoding/storefront/internal/recommendation/domain"
	recgrpc "github.com/wyfcoding/storefront/internal/recommendation/interfaces/grpc"
	"github.com/wyfcoding/storefront/internal/user/application"
	"github.com/wyfcoding/storefront/internal/user/infrastructure/messaging"
	"github.com/wyfcoding/storefront/internal/user/infrastructure/persistence/memory"
	"github.com/wyfcoding/storefront/internal/user/infrastructure/recommender"
	"github.com/wyfcoding/storefront/pkg/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const secret = "tokensupersecret"

func token(t *testing.T, username string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Username:         username,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

// switchableCatalog 可切换为不可用的库存目录
type switchableCatalog struct {
	products []invdomain.Product
	down     atomic.Bool
}

func (c *switchableCatalog) GetAllProducts(context.Context) ([]invdomain.Product, error) {
	if c.down.Load() {
		return nil, fmt.Errorf("%w: connection refused", invclient.ErrUnavailable)
	}
	return c.products, nil
}

func serve(t *testing.T, register func(*grpc.Server)) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	register(server)
	go func() { _ = server.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		server.Stop()
	})
	return conn
}

// startUser 启动推荐与用户两个进程内服务，以及用户到推荐的常驻流
func startUser(t *testing.T) (v1.UserServiceClient, *switchableCatalog) {
	t.Helper()
	catalog := &switchableCatalog{products: []invdomain.Product{
		{ID: 7, Name: "Keyboard", Subcategory: "A", Price: decimal.NewFromInt(10)},
		{ID: 8, Name: "Keycaps", Subcategory: "A", Price: decimal.NewFromInt(12)},
		{ID: 9, Name: "Monitor", Subcategory: "B", Price: decimal.NewFromInt(500)},
	}}

	recSvc := recapp.NewRecommendationService(catalog, recdomain.NewScorer(nil, 3), nil)
	recConn := serve(t, func(s *grpc.Server) {
		recv1.RegisterRecommendationServiceServer(s, recgrpc.NewHandler(recSvc, 2, nil))
	})

	var app *application.UserService
	stream := recommender.NewStream(recv1.NewRecommendationServiceClient(recConn), 16, 200*time.Millisecond,
		func(ctx context.Context, username string, ids []int64) error {
			return app.ApplyRecommendations(ctx, username, ids)
		}, nil)
	app = application.NewUserService(application.Deps{
		Verifier:    auth.NewJWTVerifier(secret),
		Repo:        memory.NewUserRepository("alice"),
		Cache:       memory.NewRecommendationCache(3),
		Publisher:   messaging.NoopPublisher{},
		Forwarder:   stream,
		Inventory:   catalog,
		LockStripes: 4,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = stream.Run(ctx) }()

	conn := serve(t, func(s *grpc.Server) { NewServer(s, app) })
	return v1.NewUserServiceClient(conn), catalog
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPurchaseNotificationsFeedHistoryAndRecommendations(t *testing.T) {
	client, _ := startUser(t)
	ctx := context.Background()

	stream, err := client.UpdateRecommendations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, msg := range []*v1.PurchaseNotification{
		{Username: "alice", ProductIds: []int64{7}},
		{Username: "ghost", ProductIds: []int64{8}},
		{Username: "alice", ProductIds: []int64{7, 7}},
	} {
		if err := stream.Send(msg); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := stream.CloseAndRecv(); err != nil {
		t.Fatalf("expected empty reply at end of stream, got %v", err)
	}

	history, err := client.GetUserHistoryProducts(ctx, &v1.TokenRequest{Token: token(t, "alice")})
	if err != nil {
		t.Fatal(err)
	}
	if len(history.Products) != 1 || history.Products[0].Id != 7 || history.Products[0].Quantity != 3 || history.Products[0].Price != "10" {
		t.Fatalf("unexpected history: %+v", history.Products)
	}

	var recommended []int64
	waitFor(t, func() bool {
		resp, err := client.GetSimilarProducts(ctx, &v1.TokenRequest{Token: token(t, "alice")})
		if err != nil {
			t.Fatal(err)
		}
		recommended = resp.ProductIds
		return len(recommended) == 3
	})
	// 两次推荐结果都是 [8 9]，窗口保留最后三个
	if recommended[0] != 9 || recommended[1] != 8 || recommended[2] != 9 {
		t.Fatalf("unexpected cached recommendations: %v", recommended)
	}
}

func TestUserStatusCodes(t *testing.T) {
	client, catalog := startUser(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		code codes.Code
	}{
		{"similar with bad token", func() error {
			_, err := client.GetSimilarProducts(ctx, &v1.TokenRequest{Token: "garbage"})
			return err
		}, codes.Unauthenticated},
		{"history with bad token", func() error {
			_, err := client.GetUserHistoryProducts(ctx, &v1.TokenRequest{Token: "garbage"})
			return err
		}, codes.Unauthenticated},
		{"history of unknown user", func() error {
			_, err := client.GetUserHistoryProducts(ctx, &v1.TokenRequest{Token: token(t, "nobody")})
			return err
		}, codes.NotFound},
		{"register empty username", func() error {
			_, err := client.RegisterUser(ctx, &v1.RegisterUserRequest{Username: ""})
			return err
		}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(tt.call()); got != tt.code {
				t.Fatalf("expected %v, got %v", tt.code, got)
			}
		})
	}

	resp, err := client.GetSimilarProducts(ctx, &v1.TokenRequest{Token: token(t, "alice")})
	if err != nil || len(resp.ProductIds) != 0 {
		t.Fatalf("expected empty recommendations, got %+v / %v", resp, err)
	}

	catalog.down.Store(true)
	_, err = client.GetUserHistoryProducts(ctx, &v1.TokenRequest{Token: token(t, "alice")})
	if got := status.Code(err); got != codes.Unavailable {
		t.Fatalf("expected Unavailable, got %v (%v)", got, err)
	}
}

func TestRegisterUser(t *testing.T) {
	client, _ := startUser(t)
	ctx := context.Background()

	resp, err := client.RegisterUser(ctx, &v1.RegisterUserRequest{Username: "dave"})
	if err != nil || !resp.Created {
		t.Fatalf("expected created, got %+v / %v", resp, err)
	}
	resp, err = client.RegisterUser(ctx, &v1.RegisterUserRequest{Username: "dave"})
	if err != nil || resp.Created {
		t.Fatalf("expected existing, got %+v / %v", resp, err)
	}

	history, err := client.GetUserHistoryProducts(ctx, &v1.TokenRequest{Token: token(t, "dave")})
	if err != nil || len(history.Products) != 0 {
		t.Fatalf("expected empty history, got %+v / %v", history, err)
	}
}
