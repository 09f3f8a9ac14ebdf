package grpc

import (
	"context"
	"errors"
	"io"
	"net"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	pb "github.com/wyfcoding/storefront/go-api/recommendation/v1"
	invdomain "github.com/wyfcoding/storefront/internal/inventory/domain"
	"github.com/wyfcoding/storefront/internal/recommendation/application"
	"github.com/wyfcoding/storefront/internal/recommendation/domain"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// staticCatalog 固定目录，可模拟库存不可用
type staticCatalog struct {
	products []invdomain.Product
	down     atomic.Bool
}

func (c *staticCatalog) GetAllProducts(context.Context) ([]invdomain.Product, error) {
	if c.down.Load() {
		return nil, errors.New("inventory unavailable")
	}
	return c.products, nil
}

func startRecommendation(t *testing.T, catalog *staticCatalog, workers int) pb.RecommendationServiceClient {
	t.Helper()
	svc := application.NewRecommendationService(catalog, domain.NewScorer(func() float64 { return 0.7 }, 3), nil)

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	pb.RegisterRecommendationServiceServer(server, NewHandler(svc, workers, metrics.New("recommendation-test")))
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
	return pb.NewRecommendationServiceClient(conn)
}

func catalogD() *staticCatalog {
	return &staticCatalog{products: []invdomain.Product{
		{ID: 1, Subcategory: "A", Price: decimal.NewFromInt(10)},
		{ID: 2, Subcategory: "B", Price: decimal.NewFromInt(1000)},
		{ID: 3, Subcategory: "A", Price: decimal.NewFromInt(10)},
	}}
}

func TestGetSimilarProductsRanksSameSubcategoryFirst(t *testing.T) {
	client := startRecommendation(t, catalogD(), 4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := client.GetSimilarProducts(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := stream.Send(&pb.SimilarProductsMessage{Username: "alice", ProductIds: []int64{1}}); err != nil {
		t.Fatal(err)
	}
	resp, err := stream.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if resp.Username != "alice" || !reflect.DeepEqual(resp.ProductIds, []int64{3, 2}) {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if err := stream.CloseSend(); err != nil {
		t.Fatal(err)
	}
	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected stream to end after client half-close, got %v", err)
	}
}

func TestGetSimilarProductsKeepsPerUserOrder(t *testing.T) {
	client := startRecommendation(t, catalogD(), 4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := client.GetSimilarProducts(ctx)
	if err != nil {
		t.Fatal(err)
	}

	requests := [][]int64{{}, {1}, {2}, {1, 2}}
	for _, ids := range requests {
		if err := stream.Send(&pb.SimilarProductsMessage{Username: "bob", ProductIds: ids}); err != nil {
			t.Fatal(err)
		}
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatal(err)
	}

	var lengths []int
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		lengths = append(lengths, len(resp.ProductIds))
	}
	// 空输入返回空推荐；其余依次为 2、2、1 个候选
	if !reflect.DeepEqual(lengths, []int{0, 2, 2, 1}) {
		t.Fatalf("responses out of order or missing: %v", lengths)
	}
}

func TestGetSimilarProductsSkipsWhenCatalogUnavailable(t *testing.T) {
	catalog := catalogD()
	catalog.down.Store(true)
	client := startRecommendation(t, catalog, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := client.GetSimilarProducts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := stream.Send(&pb.SimilarProductsMessage{Username: "carol", ProductIds: []int64{1}}); err != nil {
		t.Fatal(err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatal(err)
	}
	if resp, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected no response for a failed scoring, got %+v / %v", resp, err)
	}
}
