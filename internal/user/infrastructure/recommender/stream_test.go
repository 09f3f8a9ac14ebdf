package recommender

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	recv1 "github.com/wyfcoding/storefront/go-api/recommendation/v1"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// echoServer 把收到的历史中最后一个商品作为推荐返回
type echoServer struct {
	recv1.UnimplementedRecommendationServiceServer
	streams atomic.Int32
}

func (s *echoServer) GetSimilarProducts(stream recv1.RecommendationService_GetSimilarProductsServer) error {
	s.streams.Add(1)
	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		last := req.ProductIds[len(req.ProductIds)-1]
		if err := stream.Send(&recv1.SimilarProductsMessage{Username: req.Username, ProductIds: []int64{last}}); err != nil {
			return err
		}
	}
}

type results struct {
	mu  sync.Mutex
	got map[string][]int64
}

func (r *results) handle(_ context.Context, username string, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got[username] = append(r.got[username], ids...)
	return nil
}

func (r *results) of(username string) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64{}, r.got[username]...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestStreamForwardsAndReconnects(t *testing.T) {
	var current atomic.Pointer[bufconn.Listener]
	start := func(srv *echoServer) *grpc.Server {
		lis := bufconn.Listen(1 << 20)
		server := grpc.NewServer()
		recv1.RegisterRecommendationServiceServer(server, srv)
		go func() { _ = server.Serve(lis) }()
		current.Store(lis)
		return server
	}

	first := &echoServer{}
	server := start(first)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return current.Load().DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	res := &results{got: make(map[string][]int64)}
	s := NewStream(recv1.NewRecommendationServiceClient(conn), 16, 50*time.Millisecond, res.handle, metrics.New("user-test"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Forward("alice", []int64{1, 2})
	s.Forward("bob", []int64{5})
	waitFor(t, func() bool { return len(res.of("alice")) == 1 && len(res.of("bob")) == 1 })
	if got := res.of("alice"); got[0] != 2 {
		t.Fatalf("unexpected result for alice: %v", got)
	}
	if n := first.streams.Load(); n != 1 {
		t.Fatalf("expected one shared stream, got %d", n)
	}

	server.Stop()
	second := &echoServer{}
	server2 := start(second)
	t.Cleanup(server2.Stop)

	waitFor(t, func() bool {
		s.Forward("alice", []int64{1, 2, 3})
		for _, id := range res.of("alice") {
			if id == 3 {
				return true
			}
		}
		return false
	})

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestForwardDropsWhenQueueFull(t *testing.T) {
	s := NewStream(nil, 1, time.Second, nil, nil)
	history := []int64{1}
	s.Forward("alice", history)
	s.Forward("alice", []int64{1, 2})

	if len(s.queue) != 1 {
		t.Fatalf("expected one queued message, got %d", len(s.queue))
	}
	history[0] = 99
	if msg := <-s.queue; msg.ProductIds[0] != 1 {
		t.Fatalf("queued history must be a copy, got %v", msg.ProductIds)
	}
}
