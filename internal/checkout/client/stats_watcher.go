// Package client 结算服务的客户端工具
package client

import (
	"context"
	"errors"
	"io"
	"time"

	pb "github.com/wyfcoding/storefront/go-api/checkout/v1"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/retry"
)

// SnapshotHandler 处理一次统计快照
type SnapshotHandler func(ctx context.Context, stats *pb.CheckoutStats)

// StatsWatcher 订阅结算统计流，断开后按退避重新订阅
type StatsWatcher struct {
	client     pb.CheckoutServiceClient
	maxBackoff time.Duration
}

// NewStatsWatcher 创建统计订阅者
func NewStatsWatcher(client pb.CheckoutServiceClient, maxBackoff time.Duration) *StatsWatcher {
	return &StatsWatcher{client: client, maxBackoff: maxBackoff}
}

// Watch 持续接收快照直到 ctx 结束
func (w *StatsWatcher) Watch(ctx context.Context, handle SnapshotHandler) error {
	backoff := retry.NewBackoff(retry.DefaultInitial, w.maxBackoff)
	for {
		received, err := w.subscribe(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		if received {
			backoff.Reset()
		}
		logger.Warn(ctx, "checkout stats stream interrupted", "error", err, "retry_in", backoff.Current())
		if !backoff.Wait(ctx) {
			return nil
		}
	}
}

func (w *StatsWatcher) subscribe(ctx context.Context, handle SnapshotHandler) (bool, error) {
	stream, err := w.client.StreamCheckoutStats(ctx, &pb.StreamCheckoutStatsRequest{})
	if err != nil {
		return false, err
	}
	received := false
	for {
		stats, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return received, errors.New("stream closed by server")
		}
		if err != nil {
			return received, err
		}
		received = true
		handle(ctx, stats)
	}
}
