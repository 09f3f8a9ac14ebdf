// Package recommender 用户服务到推荐服务的常驻双向流。
// 发送侧转发完整购买历史，接收侧把推荐结果交给回调；流断开后由 Run 重连。
package recommender

import (
	"context"
	"errors"
	"io"
	"time"

	recv1 "github.com/wyfcoding/storefront/go-api/recommendation/v1"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/retry"
	"golang.org/x/sync/errgroup"
)

const streamName = "similar_products"

var errClosedByServer = errors.New("recommendation stream closed by server")

// ResultHandler 处理一条推荐结果
type ResultHandler func(ctx context.Context, username string, productIDs []int64) error

// Stream 推荐流
type Stream struct {
	client     recv1.RecommendationServiceClient
	queue      chan *recv1.SimilarProductsMessage
	onResult   ResultHandler
	maxBackoff time.Duration
	metrics    *metrics.Metrics

	// 仅发送协程访问
	pending *recv1.SimilarProductsMessage
}

// NewStream 创建推荐流，m 可为 nil
func NewStream(client recv1.RecommendationServiceClient, queueSize int, maxBackoff time.Duration, onResult ResultHandler, m *metrics.Metrics) *Stream {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Stream{
		client:     client,
		queue:      make(chan *recv1.SimilarProductsMessage, queueSize),
		onResult:   onResult,
		maxBackoff: maxBackoff,
		metrics:    m,
	}
}

// Forward 入队一条完整历史；队列满时丢弃
func (s *Stream) Forward(username string, history []int64) {
	msg := &recv1.SimilarProductsMessage{Username: username, ProductIds: append([]int64{}, history...)}
	select {
	case s.queue <- msg:
	default:
		s.count("dropped")
		logger.Warn(context.Background(), "recommendation request dropped, queue full", "username", username)
	}
}

// Run 维护推荐流直到 ctx 结束
func (s *Stream) Run(ctx context.Context) error {
	backoff := retry.NewBackoff(retry.DefaultInitial, s.maxBackoff)
	for {
		opened, err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if opened {
			backoff.Reset()
			s.reconnected()
		}
		logger.Warn(ctx, "recommendation stream unavailable, reconnecting", "error", err, "retry_in", backoff.Current())
		if !backoff.Wait(ctx) {
			return nil
		}
	}
}

// session 打开一条流并运行收发两个协程，任一侧退出即关闭整条流
func (s *Stream) session(ctx context.Context) (bool, error) {
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := s.client.GetSimilarProducts(sctx)
	if err != nil {
		return false, err
	}
	logger.Info(ctx, "recommendation stream opened")

	var g errgroup.Group
	g.Go(func() error {
		defer cancel()
		return s.send(sctx, stream)
	})
	g.Go(func() error {
		defer cancel()
		return s.receive(ctx, stream)
	})
	return true, g.Wait()
}

func (s *Stream) send(ctx context.Context, stream recv1.RecommendationService_GetSimilarProductsClient) error {
	for {
		msg := s.pending
		s.pending = nil
		if msg == nil {
			select {
			case <-ctx.Done():
				_ = stream.CloseSend()
				return ctx.Err()
			case msg = <-s.queue:
			}
		}
		if err := stream.Send(msg); err != nil {
			s.pending = msg
			return err
		}
		s.count("sent")
	}
}

func (s *Stream) receive(ctx context.Context, stream recv1.RecommendationService_GetSimilarProductsClient) error {
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return errClosedByServer
		}
		if err != nil {
			return err
		}
		s.count("received")
		if err := s.onResult(ctx, resp.Username, resp.ProductIds); err != nil {
			logger.Error(ctx, "failed to apply recommendations", "username", resp.Username, "error", err)
		}
	}
}

func (s *Stream) count(outcome string) {
	if s.metrics != nil {
		s.metrics.StreamMessages.WithLabelValues(streamName, outcome).Inc()
	}
}

func (s *Stream) reconnected() {
	if s.metrics != nil {
		s.metrics.StreamReconnects.WithLabelValues(streamName).Inc()
	}
}
