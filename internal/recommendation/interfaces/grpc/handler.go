// Package grpc 推荐服务 gRPC 处理器
package grpc

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"log/slog"

	pb "github.com/wyfcoding/storefront/go-api/recommendation/v1"
	"github.com/wyfcoding/storefront/internal/recommendation/application"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Handler gRPC 处理器
type Handler struct {
	pb.UnimplementedRecommendationServiceServer
	service *application.RecommendationService
	workers int
	metrics *metrics.Metrics
}

const streamName = "similar_products"

// NewHandler 创建 gRPC 处理器实例，workers 为每条流的并发打分协程数
func NewHandler(service *application.RecommendationService, workers int, m *metrics.Metrics) *Handler {
	if workers <= 0 {
		workers = 1
	}
	return &Handler{service: service, workers: workers, metrics: m}
}

func (h *Handler) observe(outcome string) {
	if h.metrics != nil {
		h.metrics.StreamMessages.WithLabelValues(streamName, outcome).Inc()
	}
}

// GetSimilarProducts 双向流：读取、打分、写回三段并行。
// 同一用户的请求固定落到同一个打分协程，保证其响应顺序与请求一致。
func (h *Handler) GetSimilarProducts(stream pb.RecommendationService_GetSimilarProductsServer) error {
	ctx := stream.Context()
	slog.InfoContext(ctx, "gRPC GetSimilarProducts stream opened", "workers", h.workers)

	g, gctx := errgroup.WithContext(ctx)

	shards := make([]chan *pb.SimilarProductsMessage, h.workers)
	for i := range shards {
		shards[i] = make(chan *pb.SimilarProductsMessage, 16)
	}
	results := make(chan *pb.SimilarProductsMessage, 16)

	// 读取
	g.Go(func() error {
		defer func() {
			for _, ch := range shards {
				close(ch)
			}
		}()
		for {
			req, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			h.observe("received")
			select {
			case shards[shardOf(req.Username, len(shards))] <- req:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	// 打分
	scorers, sctx := errgroup.WithContext(gctx)
	for _, ch := range shards {
		scorers.Go(func() error {
			for req := range ch {
				ids, err := h.service.Recommend(sctx, req.ProductIds)
				if err != nil {
					slog.ErrorContext(sctx, "recommendation failed", "username", req.Username, "error", err)
					h.observe("skipped")
					continue
				}
				select {
				case results <- &pb.SimilarProductsMessage{Username: req.Username, ProductIds: ids}:
				case <-sctx.Done():
					return sctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(results)
		return scorers.Wait()
	})

	// 写回
	g.Go(func() error {
		for resp := range results {
			if err := stream.Send(resp); err != nil {
				return err
			}
			h.observe("sent")
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.WarnContext(ctx, "gRPC GetSimilarProducts stream closed with error", "error", err)
		return err
	}
	slog.InfoContext(ctx, "gRPC GetSimilarProducts stream closed")
	return nil
}

func shardOf(username string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return int(h.Sum32() % uint32(n))
}
