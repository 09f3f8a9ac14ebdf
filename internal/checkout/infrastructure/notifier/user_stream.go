// Package notifier 结算到用户服务的购买通知通道。
// 通道是一条常驻的客户端流，由 Run 维护并在断开后重连；Notify 只入队，不等待对端。
package notifier

import (
	"context"
	"time"

	userv1 "github.com/wyfcoding/storefront/go-api/user/v1"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/retry"
)

const streamName = "user_notifications"

// UserStreamNotifier 购买通知通道
type UserStreamNotifier struct {
	client     userv1.UserServiceClient
	queue      chan *userv1.PurchaseNotification
	maxBackoff time.Duration
	metrics    *metrics.Metrics
}

// NewUserStreamNotifier 创建通知通道，m 可为 nil
func NewUserStreamNotifier(client userv1.UserServiceClient, queueSize int, maxBackoff time.Duration, m *metrics.Metrics) *UserStreamNotifier {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &UserStreamNotifier{
		client:     client,
		queue:      make(chan *userv1.PurchaseNotification, queueSize),
		maxBackoff: maxBackoff,
		metrics:    m,
	}
}

// Notify 入队一条购买记录；队列满时丢弃并计数
func (n *UserStreamNotifier) Notify(username string, productIDs []int64) {
	msg := &userv1.PurchaseNotification{Username: username, ProductIds: productIDs}
	select {
	case n.queue <- msg:
	default:
		n.count("dropped")
		logger.Warn(context.Background(), "purchase notification dropped, queue full",
			"username", username, "units", len(productIDs))
	}
}

// Run 维护通知流直到 ctx 结束。发送失败的那条消息会在重连后重发一次。
func (n *UserStreamNotifier) Run(ctx context.Context) error {
	var pending *userv1.PurchaseNotification
	backoff := retry.NewBackoff(retry.DefaultInitial, n.maxBackoff)

	for {
		stream, err := n.client.UpdateRecommendations(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn(ctx, "failed to open user notification stream", "error", err, "retry_in", backoff.Current())
			if !backoff.Wait(ctx) {
				return nil
			}
			continue
		}
		logger.Info(ctx, "user notification stream opened")
		backoff.Reset()

		pending, err = n.pump(ctx, stream, pending)
		if err == nil {
			// ctx 结束，正常关闭流
			if _, cerr := stream.CloseAndRecv(); cerr != nil {
				logger.Debug(ctx, "user notification stream closed", "error", cerr)
			}
			return nil
		}

		n.reconnected()
		logger.Warn(ctx, "user notification stream broken, reconnecting", "error", err, "retry_in", backoff.Current())
		if !backoff.Wait(ctx) {
			return nil
		}
	}
}

// pump 从队列取消息写入流。ctx 结束时返回 nil；写失败时返回错误与未送达的消息。
func (n *UserStreamNotifier) pump(ctx context.Context, stream userv1.UserService_UpdateRecommendationsClient, pending *userv1.PurchaseNotification) (*userv1.PurchaseNotification, error) {
	for {
		msg := pending
		pending = nil
		if msg == nil {
			select {
			case <-ctx.Done():
				return nil, nil
			case msg = <-n.queue:
			}
		}
		if err := stream.Send(msg); err != nil {
			return msg, err
		}
		n.count("sent")
	}
}

func (n *UserStreamNotifier) count(outcome string) {
	if n.metrics != nil {
		n.metrics.StreamMessages.WithLabelValues(streamName, outcome).Inc()
	}
}

func (n *UserStreamNotifier) reconnected() {
	if n.metrics != nil {
		n.metrics.StreamReconnects.WithLabelValues(streamName).Inc()
	}
}
