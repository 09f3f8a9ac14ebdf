// Package messaging 结算事件发布实现
package messaging

import (
	"context"

	"github.com/wyfcoding/storefront/internal/checkout/domain"
	"github.com/wyfcoding/storefront/pkg/mq"
)

// KafkaEventPublisher 将结算事件写入 Kafka，以用户名为 key 保证同一用户有序
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaEventPublisher 创建 Kafka 事件发布者
func NewKafkaEventPublisher(producer *mq.KafkaProducer, topic string) domain.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishPurchaseConfirmed(ctx context.Context, event domain.PurchaseConfirmedEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.Username, event)
}

// NoopEventPublisher 未配置 Kafka 时使用
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishPurchaseConfirmed(context.Context, domain.PurchaseConfirmedEvent) error {
	return nil
}
