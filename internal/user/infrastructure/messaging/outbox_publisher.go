// Package messaging 用户事件发布：写入 outbox 表，由中继投递到 Kafka
package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/wyfcoding/storefront/internal/user/domain"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/logger"
	"gorm.io/gorm"
)

const (
	statusPending = "pending"
	statusSent    = "sent"
)

// OutboxMessage 待投递事件
type OutboxMessage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	EventType string    `gorm:"type:varchar(100);index"`
	Key       string    `gorm:"type:varchar(64)"`
	Payload   string    `gorm:"type:text"`
	Status    string    `gorm:"type:varchar(20);index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "user_outbox_messages"
}

// Sender 事件投递目标
type Sender interface {
	SendMessage(ctx context.Context, topic string, key string, value interface{}) error
}

// OutboxPublisher 实现了 UserEventPublisher 接口，使用 Outbox 模式发布事件
type OutboxPublisher struct {
	db *gorm.DB
}

// NewOutboxPublisher 创建新的 OutboxPublisher
func NewOutboxPublisher(db *gorm.DB) *OutboxPublisher {
	return &OutboxPublisher{db: db}
}

// AutoMigrate 建表
func (p *OutboxPublisher) AutoMigrate() error {
	return p.db.AutoMigrate(&OutboxMessage{})
}

// PublishUserRegistered 发布用户注册事件
func (p *OutboxPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	return p.publishEvent(ctx, "UserRegisteredEvent", event.Username, event)
}

// PublishHistoryUpdated 发布购买历史追加事件
func (p *OutboxPublisher) PublishHistoryUpdated(ctx context.Context, event domain.HistoryUpdatedEvent) error {
	return p.publishEvent(ctx, "HistoryUpdatedEvent", event.Username, event)
}

// publishEvent 写入一条 outbox 消息，ctx 携带事务时与业务写入一起提交
func (p *OutboxPublisher) publishEvent(ctx context.Context, eventType, key string, event interface{}) error {
	payload, err := jsoniter.MarshalToString(event)
	if err != nil {
		return err
	}

	now := time.Now()
	message := OutboxMessage{
		ID:        uuid.NewString(),
		EventType: eventType,
		Key:       key,
		Payload:   payload,
		Status:    statusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return db.Conn(ctx, p.db).Create(&message).Error
}

// eventEnvelope Kafka 消息体，payload 原样嵌入
type eventEnvelope struct {
	Type    string              `json:"type"`
	Payload jsoniter.RawMessage `json:"payload"`
}

// ProcessOutboxMessages 投递一批待处理消息，单条失败时停止并保留后续消息
func (p *OutboxPublisher) ProcessOutboxMessages(ctx context.Context, sender Sender, topic string, batchSize int) (int, error) {
	var messages []OutboxMessage

	if err := p.db.WithContext(ctx).Where("status = ?", statusPending).Order("created_at ASC").Limit(batchSize).Find(&messages).Error; err != nil {
		return 0, err
	}

	sent := 0
	for _, message := range messages {
		envelope := eventEnvelope{Type: message.EventType, Payload: jsoniter.RawMessage(message.Payload)}
		if err := sender.SendMessage(ctx, topic, message.Key, envelope); err != nil {
			return sent, err
		}
		if err := p.db.WithContext(ctx).Model(&message).Update("status", statusSent).Error; err != nil {
			return sent, err
		}
		sent++
	}

	return sent, nil
}

// CleanupProcessedMessages 清理已处理的消息
func (p *OutboxPublisher) CleanupProcessedMessages(ctx context.Context, before time.Time) error {
	return p.db.WithContext(ctx).Where("status = ? AND updated_at < ?", statusSent, before).Delete(&OutboxMessage{}).Error
}

// RunRelay 周期性投递 outbox，直到 ctx 结束
func (p *OutboxPublisher) RunRelay(ctx context.Context, sender Sender, topic string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.ProcessOutboxMessages(ctx, sender, topic, 100)
			if err != nil {
				logger.Warn(ctx, "outbox relay failed", "sent", n, "error", err)
				continue
			}
			if n > 0 {
				logger.Debug(ctx, "outbox relay delivered", "sent", n)
			}
			if err := p.CleanupProcessedMessages(ctx, time.Now().Add(-24*time.Hour)); err != nil {
				logger.Warn(ctx, "outbox cleanup failed", "error", err)
			}
		}
	}
}

// NoopPublisher 未配置数据库时丢弃事件
type NoopPublisher struct{}

func (NoopPublisher) PublishUserRegistered(context.Context, domain.UserRegisteredEvent) error {
	return nil
}

func (NoopPublisher) PublishHistoryUpdated(context.Context, domain.HistoryUpdatedEvent) error {
	return nil
}
