package domain

import "context"

// UserEventPublisher 用户事件发布者接口
type UserEventPublisher interface {
	// PublishUserRegistered 发布用户注册事件
	PublishUserRegistered(ctx context.Context, event UserRegisteredEvent) error

	// PublishHistoryUpdated 发布购买历史追加事件
	PublishHistoryUpdated(ctx context.Context, event HistoryUpdatedEvent) error
}

// RecommendationForwarder 把用户的完整历史转发给推荐服务
type RecommendationForwarder interface {
	Forward(username string, history []int64)
}
