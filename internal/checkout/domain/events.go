package domain

import (
	"context"
	"time"
)

// PurchaseConfirmedEvent 购买确认事件
type PurchaseConfirmedEvent struct {
	Username      string         `json:"username"`
	Items         []PurchaseItem `json:"items"`
	TotalQuantity int64          `json:"total_quantity"`
	TotalMoney    string         `json:"total_money"`
	Timestamp     time.Time      `json:"timestamp"`
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	// PublishPurchaseConfirmed 发布购买确认事件
	PublishPurchaseConfirmed(ctx context.Context, event PurchaseConfirmedEvent) error
}

// PurchaseNotifier 向用户服务推送购买记录，不阻塞调用方
type PurchaseNotifier interface {
	Notify(username string, productIDs []int64)
}
