package domain

import (
	"time"
)

// UserRegisteredEvent 用户注册事件
type UserRegisteredEvent struct {
	Username     string    `json:"username"`
	RegisteredAt time.Time `json:"registered_at"`
}

// HistoryUpdatedEvent 购买历史追加事件
type HistoryUpdatedEvent struct {
	Username   string    `json:"username"`
	ProductIDs []int64   `json:"product_ids"`
	HistoryLen int       `json:"history_len"`
	UpdatedAt  time.Time `json:"updated_at"`
}
