// Package domain 用户领域：购买历史与推荐缓存
package domain

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
)

// User 用户及其购买历史，历史按购买顺序每件一条，只追加
type User struct {
	Username  string    `gorm:"column:username;type:varchar(64);primaryKey" json:"username"`
	History   []int64   `gorm:"column:history;type:text;serializer:json" json:"history"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// NewUser 创建空历史的用户
func NewUser(username string) *User {
	return &User{Username: username, History: []int64{}}
}

// AppendPurchases 追加购买记录
func (u *User) AppendPurchases(productIDs []int64) {
	u.History = append(u.History, productIDs...)
}

// HistoryEntry 折叠后的历史条目
type HistoryEntry struct {
	ProductID int64
	Quantity  int64
}

// CollapseHistory 将逐件历史折叠为 {商品, 数量}，按首次购买顺序排列
func (u *User) CollapseHistory() []HistoryEntry {
	index := make(map[int64]int)
	entries := make([]HistoryEntry, 0)
	for _, id := range u.History {
		if i, ok := index[id]; ok {
			entries[i].Quantity++
			continue
		}
		index[id] = len(entries)
		entries = append(entries, HistoryEntry{ProductID: id, Quantity: 1})
	}
	return entries
}

// SlideWindow 追加新推荐并只保留末尾 size 个
func SlideWindow(current, incoming []int64, size int) []int64 {
	merged := make([]int64, 0, len(current)+len(incoming))
	merged = append(merged, current...)
	merged = append(merged, incoming...)
	if len(merged) > size {
		merged = merged[len(merged)-size:]
	}
	return merged
}
