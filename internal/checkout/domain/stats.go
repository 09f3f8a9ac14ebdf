// Package domain 结算领域模型：全局统计、购买明细与对外协作接口。
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatsID 全局统计单例的主键
const StatsID = 1

// Stats 全局结算统计，只增不减
type Stats struct {
	ID                     uint            `gorm:"column:id;primaryKey;autoIncrement:false"`
	TotalProductsPurchased int64           `gorm:"column:total_products_purchased;not null"`
	TotalMoneySpent        decimal.Decimal `gorm:"column:total_money_spent;type:decimal(20,2);not null"`
	UpdatedAt              time.Time       `gorm:"column:updated_at"`
}

func (Stats) TableName() string { return "checkout_stats" }

// NewStats 创建零值统计
func NewStats() Stats {
	return Stats{ID: StatsID, TotalMoneySpent: decimal.Zero}
}

// Add 返回累加后的统计
func (s Stats) Add(quantity int64, money decimal.Decimal) Stats {
	s.ID = StatsID
	s.TotalProductsPurchased += quantity
	s.TotalMoneySpent = s.TotalMoneySpent.Add(money)
	return s
}

// PurchaseItem 购买明细
type PurchaseItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// Totals 计算件数与金额，只统计数量为正的条目。
// 价格来自下单前读取的目录，目录中不存在的条目不计金额。
func Totals(items []PurchaseItem, prices map[int64]decimal.Decimal) (int64, decimal.Decimal) {
	var quantity int64
	money := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		quantity += it.Quantity
		if price, ok := prices[it.ProductID]; ok {
			money = money.Add(price.Mul(decimal.NewFromInt(it.Quantity)))
		}
	}
	return quantity, money
}

// ExpandUnits 将明细展开为每件商品一个 ID
func ExpandUnits(items []PurchaseItem) []int64 {
	var ids []int64
	for _, it := range items {
		for i := int64(0); i < it.Quantity; i++ {
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}
