// Package domain 库存领域模型：商品、数量变更与目录聚合。
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound 批次引用了不存在的商品
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock 批次会使库存变为负数
	ErrInsufficientStock = errors.New("resulting quantity cannot be negative")
)

// Product 商品实体，库存服务独占
type Product struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Name              string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Description       string          `gorm:"column:description;type:text" json:"description"`
	Subcategory       string          `gorm:"column:subcategory;type:varchar(64);index;not null" json:"subcategory"`
	Price             decimal.Decimal `gorm:"column:price;type:decimal(20,2);not null" json:"price"`
	AvailableQuantity int64           `gorm:"column:available_quantity;not null" json:"availableQuantity"`
	UpdatedAt         time.Time       `gorm:"column:updated_at" json:"-"`
}

func (Product) TableName() string { return "products" }

// QuantityUpdate 数量变更，Delta 为正表示扣减
type QuantityUpdate struct {
	ProductID int64
	Delta     int64
}
