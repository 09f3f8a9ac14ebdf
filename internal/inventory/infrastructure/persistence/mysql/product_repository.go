// Package mysql 基于 gorm 的商品仓储，驱动由 pkg/db 决定（mysql 或 postgres）
package mysql

import (
	"context"
	"fmt"

	"github.com/wyfcoding/storefront/internal/inventory/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) LoadAll(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SaveAll 在单个事务内 upsert 全部商品
func (r *productRepository) SaveAll(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "subcategory", "price", "available_quantity", "updated_at"}),
		}).CreateInBatches(products, 100).Error
		if err != nil {
			return fmt.Errorf("failed to upsert products: %w", err)
		}
		return nil
	})
}
