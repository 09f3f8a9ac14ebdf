// Package memory 进程内商品仓储，用于开发环境与测试
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wyfcoding/storefront/internal/inventory/domain"
)

// ProductRepository 内存商品仓储
type ProductRepository struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
}

// NewProductRepository 创建内存商品仓储
func NewProductRepository(products ...domain.Product) *ProductRepository {
	r := &ProductRepository{products: make(map[int64]domain.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *ProductRepository) LoadAll(ctx context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ProductRepository) SaveAll(ctx context.Context, products []domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range products {
		r.products[p.ID] = p
	}
	return nil
}
