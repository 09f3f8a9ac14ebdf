// Package application 库存应用服务：目录加载、快照读取与批量数量变更。
package application

import (
	"context"
	"fmt"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/wyfcoding/storefront/internal/inventory/domain"
	"github.com/wyfcoding/storefront/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// InventoryService 库存应用服务。
// 内存目录是权威数据，变更先写仓储再替换内存快照。
type InventoryService struct {
	repo domain.ProductRepository

	// 批次临界区
	mu      sync.RWMutex
	catalog *domain.Catalog
}

// NewInventoryService 创建库存服务，目录为空，需调用 Load
func NewInventoryService(repo domain.ProductRepository) *InventoryService {
	return &InventoryService{
		repo:    repo,
		catalog: domain.NewCatalog(nil),
	}
}

// Load 从仓储加载目录；仓储为空且提供了种子文件时先导入种子
func (s *InventoryService) Load(ctx context.Context, seedFile string) error {
	products, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	if len(products) == 0 && seedFile != "" {
		seed, err := ReadSeedFile(seedFile)
		if err != nil {
			return err
		}
		if err := s.repo.SaveAll(ctx, seed); err != nil {
			return fmt.Errorf("failed to persist seed catalog: %w", err)
		}
		logger.Info(ctx, "catalog seeded", "file", seedFile, "products", len(seed))
		products = seed
	}

	s.mu.Lock()
	s.catalog = domain.NewCatalog(products)
	s.mu.Unlock()

	logger.Info(ctx, "catalog loaded", "products", len(products))
	return nil
}

// ReadSeedFile 读取 JSON 格式的静态目录
func ReadSeedFile(path string) ([]domain.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return products, nil
}

// GetAllProducts 返回完整目录快照
func (s *InventoryService) GetAllProducts(ctx context.Context) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Products()
}

// UpdateQuantities 原子地应用一个批次。
// 未知商品返回 ErrProductNotFound，库存不足返回 ErrInsufficientStock，两种情况下目录都不变。
func (s *InventoryService) UpdateQuantities(ctx context.Context, updates []domain.QuantityUpdate) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, updated, err := s.catalog.Apply(updates)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveAll(ctx, next.Products()); err != nil {
		return nil, fmt.Errorf("failed to persist catalog: %w", err)
	}
	s.catalog = next

	logger.Debug(ctx, "quantities updated", "updates", len(updates))
	return updated, nil
}
