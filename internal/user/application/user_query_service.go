package application

import (
	"context"
	"fmt"

	invdomain "github.com/wyfcoding/storefront/internal/inventory/domain"
	"github.com/wyfcoding/storefront/internal/user/domain"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// InventoryCatalog 库存目录读取接口
type InventoryCatalog interface {
	GetAllProducts(ctx context.Context) ([]invdomain.Product, error)
}

// HistoryProduct 带商品详情的购买历史条目
type HistoryProduct struct {
	Product  invdomain.Product
	Quantity int64
}

// UserQueryService 用户查询服务
type UserQueryService struct {
	repo      domain.UserRepository
	cache     domain.RecommendationCache
	inventory InventoryCatalog
}

// NewUserQueryService 创建新的用户查询服务
func NewUserQueryService(repo domain.UserRepository, cache domain.RecommendationCache, inventory InventoryCatalog) *UserQueryService {
	return &UserQueryService{
		repo:      repo,
		cache:     cache,
		inventory: inventory,
	}
}

// GetSimilarProducts 返回缓存的推荐，不访问推荐服务
func (s *UserQueryService) GetSimilarProducts(ctx context.Context, username string) ([]int64, error) {
	return s.cache.Get(ctx, username)
}

// GetUserHistoryProducts 折叠购买历史并关联当前目录；目录中已不存在的商品被略过
func (s *UserQueryService) GetUserHistoryProducts(ctx context.Context, username string) ([]HistoryProduct, error) {
	user, err := s.repo.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	products, err := s.inventory.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	byID := make(map[int64]invdomain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	entries := user.CollapseHistory()
	out := make([]HistoryProduct, 0, len(entries))
	for _, e := range entries {
		p, ok := byID[e.ProductID]
		if !ok {
			logger.Debug(ctx, "history product missing from catalog", "username", username, "product_id", e.ProductID)
			continue
		}
		out = append(out, HistoryProduct{Product: p, Quantity: e.Quantity})
	}
	return out, nil
}
