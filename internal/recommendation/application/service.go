// Package application 推荐应用服务：读取目录并打分
package application

import (
	"context"
	"fmt"

	invdomain "github.com/wyfcoding/storefront/internal/inventory/domain"
	"github.com/wyfcoding/storefront/internal/recommendation/domain"
	"github.com/wyfcoding/storefront/pkg/metrics"
)

// CatalogSource 目录来源
type CatalogSource interface {
	GetAllProducts(ctx context.Context) ([]invdomain.Product, error)
}

// RecommendationService 推荐应用服务
type RecommendationService struct {
	catalog CatalogSource
	scorer  *domain.Scorer
	metrics *metrics.Metrics
}

// NewRecommendationService 创建推荐服务，m 可为 nil
func NewRecommendationService(catalog CatalogSource, scorer *domain.Scorer, m *metrics.Metrics) *RecommendationService {
	return &RecommendationService{catalog: catalog, scorer: scorer, metrics: m}
}

// Recommend 为一组已购商品计算推荐
func (s *RecommendationService) Recommend(ctx context.Context, productIDs []int64) ([]int64, error) {
	products, err := s.catalog.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	ids := s.scorer.Recommend(productIDs, products)
	if s.metrics != nil {
		s.metrics.RecommendationsScored.Inc()
	}
	return ids, nil
}
