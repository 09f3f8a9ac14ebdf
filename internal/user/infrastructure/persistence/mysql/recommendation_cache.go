package mysql

import (
	"context"
	"time"

	"github.com/wyfcoding/storefront/internal/user/domain"
	"github.com/wyfcoding/storefront/pkg/db"
	"gorm.io/gorm"
)

// recommendationRow 推荐窗口持久化行
type recommendationRow struct {
	Username   string  `gorm:"column:username;type:varchar(64);primaryKey"`
	ProductIDs []int64 `gorm:"column:product_ids;type:text;serializer:json"`
	UpdatedAt  time.Time
}

func (recommendationRow) TableName() string { return "user_recommendations" }

// RecommendationCache 未配置 Redis 时使用的关系库推荐缓存
type RecommendationCache struct {
	db   *gorm.DB
	size int
}

// NewRecommendationCache 创建关系库推荐缓存
func NewRecommendationCache(db *gorm.DB, size int) *RecommendationCache {
	return &RecommendationCache{db: db, size: size}
}

// AutoMigrate 建表
func (c *RecommendationCache) AutoMigrate() error {
	return c.db.AutoMigrate(&recommendationRow{})
}

// Push 在事务内读出旧窗口、滑动后写回
func (c *RecommendationCache) Push(ctx context.Context, username string, productIDs []int64) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row recommendationRow
		err := tx.Where("username = ?", username).First(&row).Error
		if err != nil && !db.IsNotFound(err) {
			return err
		}
		row.Username = username
		row.ProductIDs = domain.SlideWindow(row.ProductIDs, productIDs, c.size)
		return tx.Save(&row).Error
	})
}

func (c *RecommendationCache) Get(ctx context.Context, username string) ([]int64, error) {
	var row recommendationRow
	err := c.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if db.IsNotFound(err) {
		return []int64{}, nil
	}
	if err != nil {
		return nil, err
	}
	if row.ProductIDs == nil {
		return []int64{}, nil
	}
	return row.ProductIDs, nil
}
