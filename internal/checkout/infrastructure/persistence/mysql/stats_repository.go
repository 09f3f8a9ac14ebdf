// Package mysql 基于 gorm 的结算统计仓储
package mysql

import (
	"context"

	"github.com/wyfcoding/storefront/internal/checkout/domain"
	"github.com/wyfcoding/storefront/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository 创建统计仓储
func NewStatsRepository(db *gorm.DB) domain.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Load(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := r.db.WithContext(ctx).Where("id = ?", domain.StatsID).First(&stats).Error
	if db.IsNotFound(err) {
		return domain.NewStats(), nil
	}
	if err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func (r *statsRepository) Save(ctx context.Context, stats domain.Stats) error {
	stats.ID = domain.StatsID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_products_purchased", "total_money_spent", "updated_at"}),
	}).Create(&stats).Error
}
