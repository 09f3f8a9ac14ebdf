// Package mysql 基于 gorm 的用户与推荐缓存仓储
package mysql

import (
	"context"
	"fmt"

	"github.com/wyfcoding/storefront/internal/user/domain"
	"github.com/wyfcoding/storefront/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct{ db *gorm.DB }

// NewUserRepository 创建用户仓储，ctx 携带事务时读写都走该事务
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Get(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := db.Conn(ctx, r.db).Where("username = ?", username).First(&u).Error
	if db.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, username)
	}
	if err != nil {
		return nil, err
	}
	if u.History == nil {
		u.History = []int64{}
	}
	return &u, nil
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	return db.Conn(ctx, r.db).Save(user).Error
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (bool, error) {
	res := db.Conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
