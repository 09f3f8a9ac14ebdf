package domain

import "context"

// UserRepository 用户仓储，读写都直接落到存储
type UserRepository interface {
	// Get 不存在时返回 ErrUserNotFound
	Get(ctx context.Context, username string) (*User, error)
	Save(ctx context.Context, user *User) error
	// Create 用户已存在时返回 false
	Create(ctx context.Context, user *User) (bool, error)
}

// RecommendationCache 每个用户的推荐滑动窗口
type RecommendationCache interface {
	Push(ctx context.Context, username string, productIDs []int64) error
	// Get 没有缓存时返回空切片
	Get(ctx context.Context, username string) ([]int64, error)
}

// Transactor 让 fn 内的仓储写入与事件写入在同一事务中提交或回滚
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
