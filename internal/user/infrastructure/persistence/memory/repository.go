// Package memory 进程内用户仓储与推荐缓存，用于开发环境与测试
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wyfcoding/storefront/internal/user/domain"
)

// UserRepository 内存用户仓储，存取都复制历史切片
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepository 创建内存用户仓储
func NewUserRepository(usernames ...string) *UserRepository {
	r := &UserRepository{users: make(map[string]domain.User)}
	for _, name := range usernames {
		r.users[name] = *domain.NewUser(name)
	}
	return r
}

func (r *UserRepository) Get(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, username)
	}
	u.History = append([]int64{}, u.History...)
	return &u, nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := *user
	u.History = append([]int64{}, user.History...)
	u.UpdatedAt = time.Now()
	r.users[user.Username] = u
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return false, nil
	}
	u := *user
	u.History = append([]int64{}, user.History...)
	u.CreatedAt = time.Now()
	r.users[user.Username] = u
	return true, nil
}

// RecommendationCache 内存推荐缓存
type RecommendationCache struct {
	mu      sync.Mutex
	size    int
	windows map[string][]int64
}

// NewRecommendationCache 创建内存推荐缓存
func NewRecommendationCache(size int) *RecommendationCache {
	return &RecommendationCache{size: size, windows: make(map[string][]int64)}
}

func (c *RecommendationCache) Push(ctx context.Context, username string, productIDs []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.windows[username] = domain.SlideWindow(c.windows[username], productIDs, c.size)
	return nil
}

func (c *RecommendationCache) Get(ctx context.Context, username string) ([]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64{}, c.windows[username]...), nil
}
