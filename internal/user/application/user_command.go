package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wyfcoding/storefront/internal/user/domain"
)

// ErrInvalidUsername 用户名为空
var ErrInvalidUsername = errors.New("username must not be empty")

// UserCommandService 用户命令服务
type UserCommandService struct {
	repo      domain.UserRepository
	cache     domain.RecommendationCache
	publisher domain.UserEventPublisher
	forwarder domain.RecommendationForwarder
	tx        domain.Transactor
	locks     *stripedLocks
}

// directTransactor 存储不支持事务时直接执行
type directTransactor struct{}

func (directTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// NewUserCommandService 创建新的用户命令服务
func NewUserCommandService(
	repo domain.UserRepository,
	cache domain.RecommendationCache,
	publisher domain.UserEventPublisher,
	forwarder domain.RecommendationForwarder,
	tx domain.Transactor,
	stripes int,
) *UserCommandService {
	if tx == nil {
		tx = directTransactor{}
	}
	return &UserCommandService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		forwarder: forwarder,
		tx:        tx,
		locks:     newStripedLocks(stripes),
	}
}

// RecordPurchases 追加购买记录，历史与事件在同一事务中落库，提交后把完整历史转发给推荐服务
func (s *UserCommandService) RecordPurchases(ctx context.Context, username string, productIDs []int64) error {
	mu := s.locks.forKey(username)
	mu.Lock()
	defer mu.Unlock()

	var user *domain.User
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.Get(ctx, username)
		if err != nil {
			return err
		}
		user.AppendPurchases(productIDs)
		if err := s.repo.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to save history of %s: %w", username, err)
		}

		event := domain.HistoryUpdatedEvent{
			Username:   username,
			ProductIDs: productIDs,
			HistoryLen: len(user.History),
			UpdatedAt:  time.Now(),
		}
		if err := s.publisher.PublishHistoryUpdated(ctx, event); err != nil {
			return fmt.Errorf("failed to record history event of %s: %w", username, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 锁内转发，同一用户的历史按追加顺序进入推荐流
	s.forwarder.Forward(username, user.History)
	return nil
}

// ApplyRecommendations 把推荐结果滑入用户的缓存窗口
func (s *UserCommandService) ApplyRecommendations(ctx context.Context, username string, productIDs []int64) error {
	mu := s.locks.forKey(username)
	mu.Lock()
	defer mu.Unlock()

	if err := s.cache.Push(ctx, username, productIDs); err != nil {
		return fmt.Errorf("failed to cache recommendations for %s: %w", username, err)
	}
	return nil
}

// RegisterUser 创建用户，已存在时不做任何修改
func (s *UserCommandService) RegisterUser(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, ErrInvalidUsername
	}

	var created bool
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repo.Create(ctx, domain.NewUser(username))
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", username, err)
		}
		if !created {
			return nil
		}

		// 注册事件与用户行一起提交
		event := domain.UserRegisteredEvent{Username: username, RegisteredAt: time.Now()}
		if err := s.publisher.PublishUserRegistered(ctx, event); err != nil {
			return fmt.Errorf("failed to record registration event of %s: %w", username, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}
