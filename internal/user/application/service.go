// Package application 用户应用服务：购买历史、推荐缓存与注册
package application

import (
	"context"

	"github.com/wyfcoding/storefront/internal/user/domain"
	"github.com/wyfcoding/storefront/pkg/auth"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// Deps 用户应用服务依赖
type Deps struct {
	Verifier  auth.Verifier
	Repo      domain.UserRepository
	Cache     domain.RecommendationCache
	Publisher domain.UserEventPublisher
	Forwarder domain.RecommendationForwarder
	// Transactor 为空时仓储写入与事件写入不共享事务
	Transactor domain.Transactor
	Inventory  InventoryCatalog
	// 历史锁分片数
	LockStripes int
}

// UserService 用户应用服务，作为门面服务整合命令和查询服务
type UserService struct {
	verifier       auth.Verifier
	commandService *UserCommandService
	queryService   *UserQueryService
}

// NewUserService 创建新的用户应用服务
func NewUserService(deps Deps) *UserService {
	return &UserService{
		verifier:       deps.Verifier,
		commandService: NewUserCommandService(deps.Repo, deps.Cache, deps.Publisher, deps.Forwarder, deps.Transactor, deps.LockStripes),
		queryService:   NewUserQueryService(deps.Repo, deps.Cache, deps.Inventory),
	}
}

// RecordPurchases 处理一条购买通知（命令操作）
func (s *UserService) RecordPurchases(ctx context.Context, username string, productIDs []int64) error {
	return s.commandService.RecordPurchases(ctx, username, productIDs)
}

// ApplyRecommendations 写入推荐结果（命令操作）
func (s *UserService) ApplyRecommendations(ctx context.Context, username string, productIDs []int64) error {
	return s.commandService.ApplyRecommendations(ctx, username, productIDs)
}

// RegisterUser 注册用户（命令操作）
func (s *UserService) RegisterUser(ctx context.Context, username string) (bool, error) {
	return s.commandService.RegisterUser(ctx, username)
}

// SeedUsers 启动时预注册用户
func (s *UserService) SeedUsers(ctx context.Context, usernames []string) error {
	for _, name := range usernames {
		created, err := s.commandService.RegisterUser(ctx, name)
		if err != nil {
			return err
		}
		if created {
			logger.Info(ctx, "seed user registered", "username", name)
		}
	}
	return nil
}

// GetSimilarProducts 校验 token 后返回缓存推荐（查询操作）
func (s *UserService) GetSimilarProducts(ctx context.Context, token string) ([]int64, error) {
	username, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.queryService.GetSimilarProducts(ctx, username)
}

// GetUserHistoryProducts 校验 token 后返回购买历史（查询操作）
func (s *UserService) GetUserHistoryProducts(ctx context.Context, token string) ([]HistoryProduct, error) {
	username, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.queryService.GetUserHistoryProducts(ctx, username)
}
