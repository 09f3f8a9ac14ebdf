// Package application 结算应用服务：下单确认编排与统计快照。
package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/checkout/domain"
	invdomain "github.com/wyfcoding/storefront/internal/inventory/domain"
	"github.com/wyfcoding/storefront/pkg/auth"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
)

var (
	// ErrEmptyPurchase 购买列表为空
	ErrEmptyPurchase = errors.New("purchase must contain at least one item")
	// ErrStatsPersist 统计持久化失败
	ErrStatsPersist = errors.New("failed to persist checkout stats")
)

// InventoryGateway 库存服务访问接口
type InventoryGateway interface {
	GetAllProducts(ctx context.Context) ([]invdomain.Product, error)
	UpdateQuantities(ctx context.Context, updates []invdomain.QuantityUpdate) ([]invdomain.Product, error)
}

// PurchaseResult 下单确认结果
type PurchaseResult struct {
	Username      string
	TotalQuantity int64
	TotalMoney    decimal.Decimal
	Message       string
}

// CheckoutService 结算应用服务。
// 内存中的统计是权威数据，先持久化再替换。
type CheckoutService struct {
	verifier  auth.Verifier
	inventory InventoryGateway
	repo      domain.StatsRepository
	publisher domain.EventPublisher
	notifier  domain.PurchaseNotifier
	metrics   *metrics.Metrics

	mu    sync.Mutex
	stats domain.Stats
}

// NewCheckoutService 创建结算服务，m 可为 nil
func NewCheckoutService(
	verifier auth.Verifier,
	inventory InventoryGateway,
	repo domain.StatsRepository,
	publisher domain.EventPublisher,
	notifier domain.PurchaseNotifier,
	m *metrics.Metrics,
) *CheckoutService {
	return &CheckoutService{
		verifier:  verifier,
		inventory: inventory,
		repo:      repo,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		stats:     domain.NewStats(),
	}
}

// Load 从仓储恢复统计
func (s *CheckoutService) Load(ctx context.Context) error {
	stats, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load checkout stats: %w", err)
	}
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
	logger.Info(ctx, "checkout stats loaded",
		"total_products_purchased", stats.TotalProductsPurchased,
		"total_money_spent", stats.TotalMoneySpent.String())
	return nil
}

// Stats 返回当前统计快照
func (s *CheckoutService) Stats() domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ConfirmPurchase 确认一次购买。
// 令牌无效返回 auth.ErrInvalidToken；库存不可达返回库存客户端的不可达错误；
// 库存拒绝批次时原样返回库存的错误，此时统计与通知都不会发生。
func (s *CheckoutService) ConfirmPurchase(ctx context.Context, token string, items []domain.PurchaseItem) (*PurchaseResult, error) {
	username, err := s.verifier.Verify(token)
	if err != nil {
		s.observe("unauthenticated")
		return nil, err
	}
	if len(items) == 0 {
		s.observe("rejected")
		return nil, ErrEmptyPurchase
	}

	catalog, err := s.inventory.GetAllProducts(ctx)
	if err != nil {
		s.observe("unavailable")
		return nil, err
	}
	prices := make(map[int64]decimal.Decimal, len(catalog))
	for _, p := range catalog {
		prices[p.ID] = p.Price
	}

	updates := make([]invdomain.QuantityUpdate, 0, len(items))
	for _, it := range items {
		updates = append(updates, invdomain.QuantityUpdate{ProductID: it.ProductID, Delta: it.Quantity})
	}
	if _, err := s.inventory.UpdateQuantities(ctx, updates); err != nil {
		s.observe("rejected")
		return nil, err
	}

	// 库存已扣减，后续步骤不再受调用方取消影响
	committed := context.WithoutCancel(ctx)

	quantity, money := domain.Totals(items, prices)
	if err := s.recordStats(committed, quantity, money); err != nil {
		s.observe("error")
		return nil, err
	}

	if units := domain.ExpandUnits(items); len(units) > 0 {
		s.notifier.Notify(username, units)
	}
	s.publish(committed, domain.PurchaseConfirmedEvent{
		Username:      username,
		Items:         items,
		TotalQuantity: quantity,
		TotalMoney:    money.StringFixed(2),
		Timestamp:     time.Now(),
	})

	s.observe("confirmed")
	if s.metrics != nil {
		s.metrics.ProductsPurchased.Add(float64(quantity))
	}
	return &PurchaseResult{
		Username:      username,
		TotalQuantity: quantity,
		TotalMoney:    money,
		Message:       fmt.Sprintf("Purchase confirmed: %d item(s), total %s", quantity, money.StringFixed(2)),
	}, nil
}

func (s *CheckoutService) recordStats(ctx context.Context, quantity int64, money decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.stats.Add(quantity, money)
	if err := s.repo.Save(ctx, next); err != nil {
		logger.Error(ctx, "failed to persist checkout stats", "error", err)
		return fmt.Errorf("%w: %v", ErrStatsPersist, err)
	}
	s.stats = next
	return nil
}

// publish 异步发布事件，失败只记录日志
func (s *CheckoutService) publish(ctx context.Context, event domain.PurchaseConfirmedEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.publisher.PublishPurchaseConfirmed(ctx, event); err != nil {
			logger.Warn(ctx, "failed to publish purchase confirmed event", "username", event.Username, "error", err)
		}
	}()
}

func (s *CheckoutService) observe(result string) {
	if s.metrics != nil {
		s.metrics.PurchasesTotal.WithLabelValues(result).Inc()
	}
}
