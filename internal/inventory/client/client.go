// Package client 库存服务的下游客户端，供结算、用户与推荐服务共用。
// 调用经过熔断器；传输失败与熔断打开统一映射为 Unavailable，业务错误与库存内部错误原样透传。
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	pb "github.com/wyfcoding/storefront/go-api/inventory/v1"
	"github.com/wyfcoding/storefront/internal/inventory/domain"
	"github.com/wyfcoding/storefront/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrUnavailable 库存服务不可达
var ErrUnavailable = errors.New("inventory service unavailable")

// BreakerConfig 熔断参数
type BreakerConfig struct {
	// 连续失败多少次后打开
	Failures uint32
	// 打开状态持续时长
	Timeout time.Duration
}

// Client 库存服务客户端
type Client struct {
	api     pb.InventoryServiceClient
	breaker *gobreaker.CircuitBreaker
}

// New 基于已建立的连接创建客户端
func New(cc grpc.ClientConnInterface, name string, cfg BreakerConfig) *Client {
	return newClient(pb.NewInventoryServiceClient(cc), name, cfg)
}

func newClient(api pb.InventoryServiceClient, name string, cfg BreakerConfig) *Client {
	failures := cfg.Failures
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// 业务拒绝与调用方取消不计入失败
		IsSuccessful: func(err error) bool {
			return err == nil || !isFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "inventory circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &Client{
		api:     api,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// GetAllProducts 读取完整目录
func (c *Client) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.api.GetAllProducts(ctx, &pb.GetAllProductsRequest{})
	})
	if err != nil {
		return nil, classify(err)
	}
	return FromProtoProducts(out.(*pb.GetAllProductsResponse).Products)
}

// UpdateQuantities 提交一个数量变更批次。
// 库存拒绝时返回原始的 gRPC status 错误，调用方可直接透传。
func (c *Client) UpdateQuantities(ctx context.Context, updates []domain.QuantityUpdate) ([]domain.Product, error) {
	req := &pb.UpdateQuantitiesRequest{Updates: make([]*pb.QuantityUpdate, 0, len(updates))}
	for _, u := range updates {
		req.Updates = append(req.Updates, &pb.QuantityUpdate{Id: u.ProductID, Quantity: u.Delta})
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.api.UpdateQuantities(ctx, req)
	})
	if err != nil {
		return nil, classify(err)
	}
	return FromProtoProducts(out.(*pb.UpdateQuantitiesResponse).UpdatedProducts)
}

// FromProtoProducts 传输结构转换为领域商品
func FromProtoProducts(products []*pb.Product) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d has invalid price %q: %w", p.Id, p.Price, err)
		}
		out = append(out, domain.Product{
			ID:                p.Id,
			Name:              p.Name,
			Description:       p.Description,
			Subcategory:       p.Subcategory,
			Price:             price,
			AvailableQuantity: p.AvailableQuantity,
		})
	}
	return out, nil
}

// isUnreachable 库存服务未能处理请求
func isUnreachable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	}
	return false
}

// isFailure 计入熔断的失败：不可达，以及库存自身的内部错误
func isFailure(err error) bool {
	if isUnreachable(err) {
		return true
	}
	switch status.Code(err) {
	case codes.Internal, codes.Unknown:
		return true
	}
	return false
}

func classify(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if isUnreachable(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// IsUnavailable 判断错误是否表示库存服务不可达
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
