// Package grpc 结算服务 gRPC 处理器
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	pb "github.com/wyfcoding/storefront/go-api/checkout/v1"
	"github.com/wyfcoding/storefront/internal/checkout/application"
	"github.com/wyfcoding/storefront/internal/checkout/domain"
	invclient "github.com/wyfcoding/storefront/internal/inventory/client"
	"github.com/wyfcoding/storefront/pkg/auth"
	"github.com/wyfcoding/storefront/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Handler gRPC 处理器
type Handler struct {
	pb.UnimplementedCheckoutServiceServer
	service *application.CheckoutService
	// 统计推送间隔
	interval time.Duration
}

// NewHandler 创建 gRPC 处理器实例
func NewHandler(service *application.CheckoutService, interval time.Duration) *Handler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Handler{
		service:  service,
		interval: interval,
	}
}

// ConfirmPurchase 确认购买
func (h *Handler) ConfirmPurchase(ctx context.Context, req *pb.ConfirmPurchaseRequest) (*pb.ConfirmPurchaseResponse, error) {
	slog.InfoContext(ctx, "gRPC ConfirmPurchase received", "items", len(req.ProductQuantityUpdates))
	done := logger.LogDuration(ctx, "gRPC ConfirmPurchase successful")

	items := make([]domain.PurchaseItem, 0, len(req.ProductQuantityUpdates))
	for _, it := range req.ProductQuantityUpdates {
		if it == nil {
			continue
		}
		items = append(items, domain.PurchaseItem{ProductID: it.Id, Quantity: it.Quantity})
	}

	result, err := h.service.ConfirmPurchase(ctx, req.Token, items)
	if err != nil {
		slog.ErrorContext(ctx, "gRPC ConfirmPurchase failed", "error", err)
		return nil, toStatus(err)
	}

	done("username", result.Username,
		"quantity", result.TotalQuantity,
		"money", result.TotalMoney.String())
	return &pb.ConfirmPurchaseResponse{Success: true, Message: result.Message}, nil
}

// StreamCheckoutStats 立即推送一次快照，之后按固定间隔推送，直到客户端取消
func (h *Handler) StreamCheckoutStats(req *pb.StreamCheckoutStatsRequest, stream pb.CheckoutService_StreamCheckoutStatsServer) error {
	ctx := stream.Context()
	slog.InfoContext(ctx, "gRPC StreamCheckoutStats subscribed", "interval", h.interval)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		stats := h.service.Stats()
		if err := stream.Send(&pb.CheckoutStats{
			TotalProductsPurchased: stats.TotalProductsPurchased,
			TotalMoneySpent:        stats.TotalMoneySpent.StringFixed(2),
		}); err != nil {
			slog.WarnContext(ctx, "gRPC StreamCheckoutStats send failed", "error", err)
			return err
		}

		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "gRPC StreamCheckoutStats unsubscribed")
			return nil
		case <-ticker.C:
		}
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid or expired token")
	case errors.Is(err, application.ErrEmptyPurchase):
		return status.Error(codes.InvalidArgument, err.Error())
	case invclient.IsUnavailable(err):
		return status.Errorf(codes.Unavailable, "inventory unavailable: %v", err)
	}
	// 库存的业务拒绝与内部错误原样透传
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.NotFound, codes.InvalidArgument, codes.Internal:
			return st.Err()
		}
	}
	return status.Errorf(codes.Internal, "failed to confirm purchase: %v", err)
}
