// Package grpc 库存服务 gRPC 处理器
package grpc

import (
	"context"
	"errors"
	"log/slog"

	pb "github.com/wyfcoding/storefront/go-api/inventory/v1"
	"github.com/wyfcoding/storefront/internal/inventory/application"
	"github.com/wyfcoding/storefront/internal/inventory/domain"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Handler gRPC 处理器
type Handler struct {
	pb.UnimplementedInventoryServiceServer
	service *application.InventoryService
	metrics *metrics.Metrics
}

// NewHandler 创建 gRPC 处理器实例，m 可为 nil
func NewHandler(service *application.InventoryService, m *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		metrics: m,
	}
}

// GetAllProducts 返回完整目录
func (h *Handler) GetAllProducts(ctx context.Context, req *pb.GetAllProductsRequest) (*pb.GetAllProductsResponse, error) {
	products := h.service.GetAllProducts(ctx)
	return &pb.GetAllProductsResponse{Products: ToProtoProducts(products)}, nil
}

// UpdateQuantities 原子地应用数量变更批次
func (h *Handler) UpdateQuantities(ctx context.Context, req *pb.UpdateQuantitiesRequest) (*pb.UpdateQuantitiesResponse, error) {
	slog.InfoContext(ctx, "gRPC UpdateQuantities received", "updates", len(req.Updates))
	done := logger.LogDuration(ctx, "gRPC UpdateQuantities successful")

	updates := make([]domain.QuantityUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		if u == nil {
			continue
		}
		updates = append(updates, domain.QuantityUpdate{ProductID: u.Id, Delta: u.Quantity})
	}

	updated, err := h.service.UpdateQuantities(ctx, updates)
	if err != nil {
		slog.ErrorContext(ctx, "gRPC UpdateQuantities failed", "error", err)
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			h.observe("not_found")
			return nil, status.Error(codes.NotFound, err.Error())
		case errors.Is(err, domain.ErrInsufficientStock):
			h.observe("insufficient")
			return nil, status.Error(codes.InvalidArgument, err.Error())
		default:
			h.observe("error")
			return nil, status.Errorf(codes.Internal, "failed to update quantities: %v", err)
		}
	}

	h.observe("applied")
	done("updated", len(updated))
	return &pb.UpdateQuantitiesResponse{
		Message:         "Quantities updated successfully",
		UpdatedProducts: ToProtoProducts(updated),
	}, nil
}

func (h *Handler) observe(result string) {
	if h.metrics != nil {
		h.metrics.InventoryBatches.WithLabelValues(result).Inc()
	}
}

// ToProtoProducts 领域商品转换为传输结构
func ToProtoProducts(products []domain.Product) []*pb.Product {
	out := make([]*pb.Product, 0, len(products))
	for _, p := range products {
		out = append(out, &pb.Product{
			Id:                p.ID,
			Name:              p.Name,
			Description:       p.Description,
			Subcategory:       p.Subcategory,
			Price:             p.Price.String(),
			AvailableQuantity: p.AvailableQuantity,
		})
	}
	return out
}
