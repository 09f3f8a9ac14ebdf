// Package grpc 用户服务 gRPC 处理器
package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"

	v1 "github.com/wyfcoding/storefront/go-api/user/v1"
	invclient "github.com/wyfcoding/storefront/internal/inventory/client"
	"github.com/wyfcoding/storefront/internal/user/application"
	"github.com/wyfcoding/storefront/internal/user/domain"
	"github.com/wyfcoding/storefront/pkg/auth"
	"github.com/wyfcoding/storefront/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server gRPC 处理器
type Server struct {
	v1.UnimplementedUserServiceServer
	app *application.UserService
}

// NewServer 创建处理器并注册到 gRPC 服务
func NewServer(s grpc.ServiceRegistrar, app *application.UserService) *Server {
	srv := &Server{app: app}
	v1.RegisterUserServiceServer(s, srv)
	return srv
}

// UpdateRecommendations 接收结算服务的购买通知流。
// 单条消息失败只记录日志，流保持打开；客户端关闭发送后回复空响应。
func (s *Server) UpdateRecommendations(stream v1.UserService_UpdateRecommendationsServer) error {
	ctx := stream.Context()
	slog.InfoContext(ctx, "gRPC UpdateRecommendations stream opened")

	received := 0
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			slog.InfoContext(ctx, "gRPC UpdateRecommendations stream closed", "messages", received)
			return stream.SendAndClose(&v1.Empty{})
		}
		if err != nil {
			slog.WarnContext(ctx, "gRPC UpdateRecommendations stream broken", "messages", received, "error", err)
			return err
		}
		received++

		if err := s.app.RecordPurchases(ctx, msg.Username, msg.ProductIds); err != nil {
			slog.ErrorContext(ctx, "purchase notification skipped", "username", msg.Username, "units", len(msg.ProductIds), "error", err)
			continue
		}
		slog.DebugContext(ctx, "purchase notification recorded", "username", msg.Username, "units", len(msg.ProductIds))
	}
}

// GetSimilarProducts 返回缓存的推荐
func (s *Server) GetSimilarProducts(ctx context.Context, req *v1.TokenRequest) (*v1.GetSimilarProductsResponse, error) {
	slog.InfoContext(ctx, "gRPC GetSimilarProducts received")
	done := logger.LogDuration(ctx, "gRPC GetSimilarProducts successful")

	ids, err := s.app.GetSimilarProducts(ctx, req.Token)
	if err != nil {
		slog.ErrorContext(ctx, "gRPC GetSimilarProducts failed", "error", err)
		return nil, toStatus(err)
	}

	done("count", len(ids))
	return &v1.GetSimilarProductsResponse{ProductIds: ids}, nil
}

// GetUserHistoryProducts 返回带商品详情的购买历史
func (s *Server) GetUserHistoryProducts(ctx context.Context, req *v1.TokenRequest) (*v1.GetUserHistoryProductsResponse, error) {
	slog.InfoContext(ctx, "gRPC GetUserHistoryProducts received")
	done := logger.LogDuration(ctx, "gRPC GetUserHistoryProducts successful")

	history, err := s.app.GetUserHistoryProducts(ctx, req.Token)
	if err != nil {
		slog.ErrorContext(ctx, "gRPC GetUserHistoryProducts failed", "error", err)
		return nil, toStatus(err)
	}

	products := make([]*v1.HistoryProduct, 0, len(history))
	for _, h := range history {
		products = append(products, &v1.HistoryProduct{
			Id:          h.Product.ID,
			Name:        h.Product.Name,
			Description: h.Product.Description,
			Subcategory: h.Product.Subcategory,
			Price:       h.Product.Price.String(),
			Quantity:    h.Quantity,
		})
	}

	done("count", len(products))
	return &v1.GetUserHistoryProductsResponse{Products: products}, nil
}

// RegisterUser 注册用户，重复注册返回 created=false
func (s *Server) RegisterUser(ctx context.Context, req *v1.RegisterUserRequest) (*v1.RegisterUserResponse, error) {
	slog.InfoContext(ctx, "gRPC RegisterUser received", "username", req.Username)

	created, err := s.app.RegisterUser(ctx, req.Username)
	if err != nil {
		slog.ErrorContext(ctx, "gRPC RegisterUser failed", "username", req.Username, "error", err)
		return nil, toStatus(err)
	}
	return &v1.RegisterUserResponse{Created: created}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid or expired token")
	case errors.Is(err, domain.ErrUserNotFound):
		return status.Error(codes.NotFound, "user not found")
	case errors.Is(err, application.ErrInvalidUsername):
		return status.Error(codes.InvalidArgument, err.Error())
	case invclient.IsUnavailable(err):
		return status.Error(codes.Unavailable, "failed to fetch products from inventory service")
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
