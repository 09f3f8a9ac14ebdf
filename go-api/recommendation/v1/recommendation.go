// Package v1 定义推荐服务的 gRPC 契约：按用户名关联的双向打分流。
package v1

import (
	"context"

	"github.com/wyfcoding/storefront/pkg/codec"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SimilarProductsMessage 请求与响应共用：请求携带已购商品，响应携带推荐商品
type SimilarProductsMessage struct {
	Username   string  `json:"username"`
	ProductIds []int64 `json:"productIds"`
}

const (
	RecommendationService_GetSimilarProducts_FullMethodName = "/recommendation.v1.RecommendationService/GetSimilarProducts"
)

// RecommendationServiceClient 推荐服务客户端接口
type RecommendationServiceClient interface {
	GetSimilarProducts(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[SimilarProductsMessage, SimilarProductsMessage], error)
}

type recommendationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRecommendationServiceClient 创建推荐服务客户端
func NewRecommendationServiceClient(cc grpc.ClientConnInterface) RecommendationServiceClient {
	return &recommendationServiceClient{cc}
}

func (c *recommendationServiceClient) GetSimilarProducts(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[SimilarProductsMessage, SimilarProductsMessage], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
	stream, err := c.cc.NewStream(ctx, &RecommendationService_ServiceDesc.Streams[0], RecommendationService_GetSimilarProducts_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[SimilarProductsMessage, SimilarProductsMessage]{ClientStream: stream}, nil
}

// RecommendationService_GetSimilarProductsClient 双向流的客户端句柄
type RecommendationService_GetSimilarProductsClient = grpc.BidiStreamingClient[SimilarProductsMessage, SimilarProductsMessage]

// RecommendationService_GetSimilarProductsServer 双向流的服务端句柄
type RecommendationService_GetSimilarProductsServer = grpc.BidiStreamingServer[SimilarProductsMessage, SimilarProductsMessage]

// RecommendationServiceServer 推荐服务端接口
type RecommendationServiceServer interface {
	GetSimilarProducts(RecommendationService_GetSimilarProductsServer) error
}

// UnimplementedRecommendationServiceServer 嵌入后未实现的方法返回 Unimplemented
type UnimplementedRecommendationServiceServer struct{}

func (UnimplementedRecommendationServiceServer) GetSimilarProducts(RecommendationService_GetSimilarProductsServer) error {
	return status.Error(codes.Unimplemented, "method GetSimilarProducts not implemented")
}

// RegisterRecommendationServiceServer 注册推荐服务
func RegisterRecommendationServiceServer(s grpc.ServiceRegistrar, srv RecommendationServiceServer) {
	s.RegisterService(&RecommendationService_ServiceDesc, srv)
}

func _RecommendationService_GetSimilarProducts_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(RecommendationServiceServer).GetSimilarProducts(&grpc.GenericServerStream[SimilarProductsMessage, SimilarProductsMessage]{ServerStream: stream})
}

// RecommendationService_ServiceDesc 推荐服务描述
var RecommendationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "recommendation.v1.RecommendationService",
	HandlerType: (*RecommendationServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "GetSimilarProducts",
			Handler:       _RecommendationService_GetSimilarProducts_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "go-api/recommendation/v1",
}
