// Package v1 定义用户服务的 gRPC 契约：购买通知客户端流、推荐查询与购买历史查询。
package v1

import (
	"context"

	"github.com/wyfcoding/storefront/pkg/codec"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PurchaseNotification 结算服务推送的购买记录，每件商品一个 id
type PurchaseNotification struct {
	Username   string  `json:"username"`
	ProductIds []int64 `json:"productIds"`
}

type Empty struct{}

type TokenRequest struct {
	Token string `json:"token"`
}

type GetSimilarProductsResponse struct {
	ProductIds []int64 `json:"productIds"`
}

// HistoryProduct 购买历史条目，附带库存中的展示属性
type HistoryProduct struct {
	Id          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Subcategory string `json:"subcategory"`
	Price       string `json:"price"`
	Quantity    int64  `json:"quantity"`
}

type GetUserHistoryProductsResponse struct {
	Products []*HistoryProduct `json:"products"`
}

type RegisterUserRequest struct {
	Username string `json:"username"`
}

type RegisterUserResponse struct {
	Created bool `json:"created"`
}

const (
	UserService_UpdateRecommendations_FullMethodName  = "/user.v1.UserService/UpdateRecommendations"
	UserService_GetSimilarProducts_FullMethodName     = "/user.v1.UserService/GetSimilarProducts"
	UserService_GetUserHistoryProducts_FullMethodName = "/user.v1.UserService/GetUserHistoryProducts"
	UserService_RegisterUser_FullMethodName           = "/user.v1.UserService/RegisterUser"
)

// UserServiceClient 用户服务客户端接口
type UserServiceClient interface {
	UpdateRecommendations(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[PurchaseNotification, Empty], error)
	GetSimilarProducts(ctx context.Context, in *TokenRequest, opts ...grpc.CallOption) (*GetSimilarProductsResponse, error)
	GetUserHistoryProducts(ctx context.Context, in *TokenRequest, opts ...grpc.CallOption) (*GetUserHistoryProductsResponse, error)
	RegisterUser(ctx context.Context, in *RegisterUserRequest, opts ...grpc.CallOption) (*RegisterUserResponse, error)
}

type userServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewUserServiceClient 创建用户服务客户端
func NewUserServiceClient(cc grpc.ClientConnInterface) UserServiceClient {
	return &userServiceClient{cc}
}

func (c *userServiceClient) UpdateRecommendations(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[PurchaseNotification, Empty], error) {
	stream, err := c.cc.NewStream(ctx, &UserService_ServiceDesc.Streams[0], UserService_UpdateRecommendations_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[PurchaseNotification, Empty]{ClientStream: stream}, nil
}

func (c *userServiceClient) GetSimilarProducts(ctx context.Context, in *TokenRequest, opts ...grpc.CallOption) (*GetSimilarProductsResponse, error) {
	out := new(GetSimilarProductsResponse)
	if err := c.cc.Invoke(ctx, UserService_GetSimilarProducts_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *userServiceClient) GetUserHistoryProducts(ctx context.Context, in *TokenRequest, opts ...grpc.CallOption) (*GetUserHistoryProductsResponse, error) {
	out := new(GetUserHistoryProductsResponse)
	if err := c.cc.Invoke(ctx, UserService_GetUserHistoryProducts_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *userServiceClient) RegisterUser(ctx context.Context, in *RegisterUserRequest, opts ...grpc.CallOption) (*RegisterUserResponse, error) {
	out := new(RegisterUserResponse)
	if err := c.cc.Invoke(ctx, UserService_RegisterUser_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
}

// UserService_UpdateRecommendationsClient 购买通知流的客户端句柄
type UserService_UpdateRecommendationsClient = grpc.ClientStreamingClient[PurchaseNotification, Empty]

// UserService_UpdateRecommendationsServer 购买通知流的服务端句柄
type UserService_UpdateRecommendationsServer = grpc.ClientStreamingServer[PurchaseNotification, Empty]

// UserServiceServer 用户服务端接口
type UserServiceServer interface {
	UpdateRecommendations(UserService_UpdateRecommendationsServer) error
	GetSimilarProducts(context.Context, *TokenRequest) (*GetSimilarProductsResponse, error)
	GetUserHistoryProducts(context.Context, *TokenRequest) (*GetUserHistoryProductsResponse, error)
	RegisterUser(context.Context, *RegisterUserRequest) (*RegisterUserResponse, error)
}

// UnimplementedUserServiceServer 嵌入后未实现的方法返回 Unimplemented
type UnimplementedUserServiceServer struct{}

func (UnimplementedUserServiceServer) UpdateRecommendations(UserService_UpdateRecommendationsServer) error {
	return status.Error(codes.Unimplemented, "method UpdateRecommendations not implemented")
}

func (UnimplementedUserServiceServer) GetSimilarProducts(context.Context, *TokenRequest) (*GetSimilarProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSimilarProducts not implemented")
}

func (UnimplementedUserServiceServer) GetUserHistoryProducts(context.Context, *TokenRequest) (*GetUserHistoryProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUserHistoryProducts not implemented")
}

func (UnimplementedUserServiceServer) RegisterUser(context.Context, *RegisterUserRequest) (*RegisterUserResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RegisterUser not implemented")
}

// RegisterUserServiceServer 注册用户服务
func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserService_ServiceDesc, srv)
}

func _UserService_UpdateRecommendations_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(UserServiceServer).UpdateRecommendations(&grpc.GenericServerStream[PurchaseNotification, Empty]{ServerStream: stream})
}

func _UserService_GetSimilarProducts_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(TokenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).GetSimilarProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UserService_GetSimilarProducts_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(UserServiceServer).GetSimilarProducts(ctx, req.(*TokenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _UserService_GetUserHistoryProducts_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(TokenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).GetUserHistoryProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UserService_GetUserHistoryProducts_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(UserServiceServer).GetUserHistoryProducts(ctx, req.(*TokenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _UserService_RegisterUser_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RegisterUserRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserServiceServer).RegisterUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UserService_RegisterUser_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(UserServiceServer).RegisterUser(ctx, req.(*RegisterUserRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// UserService_ServiceDesc 用户服务描述
var UserService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "user.v1.UserService",
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSimilarProducts", Handler: _UserService_GetSimilarProducts_Handler},
		{MethodName: "GetUserHistoryProducts", Handler: _UserService_GetUserHistoryProducts_Handler},
		{MethodName: "RegisterUser", Handler: _UserService_RegisterUser_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "UpdateRecommendations",
			Handler:       _UserService_UpdateRecommendations_Handler,
			ClientStreams: true,
		},
	},
	Metadata: "go-api/user/v1",
}
