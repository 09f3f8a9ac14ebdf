// Package v1 定义结算服务的 gRPC 契约：下单确认与统计推送流。
package v1

import (
	"context"

	"github.com/wyfcoding/storefront/pkg/codec"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProductQuantity 购买的商品及数量
type ProductQuantity struct {
	Id       int64 `json:"id"`
	Quantity int64 `json:"quantity"`
}

type ConfirmPurchaseRequest struct {
	Token                  string             `json:"token"`
	ProductQuantityUpdates []*ProductQuantity `json:"productQuantityUpdates"`
}

type ConfirmPurchaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type StreamCheckoutStatsRequest struct{}

// CheckoutStats 全局结算统计快照，金额以十进制字符串传输
type CheckoutStats struct {
	TotalProductsPurchased int64  `json:"totalProductsPurchased"`
	TotalMoneySpent        string `json:"totalMoneySpent"`
}

const (
	CheckoutService_ConfirmPurchase_FullMethodName     = "/checkout.v1.CheckoutService/ConfirmPurchase"
	CheckoutService_StreamCheckoutStats_FullMethodName = "/checkout.v1.CheckoutService/StreamCheckoutStats"
)

// CheckoutServiceClient 结算服务客户端接口
type CheckoutServiceClient interface {
	ConfirmPurchase(ctx context.Context, in *ConfirmPurchaseRequest, opts ...grpc.CallOption) (*ConfirmPurchaseResponse, error)
	StreamCheckoutStats(ctx context.Context, in *StreamCheckoutStatsRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[CheckoutStats], error)
}

type checkoutServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCheckoutServiceClient 创建结算服务客户端
func NewCheckoutServiceClient(cc grpc.ClientConnInterface) CheckoutServiceClient {
	return &checkoutServiceClient{cc}
}

func (c *checkoutServiceClient) ConfirmPurchase(ctx context.Context, in *ConfirmPurchaseRequest, opts ...grpc.CallOption) (*ConfirmPurchaseResponse, error) {
	out := new(ConfirmPurchaseResponse)
	if err := c.cc.Invoke(ctx, CheckoutService_ConfirmPurchase_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *checkoutServiceClient) StreamCheckoutStats(ctx context.Context, in *StreamCheckoutStatsRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[CheckoutStats], error) {
	stream, err := c.cc.NewStream(ctx, &CheckoutService_ServiceDesc.Streams[0], CheckoutService_StreamCheckoutStats_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[StreamCheckoutStatsRequest, CheckoutStats]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
}

// CheckoutService_StreamCheckoutStatsServer 统计推送流的服务端句柄
type CheckoutService_StreamCheckoutStatsServer = grpc.ServerStreamingServer[CheckoutStats]

// CheckoutServiceServer 结算服务端接口
type CheckoutServiceServer interface {
	ConfirmPurchase(context.Context, *ConfirmPurchaseRequest) (*ConfirmPurchaseResponse, error)
	StreamCheckoutStats(*StreamCheckoutStatsRequest, CheckoutService_StreamCheckoutStatsServer) error
}

// UnimplementedCheckoutServiceServer 嵌入后未实现的方法返回 Unimplemented
type UnimplementedCheckoutServiceServer struct{}

func (UnimplementedCheckoutServiceServer) ConfirmPurchase(context.Context, *ConfirmPurchaseRequest) (*ConfirmPurchaseResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ConfirmPurchase not implemented")
}

func (UnimplementedCheckoutServiceServer) StreamCheckoutStats(*StreamCheckoutStatsRequest, CheckoutService_StreamCheckoutStatsServer) error {
	return status.Error(codes.Unimplemented, "method StreamCheckoutStats not implemented")
}

// RegisterCheckoutServiceServer 注册结算服务
func RegisterCheckoutServiceServer(s grpc.ServiceRegistrar, srv CheckoutServiceServer) {
	s.RegisterService(&CheckoutService_ServiceDesc, srv)
}

func _CheckoutService_ConfirmPurchase_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ConfirmPurchaseRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CheckoutServiceServer).ConfirmPurchase(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckoutService_ConfirmPurchase_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CheckoutServiceServer).ConfirmPurchase(ctx, req.(*ConfirmPurchaseRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CheckoutService_StreamCheckoutStats_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(StreamCheckoutStatsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(CheckoutServiceServer).StreamCheckoutStats(m, &grpc.GenericServerStream[StreamCheckoutStatsRequest, CheckoutStats]{ServerStream: stream})
}

// CheckoutService_ServiceDesc 结算服务描述
var CheckoutService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "checkout.v1.CheckoutService",
	HandlerType: (*CheckoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ConfirmPurchase", Handler: _CheckoutService_ConfirmPurchase_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamCheckoutStats",
			Handler:       _CheckoutService_StreamCheckoutStats_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "go-api/checkout/v1",
}
