// Package v1 定义库存服务的 gRPC 契约：消息结构、服务描述与客户端/服务端接口。
// 消息通过 pkg/codec 注册的 JSON 编解码器传输。
package v1

import (
	"context"

	"github.com/wyfcoding/storefront/pkg/codec"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Product 商品快照，价格以十进制字符串传输
type Product struct {
	Id                int64  `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Subcategory       string `json:"subcategory"`
	Price             string `json:"price"`
	AvailableQuantity int64  `json:"availableQuantity"`
}

// QuantityUpdate 单个商品的数量变化，正数表示扣减
type QuantityUpdate struct {
	Id       int64 `json:"id"`
	Quantity int64 `json:"quantity"`
}

type GetAllProductsRequest struct{}

type GetAllProductsResponse struct {
	Products []*Product `json:"products"`
}

type UpdateQuantitiesRequest struct {
	Updates []*QuantityUpdate `json:"updates"`
}

type UpdateQuantitiesResponse struct {
	Message         string     `json:"message"`
	UpdatedProducts []*Product `json:"updatedProducts"`
}

const (
	InventoryService_GetAllProducts_FullMethodName   = "/inventory.v1.InventoryService/GetAllProducts"
	InventoryService_UpdateQuantities_FullMethodName = "/inventory.v1.InventoryService/UpdateQuantities"
)

// InventoryServiceClient 库存服务客户端接口
type InventoryServiceClient interface {
	GetAllProducts(ctx context.Context, in *GetAllProductsRequest, opts ...grpc.CallOption) (*GetAllProductsResponse, error)
	UpdateQuantities(ctx context.Context, in *UpdateQuantitiesRequest, opts ...grpc.CallOption) (*UpdateQuantitiesResponse, error)
}

type inventoryServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewInventoryServiceClient 创建库存服务客户端
func NewInventoryServiceClient(cc grpc.ClientConnInterface) InventoryServiceClient {
	return &inventoryServiceClient{cc}
}

func (c *inventoryServiceClient) GetAllProducts(ctx context.Context, in *GetAllProductsRequest, opts ...grpc.CallOption) (*GetAllProductsResponse, error) {
	out := new(GetAllProductsResponse)
	if err := c.cc.Invoke(ctx, InventoryService_GetAllProducts_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inventoryServiceClient) UpdateQuantities(ctx context.Context, in *UpdateQuantitiesRequest, opts ...grpc.CallOption) (*UpdateQuantitiesResponse, error) {
	out := new(UpdateQuantitiesResponse)
	if err := c.cc.Invoke(ctx, InventoryService_UpdateQuantities_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
}

// InventoryServiceServer 库存服务端接口
type InventoryServiceServer interface {
	GetAllProducts(context.Context, *GetAllProductsRequest) (*GetAllProductsResponse, error)
	UpdateQuantities(context.Context, *UpdateQuantitiesRequest) (*UpdateQuantitiesResponse, error)
}

// UnimplementedInventoryServiceServer 嵌入后未实现的方法返回 Unimplemented
type UnimplementedInventoryServiceServer struct{}

func (UnimplementedInventoryServiceServer) GetAllProducts(context.Context, *GetAllProductsRequest) (*GetAllProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAllProducts not implemented")
}

func (UnimplementedInventoryServiceServer) UpdateQuantities(context.Context, *UpdateQuantitiesRequest) (*UpdateQuantitiesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateQuantities not implemented")
}

// RegisterInventoryServiceServer 注册库存服务
func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&InventoryService_ServiceDesc, srv)
}

func _InventoryService_GetAllProducts_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetAllProductsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServiceServer).GetAllProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: InventoryService_GetAllProducts_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServiceServer).GetAllProducts(ctx, req.(*GetAllProductsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _InventoryService_UpdateQuantities_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpdateQuantitiesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServiceServer).UpdateQuantities(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: InventoryService_UpdateQuantities_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServiceServer).UpdateQuantities(ctx, req.(*UpdateQuantitiesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// InventoryService_ServiceDesc 库存服务描述
var InventoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "inventory.v1.InventoryService",
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetAllProducts", Handler: _InventoryService_GetAllProducts_Handler},
		{MethodName: "UpdateQuantities", Handler: _InventoryService_UpdateQuantities_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "go-api/inventory/v1",
}
