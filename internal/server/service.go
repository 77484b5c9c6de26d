// Package server exposes the price pipeline over gRPC.
//
// Messages are google.protobuf.Struct values, so the service is described by
// hand instead of from generated code.
package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "pricetracker.v1.PriceService"

const (
	MethodExtractPrices     = "ExtractPrices"
	MethodReviewRecord      = "ReviewRecord"
	MethodListRecords       = "ListRecords"
	MethodListPendingReview = "ListPendingReview"
	MethodRecordsByStore    = "RecordsByStore"
	MethodExportRecords     = "ExportRecords"
	MethodCreateStore       = "CreateStore"
	MethodGetStore          = "GetStore"
	MethodListStores        = "ListStores"
	MethodUpdateStore       = "UpdateStore"
	MethodDeleteStore       = "DeleteStore"
	MethodStats             = "Stats"
)

// PriceServer is the server API for the price service.
type PriceServer interface {
	ExtractPrices(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReviewRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRecords(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPendingReview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordsByStore(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportRecords(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateStore(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStore(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListStores(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateStore(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteStore(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type handlerFunc func(PriceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call handlerFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PriceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(PriceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes the price service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PriceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodExtractPrices, PriceServer.ExtractPrices),
		unary(MethodReviewRecord, PriceServer.ReviewRecord),
		unary(MethodListRecords, PriceServer.ListRecords),
		unary(MethodListPendingReview, PriceServer.ListPendingReview),
		unary(MethodRecordsByStore, PriceServer.RecordsByStore),
		unary(MethodExportRecords, PriceServer.ExportRecords),
		unary(MethodCreateStore, PriceServer.CreateStore),
		unary(MethodGetStore, PriceServer.GetStore),
		unary(MethodListStores, PriceServer.ListStores),
		unary(MethodUpdateStore, PriceServer.UpdateStore),
		unary(MethodDeleteStore, PriceServer.DeleteStore),
		unary(MethodStats, PriceServer.Stats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pricetracker/v1/price_service",
}

// RegisterPriceServer registers srv on s.
func RegisterPriceServer(s grpc.ServiceRegistrar, srv PriceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the "/service/method" path for name.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// Client calls the price service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with in; a nil in sends an empty struct.
func (c *Client) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
