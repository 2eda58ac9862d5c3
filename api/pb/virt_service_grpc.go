package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	LibvirtService_CreateDomainService_FullMethodName     = "/libvirt_service.LibvirtService/CreateDomainService"
	LibvirtService_ControllerDomainService_FullMethodName = "/libvirt_service.LibvirtService/ControllerDomainService"
	LibvirtService_InfoDomainService_FullMethodName       = "/libvirt_service.LibvirtService/InfoDomainService"
)

// LibvirtServiceClient is the client API for LibvirtService.
type LibvirtServiceClient interface {
	CreateDomainService(ctx context.Context, in *CreateDomainRequest, opts ...grpc.CallOption) (*UniversalResponse, error)
	ControllerDomainService(ctx context.Context, in *ControllerDomainRequest, opts ...grpc.CallOption) (*UniversalResponse, error)
	InfoDomainService(ctx context.Context, in *InfoDomainRequest, opts ...grpc.CallOption) (*InfoDomainResponse, error)
}

type libvirtServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLibvirtServiceClient(cc grpc.ClientConnInterface) LibvirtServiceClient {
	return &libvirtServiceClient{cc}
}

func (c *libvirtServiceClient) CreateDomainService(ctx context.Context, in *CreateDomainRequest, opts ...grpc.CallOption) (*UniversalResponse, error) {
	out := new(UniversalResponse)
	if err := c.cc.Invoke(ctx, LibvirtService_CreateDomainService_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *libvirtServiceClient) ControllerDomainService(ctx context.Context, in *ControllerDomainRequest, opts ...grpc.CallOption) (*UniversalResponse, error) {
	out := new(UniversalResponse)
	if err := c.cc.Invoke(ctx, LibvirtService_ControllerDomainService_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *libvirtServiceClient) InfoDomainService(ctx context.Context, in *InfoDomainRequest, opts ...grpc.CallOption) (*InfoDomainResponse, error) {
	out := new(InfoDomainResponse)
	if err := c.cc.Invoke(ctx, LibvirtService_InfoDomainService_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// LibvirtServiceServer is the server API for LibvirtService.
// Implementations must embed UnimplementedLibvirtServiceServer.
type LibvirtServiceServer interface {
	CreateDomainService(context.Context, *CreateDomainRequest) (*UniversalResponse, error)
	ControllerDomainService(context.Context, *ControllerDomainRequest) (*UniversalResponse, error)
	InfoDomainService(context.Context, *InfoDomainRequest) (*InfoDomainResponse, error)
	mustEmbedUnimplementedLibvirtServiceServer()
}

// UnimplementedLibvirtServiceServer must be embedded by value.
type UnimplementedLibvirtServiceServer struct{}

func (UnimplementedLibvirtServiceServer) CreateDomainService(context.Context, *CreateDomainRequest) (*UniversalResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateDomainService not implemented")
}

func (UnimplementedLibvirtServiceServer) ControllerDomainService(context.Context, *ControllerDomainRequest) (*UniversalResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ControllerDomainService not implemented")
}

func (UnimplementedLibvirtServiceServer) InfoDomainService(context.Context, *InfoDomainRequest) (*InfoDomainResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method InfoDomainService not implemented")
}

func (UnimplementedLibvirtServiceServer) mustEmbedUnimplementedLibvirtServiceServer() {}

func RegisterLibvirtServiceServer(s grpc.ServiceRegistrar, srv LibvirtServiceServer) {
	s.RegisterService(&LibvirtService_ServiceDesc, srv)
}

func _LibvirtService_CreateDomainService_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateDomainRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LibvirtServiceServer).CreateDomainService(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LibvirtService_CreateDomainService_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LibvirtServiceServer).CreateDomainService(ctx, req.(*CreateDomainRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LibvirtService_ControllerDomainService_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ControllerDomainRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LibvirtServiceServer).ControllerDomainService(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LibvirtService_ControllerDomainService_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LibvirtServiceServer).ControllerDomainService(ctx, req.(*ControllerDomainRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LibvirtService_InfoDomainService_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(InfoDomainRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LibvirtServiceServer).InfoDomainService(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LibvirtService_InfoDomainService_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LibvirtServiceServer).InfoDomainService(ctx, req.(*InfoDomainRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// LibvirtService_ServiceDesc is the grpc.ServiceDesc for LibvirtService.
var LibvirtService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "libvirt_service.LibvirtService",
	HandlerType: (*LibvirtServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateDomainService",
			Handler:    _LibvirtService_CreateDomainService_Handler,
		},
		{
			MethodName: "ControllerDomainService",
			Handler:    _LibvirtService_ControllerDomainService_Handler,
		},
		{
			MethodName: "InfoDomainService",
			Handler:    _LibvirtService_InfoDomainService_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "virt_service.proto",
}
