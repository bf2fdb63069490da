package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "edc.configuration.v1.ConfigurationService"

// Full method names, as used in interceptors and by clients.
const (
	MethodHealth          = "/" + ServiceName + "/Health"
	MethodGetAttribute    = "/" + ServiceName + "/GetAttribute"
	MethodListAttributes  = "/" + ServiceName + "/ListAttributes"
	MethodSetAttribute    = "/" + ServiceName + "/SetAttribute"
	MethodDeleteAttribute = "/" + ServiceName + "/DeleteAttribute"
)

// ConfigurationServiceServer is the gRPC surface of the configuration
// service. Messages are protobuf well-known types, so the service needs no
// generated code.
type ConfigurationServiceServer interface {
	Health(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	GetAttribute(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListAttributes(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	SetAttribute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteAttribute(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// unaryHandler adapts a typed method to a grpc.MethodHandler.
func unaryHandler[Req proto.Message, Resp any](
	fullMethod string,
	newReq func() Req,
	call func(ConfigurationServiceServer, context.Context, Req) (Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(ConfigurationServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newString() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }

// ConfigurationServiceDesc describes ConfigurationServiceServer for
// grpc.Server.RegisterService.
var ConfigurationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConfigurationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Health",
			Handler: unaryHandler(MethodHealth, func() *emptypb.Empty { return &emptypb.Empty{} },
				ConfigurationServiceServer.Health),
		},
		{
			MethodName: "GetAttribute",
			Handler:    unaryHandler(MethodGetAttribute, newString, ConfigurationServiceServer.GetAttribute),
		},
		{
			MethodName: "ListAttributes",
			Handler:    unaryHandler(MethodListAttributes, newString, ConfigurationServiceServer.ListAttributes),
		},
		{
			MethodName: "SetAttribute",
			Handler: unaryHandler(MethodSetAttribute, func() *structpb.Struct { return &structpb.Struct{} },
				ConfigurationServiceServer.SetAttribute),
		},
		{
			MethodName: "DeleteAttribute",
			Handler:    unaryHandler(MethodDeleteAttribute, newString, ConfigurationServiceServer.DeleteAttribute),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "edc/configuration/v1/configuration.proto",
}

// NewGRPCServer returns a gRPC server with the ConfigurationService and
// reflection registered. Interceptors log through the server's logger.
func NewGRPCServer(cs *ConfigurationServer, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(cs.logger),
			LoggingInterceptor(cs.logger),
			AuthInterceptor(authToken),
		),
	)

	srv.RegisterService(&ConfigurationServiceDesc, cs)
	reflection.Register(srv)

	return srv
}

// Health returns the service health status.
func (s *ConfigurationServer) Health(_ context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("ok"), nil
}

// GetAttribute returns one attribute by name.
func (s *ConfigurationServer) GetAttribute(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	attr, err := s.getAttribute(ctx, req.GetValue())
	if err != nil {
		return nil, storeError(err, req.GetValue())
	}
	return toStruct(attr)
}

// ListAttributes returns the attributes in a category, or all attributes
// when the category is empty.
func (s *ConfigurationServer) ListAttributes(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	attrs, err := s.listAttributes(ctx, req.GetValue())
	if err != nil {
		return nil, storeError(err, "")
	}
	return attributesToProto(attrs)
}

// SetAttribute creates or updates an attribute.
func (s *ConfigurationServer) SetAttribute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, sr, err := setRequestFromProto(req)
	if err != nil {
		return nil, storeError(err, name)
	}
	attr, err := s.setAttribute(ctx, name, sr)
	if err != nil {
		return nil, storeError(err, name)
	}
	return toStruct(attr)
}

// DeleteAttribute removes an attribute.
func (s *ConfigurationServer) DeleteAttribute(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.deleteAttribute(ctx, req.GetValue()); err != nil {
		return nil, storeError(err, req.GetValue())
	}
	return &emptypb.Empty{}, nil
}
