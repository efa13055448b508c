package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Full method names of the ExactMatch service.
const (
	ServiceName        = "rulesynth.v1.ExactMatch"
	LookupFullMethod   = "/" + ServiceName + "/Lookup"
	ReloadFullMethod   = "/" + ServiceName + "/Reload"
	exactMatchMetadata = "rulesynth/v1/exact_match.proto"
)

// ExactMatchServer is the server API for the ExactMatch service. Messages are
// protobuf well-known types so no generated code is needed.
type ExactMatchServer interface {
	Lookup(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Reload(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ExactMatchServiceDesc describes the ExactMatch service to grpc.Server.
var ExactMatchServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExactMatchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Lookup", Handler: lookupHandler},
		{MethodName: "Reload", Handler: reloadHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: exactMatchMetadata,
}

// RegisterExactMatchServer registers srv on s.
func RegisterExactMatchServer(s grpc.ServiceRegistrar, srv ExactMatchServer) {
	s.RegisterService(&ExactMatchServiceDesc, srv)
}

func lookupHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExactMatchServer).Lookup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LookupFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ExactMatchServer).Lookup(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func reloadHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExactMatchServer).Reload(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ReloadFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ExactMatchServer).Reload(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ExactMatchClient is the client API for the ExactMatch service.
type ExactMatchClient struct {
	cc grpc.ClientConnInterface
}

// NewExactMatchClient wraps cc.
func NewExactMatchClient(cc grpc.ClientConnInterface) *ExactMatchClient {
	return &ExactMatchClient{cc: cc}
}

// Lookup calls ExactMatch.Lookup.
func (c *ExactMatchClient) Lookup(ctx context.Context, utterance string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, LookupFullMethod, wrapperspb.String(utterance), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Reload calls ExactMatch.Reload.
func (c *ExactMatchClient) Reload(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ReloadFullMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
