package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Core service method names.
const (
	CoreServiceName          = "corepanel.Core"
	CoreStartMethod          = "/corepanel.Core/Start"
	CoreStopMethod           = "/corepanel.Core/Stop"
	CoreParseMethod          = "/corepanel.Core/Parse"
	CoreChangeSettingsMethod = "/corepanel.Core/ChangeSettings"
	CoreInfoListenerMethod   = "/corepanel.Core/CoreInfoListener"
)

// CoreClient controls the core process lifecycle.
type CoreClient interface {
	Start(ctx context.Context, in *StartRequest, opts ...grpc.CallOption) (*CoreInfoResponse, error)
	Stop(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CoreInfoResponse, error)
	// Parse returns a *ResponseError alongside the response when the core
	// rejects the configuration.
	Parse(ctx context.Context, in *ParseRequest, opts ...grpc.CallOption) (*ParseResponse, error)
	ChangeSettings(ctx context.Context, in *ChangeSettingsRequest, opts ...grpc.CallOption) (*CoreInfoResponse, error)
	CoreInfoListener(ctx context.Context, in *Empty, opts ...grpc.CallOption) (Stream[CoreInfoResponse], error)
}

type coreClient struct {
	cc grpc.ClientConnInterface
}

// NewCoreClient wraps a connection. Calls use the JSON codec.
func NewCoreClient(cc grpc.ClientConnInterface) CoreClient {
	return &coreClient{cc: cc}
}

func (c *coreClient) Start(ctx context.Context, in *StartRequest, opts ...grpc.CallOption) (*CoreInfoResponse, error) {
	return invoke[StartRequest, CoreInfoResponse](ctx, c.cc, CoreStartMethod, in, opts...)
}

func (c *coreClient) Stop(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CoreInfoResponse, error) {
	return invoke[Empty, CoreInfoResponse](ctx, c.cc, CoreStopMethod, in, opts...)
}

func (c *coreClient) Parse(ctx context.Context, in *ParseRequest, opts ...grpc.CallOption) (*ParseResponse, error) {
	out, err := invoke[ParseRequest, ParseResponse](ctx, c.cc, CoreParseMethod, in, opts...)
	if err != nil {
		return nil, err
	}
	if out.ResponseCode != ResponseOK {
		return out, &ResponseError{Method: CoreParseMethod, Code: out.ResponseCode, Message: out.Message}
	}
	return out, nil
}

func (c *coreClient) ChangeSettings(ctx context.Context, in *ChangeSettingsRequest, opts ...grpc.CallOption) (*CoreInfoResponse, error) {
	return invoke[ChangeSettingsRequest, CoreInfoResponse](ctx, c.cc, CoreChangeSettingsMethod, in, opts...)
}

func (c *coreClient) CoreInfoListener(ctx context.Context, in *Empty, opts ...grpc.CallOption) (Stream[CoreInfoResponse], error) {
	return openStream[Empty, CoreInfoResponse](ctx, c.cc, &CoreServiceDesc.Streams[0], CoreInfoListenerMethod, in, opts...)
}

// CoreServer is implemented by core processes.
type CoreServer interface {
	Start(context.Context, *StartRequest) (*CoreInfoResponse, error)
	Stop(context.Context, *Empty) (*CoreInfoResponse, error)
	Parse(context.Context, *ParseRequest) (*ParseResponse, error)
	ChangeSettings(context.Context, *ChangeSettingsRequest) (*CoreInfoResponse, error)
	CoreInfoListener(*Empty, ServerStream[CoreInfoResponse]) error
}

// RegisterCoreServer registers srv on s.
func RegisterCoreServer(s grpc.ServiceRegistrar, srv CoreServer) {
	s.RegisterService(&CoreServiceDesc, srv)
}

// CoreServiceDesc describes the Core service for grpc.ServiceRegistrar.
var CoreServiceDesc = grpc.ServiceDesc{
	ServiceName: CoreServiceName,
	HandlerType: (*CoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Start", Handler: unaryHandler(CoreStartMethod, CoreServer.Start)},
		{MethodName: "Stop", Handler: unaryHandler(CoreStopMethod, CoreServer.Stop)},
		{MethodName: "Parse", Handler: unaryHandler(CoreParseMethod, CoreServer.Parse)},
		{MethodName: "ChangeSettings", Handler: unaryHandler(CoreChangeSettingsMethod, CoreServer.ChangeSettings)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "CoreInfoListener",
			Handler:       streamHandler(CoreServer.CoreInfoListener),
			ServerStreams: true,
		},
	},
}
