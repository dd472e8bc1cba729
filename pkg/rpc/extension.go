package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ExtensionHost service method names.
const (
	ExtensionHostServiceName  = "corepanel.ExtensionHost"
	ExtensionListMethod       = "/corepanel.ExtensionHost/ListExtensions"
	ExtensionEditMethod       = "/corepanel.ExtensionHost/EditExtension"
	ExtensionConnectMethod    = "/corepanel.ExtensionHost/Connect"
	ExtensionSubmitFormMethod = "/corepanel.ExtensionHost/SubmitForm"
	ExtensionCancelMethod     = "/corepanel.ExtensionHost/Cancel"
	ExtensionCloseMethod      = "/corepanel.ExtensionHost/Close"
)

// ExtensionHostClient talks to the extension host inside the core. Unary calls
// whose result code is FAILED return the result together with a
// *ResponseError.
type ExtensionHostClient interface {
	ListExtensions(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ExtensionList, error)
	EditExtension(ctx context.Context, in *EditExtensionRequest, opts ...grpc.CallOption) (*ExtensionActionResult, error)
	Connect(ctx context.Context, in *ExtensionRequest, opts ...grpc.CallOption) (Stream[ExtensionResponse], error)
	SubmitForm(ctx context.Context, in *SendExtensionDataRequest, opts ...grpc.CallOption) (*ExtensionActionResult, error)
	Cancel(ctx context.Context, in *ExtensionRequest, opts ...grpc.CallOption) (*ExtensionActionResult, error)
	Close(ctx context.Context, in *ExtensionRequest, opts ...grpc.CallOption) (*ExtensionActionResult, error)
}

type extensionHostClient struct {
	cc grpc.ClientConnInterface
}

// NewExtensionHostClient wraps a connection. Calls use the JSON codec.
func NewExtensionHostClient(cc grpc.ClientConnInterface) ExtensionHostClient {
	return &extensionHostClient{cc: cc}
}

func (c *extensionHostClient) ListExtensions(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ExtensionList, error) {
	return invoke[Empty, ExtensionList](ctx, c.cc, ExtensionListMethod, in, opts...)
}

func (c *extensionHostClient) EditExtension(ctx context.Context, in *EditExtensionRequest, opts ...grpc.CallOption) (*ExtensionActionResult, error) {
	return action(ctx, c.cc, ExtensionEditMethod, in, opts)
}

func (c *extensionHostClient) Connect(ctx context.Context, in *ExtensionRequest, opts ...grpc.CallOption) (Stream[ExtensionResponse], error) {
	return openStream[ExtensionRequest, ExtensionResponse](ctx, c.cc, &ExtensionHostServiceDesc.Streams[0], ExtensionConnectMethod, in, opts...)
}

func (c *extensionHostClient) SubmitForm(ctx context.Context, in *SendExtensionDataRequest, opts ...grpc.CallOption) (*ExtensionActionResult, error) {
	return action(ctx, c.cc, ExtensionSubmitFormMethod, in, opts)
}

func (c *extensionHostClient) Cancel(ctx context.Context, in *ExtensionRequest, opts ...grpc.CallOption) (*ExtensionActionResult, error) {
	return action(ctx, c.cc, ExtensionCancelMethod, in, opts)
}

func (c *extensionHostClient) Close(ctx context.Context, in *ExtensionRequest, opts ...grpc.CallOption) (*ExtensionActionResult, error) {
	return action(ctx, c.cc, ExtensionCloseMethod, in, opts)
}

func action[Req any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*ExtensionActionResult, error) {
	out, err := invoke[Req, ExtensionActionResult](ctx, cc, method, in, opts...)
	if err != nil {
		return nil, err
	}
	if out.Code == ResponseFailed {
		return out, &ResponseError{Method: method, Code: out.Code, Message: out.Message}
	}
	return out, nil
}

// ExtensionHostServer is implemented by the extension host.
type ExtensionHostServer interface {
	ListExtensions(context.Context, *Empty) (*ExtensionList, error)
	EditExtension(context.Context, *EditExtensionRequest) (*ExtensionActionResult, error)
	Connect(*ExtensionRequest, ServerStream[ExtensionResponse]) error
	SubmitForm(context.Context, *SendExtensionDataRequest) (*ExtensionActionResult, error)
	Cancel(context.Context, *ExtensionRequest) (*ExtensionActionResult, error)
	Close(context.Context, *ExtensionRequest) (*ExtensionActionResult, error)
}

// RegisterExtensionHostServer registers srv on s.
func RegisterExtensionHostServer(s grpc.ServiceRegistrar, srv ExtensionHostServer) {
	s.RegisterService(&ExtensionHostServiceDesc, srv)
}

// ExtensionHostServiceDesc describes the ExtensionHost service.
var ExtensionHostServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtensionHostServiceName,
	HandlerType: (*ExtensionHostServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListExtensions", Handler: unaryHandler(ExtensionListMethod, ExtensionHostServer.ListExtensions)},
		{MethodName: "EditExtension", Handler: unaryHandler(ExtensionEditMethod, ExtensionHostServer.EditExtension)},
		{MethodName: "SubmitForm", Handler: unaryHandler(ExtensionSubmitFormMethod, ExtensionHostServer.SubmitForm)},
		{MethodName: "Cancel", Handler: unaryHandler(ExtensionCancelMethod, ExtensionHostServer.Cancel)},
		{MethodName: "Close", Handler: unaryHandler(ExtensionCloseMethod, ExtensionHostServer.Close)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       streamHandler(ExtensionHostServer.Connect),
			ServerStreams: true,
		},
	},
}
