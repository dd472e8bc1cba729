package rpc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/goliatone/go-corepanel/internal/bufnet"
	"github.com/goliatone/go-corepanel/pkg/devcore"
	"github.com/goliatone/go-corepanel/pkg/rpc"
	"github.com/goliatone/go-corepanel/pkg/schema"
)

func serve(t *testing.T, opts ...devcore.Option) (*devcore.Server, *rpc.Client) {
	t.Helper()
	srv := devcore.New(opts...)
	client := bufnet.Serve(t, func(r grpc.ServiceRegistrar) { srv.RegisterServices(r) })
	return srv, client
}

func TestDialRejectsEmptyTarget(t *testing.T) {
	_, err := rpc.Dial("  ")
	require.Error(t, err)
}

func TestUnaryRoundTrip(t *testing.T) {
	_, client := serve(t, devcore.WithExtensions(devcore.Samples()...))
	ctx := context.Background()

	list, err := client.Extensions.ListExtensions(ctx, &rpc.Empty{})
	require.NoError(t, err)
	require.Len(t, list.Extensions, 3)
	assert.Equal(t, "hello", list.Extensions[0].ID)
	assert.True(t, list.Extensions[0].Enable)
	assert.False(t, list.Extensions[2].Enable)
}

func TestFailedResultBecomesResponseError(t *testing.T) {
	_, client := serve(t)

	res, err := client.Extensions.EditExtension(context.Background(), &rpc.EditExtensionRequest{ExtensionID: "missing", Enable: true})
	require.Error(t, err)
	assert.True(t, rpc.IsResponseError(err))
	require.NotNil(t, res)
	assert.Equal(t, rpc.ResponseFailed, res.Code)
	assert.Equal(t, "Extension with ID missing not found", res.Message)

	var respErr *rpc.ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, rpc.ExtensionEditMethod, respErr.Method)
}

func TestParseFailureCarriesResponse(t *testing.T) {
	_, client := serve(t)

	res, err := client.Core.Parse(context.Background(), &rpc.ParseRequest{Content: "{"})
	require.Error(t, err)
	assert.True(t, rpc.IsResponseError(err))
	assert.Equal(t, rpc.ResponseFailed, res.ResponseCode)

	res, err = client.Core.Parse(context.Background(), &rpc.ParseRequest{Content: `{"a":1}`})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", res.Content)
}

func TestObserveDeliversPushesThenEnd(t *testing.T) {
	srv, client := serve(t, devcore.WithExtensions(devcore.Samples()...))

	stream, err := client.Extensions.Connect(context.Background(), &rpc.ExtensionRequest{ExtensionID: "hello"})
	require.NoError(t, err)

	var got []rpc.ExtensionResponseType
	ended := false
	first := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- rpc.Observe(stream, rpc.Observer[rpc.ExtensionResponse]{
			OnMessage: func(msg *rpc.ExtensionResponse) {
				got = append(got, msg.Type)
				if len(got) == 1 {
					close(first)
				}
			},
			OnEnd: func() { ended = true },
		})
	}()

	<-first
	require.NoError(t, srv.Push("hello", rpc.ExtensionResponse{ExtensionID: "hello", Type: rpc.ExtensionEnd}))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not end")
	}
	assert.Equal(t, []rpc.ExtensionResponseType{rpc.ExtensionUpdateUI, rpc.ExtensionEnd}, got)
	assert.True(t, ended)
}

func TestObserveReportsErrors(t *testing.T) {
	_, client := serve(t, devcore.WithExtensions(devcore.Samples()...))

	stream, err := client.Extensions.Connect(context.Background(), &rpc.ExtensionRequest{ExtensionID: "sandbox"})
	require.NoError(t, err)

	var seen error
	err = rpc.Observe(stream, rpc.Observer[rpc.ExtensionResponse]{
		OnError: func(err error) { seen = err },
	})
	require.Error(t, err)
	assert.Equal(t, err, seen)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestIsCanceled(t *testing.T) {
	_, client := serve(t, devcore.WithExtensions(devcore.Samples()...))

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := client.Extensions.Connect(ctx, &rpc.ExtensionRequest{ExtensionID: "hello"})
	require.NoError(t, err)

	msg, err := stream.Recv()
	require.NoError(t, err)
	doc, err := schema.DecodeString(msg.JSONUI)
	require.NoError(t, err)
	assert.Equal(t, schema.DocumentID("hello"), doc.ID)

	cancel()
	_, err = stream.Recv()
	require.Error(t, err)
	assert.True(t, rpc.IsCanceled(err))
	assert.True(t, rpc.IsCanceled(context.Canceled))
	assert.False(t, rpc.IsCanceled(errors.New("boom")))
}

type silentCore struct{}

func (silentCore) Start(context.Context, *rpc.StartRequest) (*rpc.CoreInfoResponse, error) {
	return nil, nil
}

func (silentCore) Stop(context.Context, *rpc.Empty) (*rpc.CoreInfoResponse, error) {
	return &rpc.CoreInfoResponse{}, nil
}

func (silentCore) Parse(context.Context, *rpc.ParseRequest) (*rpc.ParseResponse, error) {
	return nil, nil
}

func (silentCore) ChangeSettings(context.Context, *rpc.ChangeSettingsRequest) (*rpc.CoreInfoResponse, error) {
	return nil, nil
}

func (silentCore) CoreInfoListener(*rpc.Empty, rpc.ServerStream[rpc.CoreInfoResponse]) error {
	return nil
}

func TestNilReplyIsErrNilResponse(t *testing.T) {
	client := bufnet.Serve(t, func(r grpc.ServiceRegistrar) { rpc.RegisterCoreServer(r, silentCore{}) })
	ctx := context.Background()

	res, err := client.Core.Start(ctx, &rpc.StartRequest{})
	require.ErrorIs(t, err, rpc.ErrNilResponse)
	assert.Contains(t, err.Error(), rpc.CoreStartMethod)
	assert.Nil(t, res)

	parsed, err := client.Core.Parse(ctx, &rpc.ParseRequest{Content: "{}"})
	require.ErrorIs(t, err, rpc.ErrNilResponse)
	assert.Nil(t, parsed)

	stopped, err := client.Core.Stop(ctx, &rpc.Empty{})
	require.NoError(t, err)
	assert.NotNil(t, stopped)
}
