// Package bufnet runs gRPC services over an in-memory listener for tests.
package bufnet

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/goliatone/go-corepanel/pkg/rpc"
)

const bufSize = 1 << 20

// Serve registers services on a fresh gRPC server behind a bufconn listener
// and returns a client connected to it. Both are torn down with t.
func Serve(t testing.TB, register func(grpc.ServiceRegistrar)) *rpc.Client {
	t.Helper()

	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer()
	register(srv)
	go func() {
		_ = srv.Serve(lis)
	}()

	client, err := rpc.Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("dial bufnet: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
		srv.Stop()
		_ = lis.Close()
	})
	return client
}
