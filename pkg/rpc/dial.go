package rpc

import (
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client bundles the two service clients over one connection.
type Client struct {
	Conn       *grpc.ClientConn
	Core       CoreClient
	Extensions ExtensionHostClient
}

// Dial creates a lazily connecting client for target. The core listens on a
// local socket, so transport security is off unless opts supply credentials.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("rpc: dial: target must be a non-empty string")
	}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial %s: %w", target, err)
	}
	return &Client{
		Conn:       conn,
		Core:       NewCoreClient(conn),
		Extensions: NewExtensionHostClient(conn),
	}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	if c == nil || c.Conn == nil {
		return nil
	}
	return c.Conn.Close()
}
