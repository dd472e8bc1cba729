package rpc

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
)

// Stream is the client side of a server-streaming call. Recv returns io.EOF
// once the server ends the stream. Cancelling the call context aborts it.
type Stream[T any] interface {
	Recv() (*T, error)
}

// ServerStream is the server side of a server-streaming call.
type ServerStream[T any] interface {
	Send(*T) error
	Context() context.Context
}

type clientStream[T any] struct {
	grpc.ClientStream
}

func (s *clientStream[T]) Recv() (*T, error) {
	msg := new(T)
	if err := s.ClientStream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

type serverStream[T any] struct {
	grpc.ServerStream
}

func (s *serverStream[T]) Send(msg *T) error {
	return s.ServerStream.SendMsg(msg)
}

func openStream[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, desc *grpc.StreamDesc, method string, in *Req, opts ...grpc.CallOption) (Stream[Resp], error) {
	stream, err := cc.NewStream(ctx, desc, method, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &clientStream[Resp]{ClientStream: stream}, nil
}

// Observer receives the events of a stream. Exactly one of OnEnd or OnError
// is invoked when the stream terminates. Nil callbacks are skipped.
type Observer[T any] struct {
	OnMessage func(*T)
	OnError   func(error)
	OnEnd     func()
}

// Observe pumps stream until it terminates, dispatching to obs. It blocks and
// returns nil on a natural end or the terminal error otherwise.
func Observe[T any](stream Stream[T], obs Observer[T]) error {
	for {
		msg, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if obs.OnEnd != nil {
					obs.OnEnd()
				}
				return nil
			}
			if obs.OnError != nil {
				obs.OnError(err)
			}
			return err
		}
		if obs.OnMessage != nil {
			obs.OnMessage(msg)
		}
	}
}
