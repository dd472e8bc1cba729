package rpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNilResponse is returned when a call succeeds at the transport level but
// yields no message.
var ErrNilResponse = errors.New("rpc: nil response")

// ResponseError is an application failure reported by the core with a FAILED
// response code. Message is the server text, verbatim.
type ResponseError struct {
	Method  string
	Code    ResponseCode
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rpc: %s: %s", e.Method, e.Code)
	}
	return fmt.Sprintf("rpc: %s: %s", e.Method, e.Message)
}

// IsResponseError reports whether err carries an application failure.
func IsResponseError(err error) bool {
	var re *ResponseError
	return errors.As(err, &re)
}

// IsCanceled reports whether err is the result of a cancelled call context.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return status.Code(err) == codes.Canceled
}
