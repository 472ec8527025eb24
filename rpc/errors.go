package rpc

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"net"
)

// TransportError is returned by Call when the request could not be
// delivered or the reply could not be decoded.
type TransportError struct {
	Action string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rpc %s: %s", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NodeError is the "error" field of a reply. The node rejected the
// request for a domain reason such as an unknown wallet.
type NodeError struct {
	Message string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node error: %s", e.Message)
}

// IsTimeout returns whether the error was caused by the call running
// out of time. Timeouts are transient.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
