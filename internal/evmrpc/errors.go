package evmrpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrChainUnknown marks a chain with no configured transport URL.
	ErrChainUnknown = errors.New("chain unknown")
	// ErrNotFound marks a height the node cannot serve.
	ErrNotFound = errors.New("block not found")
	// ErrRateLimited marks a request rejected by the node's rate limiter.
	ErrRateLimited = errors.New("rpc rate limited")
	// ErrTimeout marks a request abandoned at its deadline.
	ErrTimeout = errors.New("rpc timeout")
	// ErrRPCUnavailable marks any other transport or protocol failure.
	ErrRPCUnavailable = errors.New("rpc unavailable")
)

// classify maps a raw transport error onto the gateway error taxonomy,
// keeping the original message in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, ethereum.NotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case isRateLimited(err):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %v", ErrRPCUnavailable, err)
	}
}

func isRateLimited(err error) bool {
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate limit")
}
