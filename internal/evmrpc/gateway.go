// Package evmrpc presents a chain-agnostic read surface over EVM node RPC.
package evmrpc

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/evmsync-backend/internal/model"
	"github.com/goodnatureofminers/evmsync-backend/pkg/safe"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

// Requests per second issued to a single chain's node.
const defaultRequestsPerSecond = 20

type (
	// Metrics records the outcome and duration of gateway operations.
	Metrics interface {
		Observe(operation string, chainID int32, err error, started time.Time)
	}

	nodeClient interface {
		BlockNumber(ctx context.Context) (uint64, error)
		HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	}
)

type chainClient struct {
	node    nodeClient
	limiter ratelimit.Limiter
}

// Gateway reads head numbers and headers from configured EVM chains.
// Transports are dialed lazily on first use and cached per chain.
type Gateway struct {
	logger  *zap.Logger
	metrics Metrics

	lookupURL func(chainID int32) string
	dial      func(ctx context.Context, url string) (nodeClient, error)

	configured []int32

	mu      sync.RWMutex
	clients map[int32]*chainClient
}

// NewGateway builds a Gateway from the process environment.
func NewGateway(logger *zap.Logger, metrics Metrics) *Gateway {
	return &Gateway{
		logger:     logger.Named("evmrpc"),
		metrics:    metrics,
		lookupURL:  chainURLFromEnv,
		dial:       dialNode,
		configured: ConfiguredChainIDsFromEnv(),
		clients:    map[int32]*chainClient{},
	}
}

func dialNode(ctx context.Context, url string) (nodeClient, error) {
	return ethclient.DialContext(ctx, url)
}

// ConfiguredChainIDs lists the chains whose transport URL was present at startup.
func (g *Gateway) ConfiguredChainIDs() []int32 {
	ids := make([]int32, len(g.configured))
	copy(ids, g.configured)
	return ids
}

// ChainName returns a human label for a chain; unknown chains get a synthetic one.
func (g *Gateway) ChainName(chainID int32) string {
	if name, ok := chainNames[chainID]; ok {
		return name
	}
	return fmt.Sprintf("chain-%d", chainID)
}

// HeadNumber returns the chain's current tip height.
func (g *Gateway) HeadNumber(ctx context.Context, chainID int32) (head uint64, err error) {
	started := time.Now()
	defer func() {
		g.metrics.Observe("head_number", chainID, err, started)
	}()

	cc, err := g.client(ctx, chainID)
	if err != nil {
		return 0, err
	}

	cc.limiter.Take()
	head, rpcErr := cc.node.BlockNumber(ctx)
	if rpcErr != nil {
		err = classify(rpcErr)
		return 0, err
	}
	return head, nil
}

// HeaderByNumber fetches one header. A node response missing any header
// field is a protocol violation and surfaces as ErrRPCUnavailable.
func (g *Gateway) HeaderByNumber(ctx context.Context, chainID int32, number uint64) (header model.InsertBlockHeader, err error) {
	started := time.Now()
	defer func() {
		g.metrics.Observe("header_by_number", chainID, err, started)
	}()

	cc, err := g.client(ctx, chainID)
	if err != nil {
		return model.InsertBlockHeader{}, err
	}

	cc.limiter.Take()
	h, rpcErr := cc.node.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if rpcErr != nil {
		err = classify(rpcErr)
		return model.InsertBlockHeader{}, err
	}
	if h == nil {
		err = fmt.Errorf("%w: empty header for height %d", ErrRPCUnavailable, number)
		return model.InsertBlockHeader{}, err
	}

	header, err = convertHeader(chainID, number, h)
	return header, err
}

func convertHeader(chainID int32, requested uint64, h *types.Header) (model.InsertBlockHeader, error) {
	num, err := safe.BigUint64(h.Number)
	if err != nil {
		return model.InsertBlockHeader{}, fmt.Errorf("%w: header number: %v", ErrRPCUnavailable, err)
	}
	if num != requested {
		return model.InsertBlockHeader{}, fmt.Errorf("%w: node served height %d for requested %d", ErrRPCUnavailable, num, requested)
	}
	ts, err := safe.Uint32(h.Time)
	if err != nil {
		return model.InsertBlockHeader{}, fmt.Errorf("%w: header timestamp: %v", ErrRPCUnavailable, err)
	}

	return model.InsertBlockHeader{
		ChainID:    chainID,
		Number:     num,
		Hash:       h.Hash().Hex(),
		ParentHash: h.ParentHash.Hex(),
		Timestamp:  ts,
	}, nil
}

func (g *Gateway) client(ctx context.Context, chainID int32) (*chainClient, error) {
	g.mu.RLock()
	cc, ok := g.clients[chainID]
	g.mu.RUnlock()
	if ok {
		return cc, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if cc, ok := g.clients[chainID]; ok {
		return cc, nil
	}

	url := g.lookupURL(chainID)
	if url == "" {
		return nil, fmt.Errorf("%w: no transport url for chain %d", ErrChainUnknown, chainID)
	}

	node, err := g.dial(ctx, url)
	if err != nil {
		return nil, classify(err)
	}

	g.logger.Info("dialed chain transport",
		zap.Int32("chain_id", chainID),
		zap.String("chain", g.ChainName(chainID)),
	)

	cc = &chainClient{
		node:    node,
		limiter: ratelimit.New(defaultRequestsPerSecond),
	}
	g.clients[chainID] = cc
	return cc, nil
}
