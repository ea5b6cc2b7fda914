package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"liquidationLedger/internal/model"
)

// Client wraps go-ethereum RPC and provides the pipeline's chain reads.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID reported by the endpoint.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// FilterLogs returns logs emitted by address with the given topic0 in the
// inclusive block range.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	address common.Address,
	topic0 common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{address},
		Topics:    [][]common.Hash{{topic0}},
	}
	return c.ethClient.FilterLogs(ctx, query)
}

// rpcReceipt is the subset of eth_getTransactionReceipt the fee computation
// needs. The typed go-ethereum receipt drops chain-specific fields, so the
// rollup l1Fee has to come from the raw response.
type rpcReceipt struct {
	GasUsed           hexutil.Uint64 `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big   `json:"effectiveGasPrice"`
	L1Fee             *hexutil.Big   `json:"l1Fee"`
}

// TransactionReceipt fetches the receipt fields needed for fee computation,
// including the rollup L1 data fee when the chain reports one.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (model.Receipt, error) {
	var raw *rpcReceipt
	if err := c.rpcClient.CallContext(ctx, &raw, "eth_getTransactionReceipt", txHash); err != nil {
		return model.Receipt{}, err
	}
	if raw == nil {
		return model.Receipt{}, fmt.Errorf("receipt not found for tx %s", txHash.Hex())
	}
	if raw.EffectiveGasPrice == nil {
		return model.Receipt{}, fmt.Errorf("receipt for tx %s has no effective gas price", txHash.Hex())
	}

	receipt := model.Receipt{
		GasUsed:           uint64(raw.GasUsed),
		EffectiveGasPrice: (*big.Int)(raw.EffectiveGasPrice),
	}
	if raw.L1Fee != nil {
		receipt.L1Fee = (*big.Int)(raw.L1Fee)
	}
	return receipt, nil
}
