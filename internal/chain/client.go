package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"bridgeWatch/internal/model"
)

// FinalizedTag is the block tag for the latest finalized block.
const FinalizedTag = "finalized"

// Client wraps go-ethereum RPC and decodes provider responses without
// assuming optional fields are present.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	limiter   *rate.Limiter
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return NewClientFromRPC(rpcClient), nil
}

// NewClientFromRPC wraps an existing RPC client.
func NewClientFromRPC(rpcClient *rpc.Client) *Client {
	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}
}

// SetRateLimit caps outgoing requests at rps per second with the given burst.
// A non-positive rps removes the limit.
func (c *Client) SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.ethClient.ChainID(ctx)
}

// BlockNumber returns the latest block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	return c.ethClient.BlockNumber(ctx)
}

// TransactionReceipt returns the receipt for txHash, or nil when the node has none.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*model.Receipt, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var r *rpcReceipt
	if err := c.rpcClient.CallContext(ctx, &r, "eth_getTransactionReceipt", txHash); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	receipt := r.toModel()
	return &receipt, nil
}

// FilterLogs returns logs emitted by address in the inclusive block range.
func (c *Client) FilterLogs(ctx context.Context, address common.Address, fromBlock, toBlock uint64) ([]model.RawLog, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var raw []rpcLog
	if err := c.rpcClient.CallContext(ctx, &raw, "eth_getLogs", filterArg(address, fromBlock, toBlock)); err != nil {
		return nil, err
	}
	logs := make([]model.RawLog, 0, len(raw))
	for _, l := range raw {
		logs = append(logs, l.toModel())
	}
	return logs, nil
}

// FinalizedBlock returns the block tagged finalized, or nil when the node has none.
func (c *Client) FinalizedBlock(ctx context.Context) (*model.BlockRef, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var b *rpcBlock
	if err := c.rpcClient.CallContext(ctx, &b, "eth_getBlockByNumber", FinalizedTag, false); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	return &model.BlockRef{
		Number: uint64Value(b.Number),
		Hash:   b.Hash,
	}, nil
}

func filterArg(address common.Address, fromBlock, toBlock uint64) map[string]interface{} {
	return map[string]interface{}{
		"address":   []common.Address{address},
		"fromBlock": hexutil.EncodeUint64(fromBlock),
		"toBlock":   hexutil.EncodeUint64(toBlock),
	}
}
