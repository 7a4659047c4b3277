package watcher

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"bridgeWatch/internal/model"
)

// Provider is the set of RPC capabilities the watcher depends on. Implementations
// must be safe for concurrent use.
type Provider interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	// TransactionReceipt returns nil and no error when the node has no receipt.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*model.Receipt, error)
	FilterLogs(ctx context.Context, address common.Address, fromBlock, toBlock uint64) ([]model.RawLog, error)
	// FinalizedBlock returns nil and no error when the node has no finalized block.
	FinalizedBlock(ctx context.Context) (*model.BlockRef, error)
}

// FinalityGate answers finality questions against a freshly queried
// "finalized" block. Nothing is cached between calls.
type FinalityGate struct {
	provider Provider
}

func NewFinalityGate(provider Provider) *FinalityGate {
	return &FinalityGate{provider: provider}
}

// CurrentFinalizedHeight returns the number of the block the provider tags as
// finalized. A missing block or number is transient: some nodes serve the tag
// only intermittently.
func (g *FinalityGate) CurrentFinalizedHeight(ctx context.Context) (uint64, error) {
	block, err := g.provider.FinalizedBlock(ctx)
	if err != nil {
		return 0, transientError("get finalized block", err)
	}
	if block == nil {
		return 0, transientError("provider returned no finalized block", nil)
	}
	if block.Number == nil {
		return 0, transientError("provider returned finalized block without number", nil)
	}
	return *block.Number, nil
}

// IsFinalized reports whether height is at or below the current finalized height.
func (g *FinalityGate) IsFinalized(ctx context.Context, height uint64) (bool, error) {
	finalized, err := g.CurrentFinalizedHeight(ctx)
	if err != nil {
		return false, err
	}
	return height <= finalized, nil
}
