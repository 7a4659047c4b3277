package watcher

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"bridgeWatch/internal/model"
)

// EventDecoder maps a verified log to a bridge event. ok is false when the log
// is not a recognized bridge event.
type EventDecoder interface {
	Decode(log model.VerifiedLog) (event model.BridgeEvent, ok bool)
}

// ActionExtractor maps a bridge event to a bridge action. ok is false when the
// event is not actionable.
type ActionExtractor interface {
	Extract(event model.BridgeEvent, txHash common.Hash, eventIndex uint16) (action model.BridgeAction, ok bool)
}

// Client turns provider data into finality-verified bridge actions.
type Client struct {
	provider  Provider
	gate      *FinalityGate
	matcher   *ReceiptMatcher
	fetcher   *LogFetcher
	decoder   EventDecoder
	extractor ActionExtractor
	logger    *zap.Logger
}

// NewClient builds a Client over provider.
func NewClient(provider Provider, decoder EventDecoder, extractor ActionExtractor, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	matcher := NewReceiptMatcher(provider)
	return &Client{
		provider:  provider,
		gate:      NewFinalityGate(provider),
		matcher:   matcher,
		fetcher:   NewLogFetcher(provider, matcher, logger),
		decoder:   decoder,
		extractor: extractor,
		logger:    logger,
	}
}

// Describe logs the chain the provider is connected to. When expectedChainID is
// non-zero a different chain id is an error.
func (c *Client) Describe(ctx context.Context, expectedChainID uint64) error {
	chainID, err := c.provider.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	head, err := c.provider.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("get block number: %w", err)
	}
	c.logger.Info("connected to chain", zap.Stringer("chain_id", chainID), zap.Uint64("block_number", head))

	if expectedChainID != 0 {
		if !chainID.IsUint64() || chainID.Uint64() != expectedChainID {
			return fmt.Errorf("chain id mismatch: expected %d, got %s", expectedChainID, chainID)
		}
	}
	return nil
}

// ChainID returns the provider's chain id.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	chainID, err := c.provider.ChainID(ctx)
	if err != nil {
		return 0, transientError("get chain id", err)
	}
	if !chainID.IsUint64() {
		return 0, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	return chainID.Uint64(), nil
}

// CurrentFinalizedHeight returns the provider's finalized block number.
func (c *Client) CurrentFinalizedHeight(ctx context.Context) (uint64, error) {
	return c.gate.CurrentFinalizedHeight(ctx)
}

// IsFinalized reports whether height is finalized.
func (c *Client) IsFinalized(ctx context.Context, height uint64) (bool, error) {
	return c.gate.IsFinalized(ctx, height)
}

// FetchRange returns the verified logs for address in [startBlock, endBlock].
func (c *Client) FetchRange(ctx context.Context, address common.Address, startBlock, endBlock uint64) ([]model.VerifiedLog, error) {
	return c.fetcher.FetchRange(ctx, address, startBlock, endBlock)
}

// Resolve verifies a single raw log against its receipt.
func (c *Client) Resolve(ctx context.Context, raw model.RawLog) (model.VerifiedLog, error) {
	return c.matcher.Resolve(ctx, raw)
}

// Decode runs the configured event decoder.
func (c *Client) Decode(log model.VerifiedLog) (model.BridgeEvent, bool) {
	return c.decoder.Decode(log)
}

// Extract runs the configured action extractor.
func (c *Client) Extract(event model.BridgeEvent, txHash common.Hash, eventIndex uint16) (model.BridgeAction, bool) {
	return c.extractor.Extract(event, txHash, eventIndex)
}

// FinalizedActionFor returns the bridge action emitted at eventIndex of txHash,
// provided the transaction's block is finalized.
//
// A KindNotYetFinalized error is the normal outcome for recent transactions;
// callers should poll again later.
func (c *Client) FinalizedActionFor(ctx context.Context, txHash common.Hash, eventIndex uint16) (model.BridgeAction, error) {
	hash := txHash
	idx := eventIndex

	receipt, err := c.provider.TransactionReceipt(ctx, txHash)
	if err != nil {
		e := transientError("get transaction receipt", err)
		e.TxHash = &hash
		return nil, e
	}
	if receipt == nil {
		return nil, &Error{Kind: KindNotFound, TxHash: &hash}
	}
	if receipt.BlockNumber == nil {
		return nil, integrityError("provider returned receipt without block number", &hash)
	}
	blockNumber := *receipt.BlockNumber

	finalized, err := c.gate.CurrentFinalizedHeight(ctx)
	if err != nil {
		return nil, err
	}
	if blockNumber > finalized {
		return nil, &Error{
			Kind:        KindNotYetFinalized,
			TxHash:      &hash,
			BlockNumber: &blockNumber,
			Expected:    fmt.Sprintf("<= %d", finalized),
			Actual:      fmt.Sprintf("%d", blockNumber),
		}
	}

	if int(eventIndex) >= len(receipt.Logs) {
		return nil, &Error{
			Kind:       KindNoEventAtPosition,
			TxHash:     &hash,
			EventIndex: &idx,
			Detail:     fmt.Sprintf("receipt has %d logs", len(receipt.Logs)),
		}
	}

	// The receipt is the source of the position, so no re-matching is needed.
	log := model.VerifiedLog{
		BlockNumber:  blockNumber,
		TxHash:       txHash,
		LogIndexInTx: eventIndex,
		Log:          receipt.Logs[eventIndex],
	}
	event, ok := c.decoder.Decode(log)
	if !ok {
		return nil, &Error{Kind: KindNoEventAtPosition, TxHash: &hash, EventIndex: &idx}
	}

	action, ok := c.extractor.Extract(event, txHash, eventIndex)
	if !ok {
		return nil, &Error{
			Kind:       KindNotActionable,
			TxHash:     &hash,
			EventIndex: &idx,
			Detail:     event.EventName(),
		}
	}
	return action, nil
}
