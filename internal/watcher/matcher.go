package watcher

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"bridgeWatch/internal/model"
)

// ReceiptMatcher recovers a log's index within its transaction by locating it
// in the transaction receipt. The provider's block-scoped log index is not a
// stable idempotency key; the receipt position is.
type ReceiptMatcher struct {
	provider Provider
}

func NewReceiptMatcher(provider Provider) *ReceiptMatcher {
	return &ReceiptMatcher{provider: provider}
}

// Resolve cross-checks raw against its transaction receipt and returns the
// verified log. Every inconsistency is a KindProviderIntegrity error.
func (m *ReceiptMatcher) Resolve(ctx context.Context, raw model.RawLog) (model.VerifiedLog, error) {
	if raw.BlockNumber == nil {
		return model.VerifiedLog{}, integrityError("provider returned log without block number", raw.TxHash)
	}
	if raw.TxHash == nil {
		return model.VerifiedLog{}, &Error{
			Kind:        KindProviderIntegrity,
			Detail:      "provider returned log without transaction hash",
			BlockNumber: raw.BlockNumber,
		}
	}
	if raw.LogIndex == nil {
		return model.VerifiedLog{}, &Error{
			Kind:        KindProviderIntegrity,
			Detail:      "provider returned log without log index",
			TxHash:      raw.TxHash,
			BlockNumber: raw.BlockNumber,
		}
	}
	blockNumber := *raw.BlockNumber
	txHash := *raw.TxHash
	logIndex := *raw.LogIndex

	receipt, err := m.provider.TransactionReceipt(ctx, txHash)
	if err != nil {
		e := transientError("get transaction receipt", err)
		e.TxHash = raw.TxHash
		return model.VerifiedLog{}, e
	}
	// The log is evidence that the transaction exists, so a missing receipt is
	// the provider's fault rather than the caller's.
	if receipt == nil {
		return model.VerifiedLog{}, &Error{
			Kind:        KindProviderIntegrity,
			Detail:      "provider has no receipt for a transaction it returned a log for",
			TxHash:      raw.TxHash,
			BlockNumber: raw.BlockNumber,
		}
	}
	if receipt.BlockNumber == nil {
		return model.VerifiedLog{}, integrityError("provider returned receipt without block number", raw.TxHash)
	}
	if *receipt.BlockNumber != blockNumber {
		return model.VerifiedLog{}, &Error{
			Kind:     KindProviderIntegrity,
			Detail:   "receipt block number differs from log block number",
			TxHash:   raw.TxHash,
			Expected: fmt.Sprintf("%d", blockNumber),
			Actual:   fmt.Sprintf("%d", *receipt.BlockNumber),
		}
	}

	position := -1
	for i, candidate := range receipt.Logs {
		if candidate.LogIndex == nil || *candidate.LogIndex != logIndex {
			continue
		}
		if position >= 0 {
			return model.VerifiedLog{}, &Error{
				Kind:        KindProviderIntegrity,
				Detail:      fmt.Sprintf("receipt holds log index %d more than once", logIndex),
				TxHash:      raw.TxHash,
				BlockNumber: raw.BlockNumber,
				Expected:    fmt.Sprintf("position %d", position),
				Actual:      fmt.Sprintf("position %d", i),
			}
		}
		if err := compareContent(raw, candidate); err != nil {
			err.TxHash = raw.TxHash
			err.BlockNumber = raw.BlockNumber
			return model.VerifiedLog{}, err
		}
		position = i
	}
	if position < 0 {
		return model.VerifiedLog{}, &Error{
			Kind:        KindProviderIntegrity,
			Detail:      fmt.Sprintf("log index %d not found in transaction receipt", logIndex),
			TxHash:      raw.TxHash,
			BlockNumber: raw.BlockNumber,
		}
	}
	if position > math.MaxUint16 {
		return model.VerifiedLog{}, &Error{
			Kind:        KindProviderIntegrity,
			Detail:      "log position within transaction overflows uint16",
			TxHash:      raw.TxHash,
			BlockNumber: raw.BlockNumber,
			Actual:      fmt.Sprintf("%d", position),
		}
	}

	return model.VerifiedLog{
		BlockNumber:  blockNumber,
		TxHash:       txHash,
		LogIndexInTx: uint16(position),
		Log:          raw,
	}, nil
}

func compareContent(raw, receiptLog model.RawLog) *Error {
	if !slices.Equal(raw.Topics, receiptLog.Topics) {
		return &Error{
			Kind:     KindProviderIntegrity,
			Detail:   "receipt log topics differ from queried log",
			Expected: formatTopics(raw.Topics),
			Actual:   formatTopics(receiptLog.Topics),
		}
	}
	if !bytes.Equal(raw.Data, receiptLog.Data) {
		return &Error{
			Kind:     KindProviderIntegrity,
			Detail:   "receipt log data differs from queried log",
			Expected: common.Bytes2Hex(raw.Data),
			Actual:   common.Bytes2Hex(receiptLog.Data),
		}
	}
	return nil
}

func formatTopics(topics []common.Hash) string {
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		out = append(out, topic.Hex())
	}
	return fmt.Sprintf("%v", out)
}
