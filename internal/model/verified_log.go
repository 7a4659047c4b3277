package model

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// VerifiedLog is a log whose block, transaction and position inside the
// transaction have been resolved and cross-checked against the receipt.
type VerifiedLog struct {
	BlockNumber  uint64
	TxHash       common.Hash
	LogIndexInTx uint16
	Log          RawLog
}

// SortVerifiedLogs orders logs by block number, then by block-scoped log
// index, which is chain emission order. Logs without a block-scoped index
// fall back to transaction hash and index within the transaction.
func SortVerifiedLogs(logs []VerifiedLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		a, b := logs[i], logs[j]
		if a.BlockNumber != b.BlockNumber {
			return a.BlockNumber < b.BlockNumber
		}
		if a.Log.LogIndex != nil && b.Log.LogIndex != nil {
			return *a.Log.LogIndex < *b.Log.LogIndex
		}
		if a.TxHash != b.TxHash {
			return a.TxHash.Hex() < b.TxHash.Hex()
		}
		return a.LogIndexInTx < b.LogIndexInTx
	})
}

// Uint64Ptr returns a pointer to v.
func Uint64Ptr(v uint64) *uint64 {
	return &v
}

// HashPtr returns a pointer to h.
func HashPtr(h common.Hash) *common.Hash {
	return &h
}
