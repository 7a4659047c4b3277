package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// RawLog is a log as returned by the RPC provider. Every positional field is
// optional: the provider is untrusted and may omit any of them.
type RawLog struct {
	Address     common.Address
	BlockNumber *uint64
	TxHash      *common.Hash
	// LogIndex is the block-scoped index, not the index within the transaction.
	LogIndex *uint64
	Topics   []common.Hash
	Data     []byte
}

// Receipt is the subset of a transaction receipt used to position logs.
type Receipt struct {
	TxHash      *common.Hash
	BlockNumber *uint64
	Logs        []RawLog
}

// BlockRef identifies a block returned by a tag query such as "finalized".
type BlockRef struct {
	Number *uint64
	Hash   *common.Hash
}
