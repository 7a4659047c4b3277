package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"bridgeWatch/internal/model"
)

// Wire shapes for eth_getLogs, eth_getTransactionReceipt and
// eth_getBlockByNumber. Quantities are pointers so an omitted or null field
// stays distinguishable from zero.

type rpcLog struct {
	Address     common.Address  `json:"address"`
	Topics      []common.Hash   `json:"topics"`
	Data        hexutil.Bytes   `json:"data"`
	BlockNumber *hexutil.Uint64 `json:"blockNumber"`
	TxHash      *common.Hash    `json:"transactionHash"`
	LogIndex    *hexutil.Uint64 `json:"logIndex"`
}

type rpcReceipt struct {
	TxHash      *common.Hash    `json:"transactionHash"`
	BlockNumber *hexutil.Uint64 `json:"blockNumber"`
	Logs        []rpcLog        `json:"logs"`
}

type rpcBlock struct {
	Number *hexutil.Uint64 `json:"number"`
	Hash   *common.Hash    `json:"hash"`
}

func (l rpcLog) toModel() model.RawLog {
	return model.RawLog{
		Address:     l.Address,
		BlockNumber: uint64Value(l.BlockNumber),
		TxHash:      l.TxHash,
		LogIndex:    uint64Value(l.LogIndex),
		Topics:      l.Topics,
		Data:        []byte(l.Data),
	}
}

func (r rpcReceipt) toModel() model.Receipt {
	logs := make([]model.RawLog, 0, len(r.Logs))
	for _, l := range r.Logs {
		logs = append(logs, l.toModel())
	}
	return model.Receipt{
		TxHash:      r.TxHash,
		BlockNumber: uint64Value(r.BlockNumber),
		Logs:        logs,
	}
}

func logFromModel(l model.RawLog) rpcLog {
	return rpcLog{
		Address:     l.Address,
		Topics:      l.Topics,
		Data:        hexutil.Bytes(l.Data),
		BlockNumber: hexUint64(l.BlockNumber),
		TxHash:      l.TxHash,
		LogIndex:    hexUint64(l.LogIndex),
	}
}

func receiptFromModel(r model.Receipt) rpcReceipt {
	logs := make([]rpcLog, 0, len(r.Logs))
	for _, l := range r.Logs {
		logs = append(logs, logFromModel(l))
	}
	return rpcReceipt{
		TxHash:      r.TxHash,
		BlockNumber: hexUint64(r.BlockNumber),
		Logs:        logs,
	}
}

func uint64Value(v *hexutil.Uint64) *uint64 {
	if v == nil {
		return nil
	}
	n := uint64(*v)
	return &n
}

func hexUint64(v *uint64) *hexutil.Uint64 {
	if v == nil {
		return nil
	}
	n := hexutil.Uint64(*v)
	return &n
}
