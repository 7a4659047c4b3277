package chain

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"bridgeWatch/internal/model"
)

func TestMockClientReceipt(t *testing.T) {
	mock := NewMockProvider()
	client := mock.Client()
	defer client.Close()
	ctx := context.Background()

	txHash := common.HexToHash("0xabc")
	mock.SetReceipt(txHash, &model.Receipt{
		TxHash:      model.HashPtr(txHash),
		BlockNumber: model.Uint64Ptr(778),
		Logs: []model.RawLog{
			{TxHash: model.HashPtr(txHash)},
			{
				Address:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
				BlockNumber: model.Uint64Ptr(778),
				TxHash:      model.HashPtr(txHash),
				LogIndex:    model.Uint64Ptr(4),
				Topics:      []common.Hash{common.HexToHash("0x01")},
				Data:        []byte{0xca, 0xfe},
			},
		},
	})

	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if receipt == nil || receipt.BlockNumber == nil || *receipt.BlockNumber != 778 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if len(receipt.Logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(receipt.Logs))
	}

	sparse := receipt.Logs[0]
	if sparse.BlockNumber != nil || sparse.LogIndex != nil {
		t.Fatalf("absent fields should decode as nil: %+v", sparse)
	}
	full := receipt.Logs[1]
	if full.LogIndex == nil || *full.LogIndex != 4 {
		t.Fatalf("log index mismatch: %+v", full)
	}
	if string(full.Data) != string([]byte{0xca, 0xfe}) || len(full.Topics) != 1 {
		t.Fatalf("log payload mismatch: %+v", full)
	}

	missing := common.HexToHash("0xdef")
	mock.SetReceipt(missing, nil)
	receipt, err = client.TransactionReceipt(ctx, missing)
	if err != nil {
		t.Fatalf("missing receipt: %v", err)
	}
	if receipt != nil {
		t.Fatalf("expected nil receipt, got %+v", receipt)
	}
}

func TestMockClientLogsAndBlocks(t *testing.T) {
	mock := NewMockProvider()
	client := mock.Client()
	defer client.Close()
	ctx := context.Background()

	address := common.HexToAddress("0x1111111111111111111111111111111111111111")
	mock.SetLogs(address, 10, 20, []model.RawLog{{Address: address, BlockNumber: model.Uint64Ptr(15)}})
	mock.SetFinalizedBlock(12)
	mock.SetChainID(56)
	mock.SetBlockNumber(30)

	logs, err := client.FilterLogs(ctx, address, 10, 20)
	if err != nil {
		t.Fatalf("filter logs: %v", err)
	}
	if len(logs) != 1 || *logs[0].BlockNumber != 15 || logs[0].TxHash != nil {
		t.Fatalf("unexpected logs: %+v", logs)
	}

	if _, err := client.FilterLogs(ctx, address, 10, 21); err == nil {
		t.Fatalf("expected error for unscripted range")
	}

	block, err := client.FinalizedBlock(ctx)
	if err != nil {
		t.Fatalf("finalized block: %v", err)
	}
	if block == nil || block.Number == nil || *block.Number != 12 {
		t.Fatalf("unexpected finalized block: %+v", block)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		t.Fatalf("chain id: %v", err)
	}
	if chainID.Uint64() != 56 {
		t.Fatalf("expected chain id 56, got %s", chainID)
	}
	head, err := client.BlockNumber(ctx)
	if err != nil {
		t.Fatalf("block number: %v", err)
	}
	if head != 30 {
		t.Fatalf("expected head 30, got %d", head)
	}

	if mock.Calls("eth_getLogs") != 2 {
		t.Fatalf("expected 2 log queries, got %d", mock.Calls("eth_getLogs"))
	}
}

func TestRequestKeyNormalizesMaps(t *testing.T) {
	a, err := requestKey("eth_getLogs", []interface{}{map[string]interface{}{"b": 1, "a": "x"}})
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	b, err := requestKey("eth_getLogs", []interface{}{json.RawMessage(`{ "b":1, "a":"x" }`)})
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if a != b {
		t.Fatalf("keys differ: %s != %s", a, b)
	}
}

func TestClientRateLimit(t *testing.T) {
	mock := NewMockProvider()
	client := mock.Client()
	defer client.Close()
	mock.SetBlockNumber(1)

	client.SetRateLimit(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := client.BlockNumber(ctx); err != nil {
		t.Fatalf("first call: %v", err)
	}
	// The burst is spent and the next token is a second away.
	if _, err := client.BlockNumber(ctx); err == nil {
		t.Fatalf("expected the limiter to reject a call it cannot serve before the deadline")
	}
	if calls := mock.Calls("eth_blockNumber"); calls != 1 {
		t.Fatalf("expected 1 call to reach the node, got %d", calls)
	}

	client.SetRateLimit(0, 0)
	if _, err := client.BlockNumber(context.Background()); err != nil {
		t.Fatalf("unlimited call: %v", err)
	}
}
