package watcher_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"bridgeWatch/internal/model"
	"bridgeWatch/internal/watcher"
)

func TestFetchRangeEmptySkipsReceipts(t *testing.T) {
	mock, client := newTestClient(t)
	mock.SetLogs(bridgeContract, 100, 200, nil)

	logs, err := client.FetchRange(context.Background(), bridgeContract, 100, 200)
	if err != nil {
		t.Fatalf("fetch range: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected no logs, got %d", len(logs))
	}
	if calls := mock.Calls("eth_getTransactionReceipt"); calls != 0 {
		t.Fatalf("expected no receipt lookups, got %d", calls)
	}
	if calls := mock.Calls("eth_getLogs"); calls != 1 {
		t.Fatalf("expected one log query, got %d", calls)
	}
}

func TestFetchRangeResolvesAllLogs(t *testing.T) {
	mock, client := newTestClient(t)

	txA := common.HexToHash("0xaaaa")
	txB := common.HexToHash("0xbbbb")
	logsA := receiptLogs(txA, 100, 0, 2)
	logsB := receiptLogs(txB, 101, 0, 3)
	mock.SetReceipt(txA, &model.Receipt{BlockNumber: model.Uint64Ptr(100), Logs: logsA})
	mock.SetReceipt(txB, &model.Receipt{BlockNumber: model.Uint64Ptr(101), Logs: logsB})
	// Only some of each transaction's logs match the filter.
	mock.SetLogs(bridgeContract, 100, 101, []model.RawLog{logsB[2], logsA[1], logsB[0]})

	logs, err := client.FetchRange(context.Background(), bridgeContract, 100, 101)
	if err != nil {
		t.Fatalf("fetch range: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(logs))
	}

	model.SortVerifiedLogs(logs)
	want := []struct {
		block uint64
		tx    common.Hash
		idx   uint16
	}{
		{100, txA, 1},
		{101, txB, 0},
		{101, txB, 2},
	}
	for i, w := range want {
		got := logs[i]
		if got.BlockNumber != w.block || got.TxHash != w.tx || got.LogIndexInTx != w.idx {
			t.Fatalf("log %d: expected (%d, %s, %d), got (%d, %s, %d)",
				i, w.block, w.tx.Hex(), w.idx, got.BlockNumber, got.TxHash.Hex(), got.LogIndexInTx)
		}
	}
	if calls := mock.Calls("eth_getTransactionReceipt"); calls != 3 {
		t.Fatalf("expected one receipt lookup per log, got %d", calls)
	}
}

func TestFetchRangeFailsTogether(t *testing.T) {
	mock, client := newTestClient(t)

	txHash := common.HexToHash("0xaaaa")
	logs := receiptLogs(txHash, 100, 0, 3)
	mock.SetReceipt(txHash, &model.Receipt{BlockNumber: model.Uint64Ptr(100), Logs: logs})

	broken := logs[1]
	broken.BlockNumber = nil
	mock.SetLogs(bridgeContract, 100, 100, []model.RawLog{logs[0], broken, logs[2]})

	got, err := client.FetchRange(context.Background(), bridgeContract, 100, 100)
	expectKind(t, err, watcher.KindProviderIntegrity)
	if got != nil {
		t.Fatalf("expected no partial result, got %d logs", len(got))
	}
}

func TestFetchRangeProviderRejection(t *testing.T) {
	_, client := newTestClient(t)

	// No scripted answer: the provider rejects the query and the error is surfaced.
	_, err := client.FetchRange(context.Background(), bridgeContract, 0, 1_000_000)
	expectKind(t, err, watcher.KindTransientUnavailable)
}
