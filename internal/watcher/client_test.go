package watcher_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"bridgeWatch/internal/events/eventstest"
	"bridgeWatch/internal/model"
	"bridgeWatch/internal/watcher"
)

func TestFinalizedActionFor(t *testing.T) {
	mock, client := newTestClient(t)
	ctx := context.Background()

	mock.SetFinalizedBlock(777)
	got, err := client.CurrentFinalizedHeight(ctx)
	if err != nil {
		t.Fatalf("finalized height: %v", err)
	}
	if got != 777 {
		t.Fatalf("expected 777, got %d", got)
	}

	txHash := common.HexToHash("0x5f3c2e1d")
	plain := model.RawLog{
		TxHash:      model.HashPtr(txHash),
		BlockNumber: model.Uint64Ptr(778),
	}
	deposit := eventstest.Deposit(1)
	goodLog, err := eventstest.DepositLog(bridgeContract, deposit)
	if err != nil {
		t.Fatalf("encode deposit: %v", err)
	}
	goodLog.TxHash = model.HashPtr(txHash)
	goodLog.BlockNumber = model.Uint64Ptr(778)
	mock.SetReceipt(txHash, &model.Receipt{
		BlockNumber: model.Uint64Ptr(778),
		Logs:        []model.RawLog{plain, goodLog},
	})
	wantAction := model.EthToSuiBridgeAction{EthTxHash: txHash, EthEventIndex: 1, Event: deposit}

	// Block 778 is above the finalized height.
	_, err = client.FinalizedActionFor(ctx, txHash, 0)
	expectKind(t, err, watcher.KindNotYetFinalized)
	if !errors.Is(err, watcher.ErrTxNotFinalized) || !watcher.IsRetryable(err) {
		t.Fatalf("not-finalized error should match its sentinel and be retryable: %v", err)
	}

	mock.SetFinalizedBlock(778)

	// The receipt only has 2 logs.
	_, err = client.FinalizedActionFor(ctx, txHash, 2)
	expectKind(t, err, watcher.KindNoEventAtPosition)

	// The log at index 0 is not a bridge event.
	_, err = client.FinalizedActionFor(ctx, txHash, 0)
	expectKind(t, err, watcher.KindNoEventAtPosition)

	action, err := client.FinalizedActionFor(ctx, txHash, 1)
	if err != nil {
		t.Fatalf("finalized action: %v", err)
	}
	if !reflect.DeepEqual(action, wantAction) {
		t.Fatalf("action mismatch: %+v != %+v", action, wantAction)
	}
}

func TestFinalizedActionForNotFound(t *testing.T) {
	mock, client := newTestClient(t)
	txHash := common.HexToHash("0x01")
	mock.SetReceipt(txHash, nil)

	_, err := client.FinalizedActionFor(context.Background(), txHash, 0)
	expectKind(t, err, watcher.KindNotFound)
	if !errors.Is(err, watcher.ErrTxNotFound) {
		t.Fatalf("expected ErrTxNotFound, got %v", err)
	}
	if calls := mock.Calls("eth_getBlockByNumber"); calls != 0 {
		t.Fatalf("finality should not be queried for a missing receipt, got %d calls", calls)
	}
}

func TestFinalizedActionForReceiptWithoutBlock(t *testing.T) {
	mock, client := newTestClient(t)
	txHash := common.HexToHash("0x01")
	mock.SetReceipt(txHash, &model.Receipt{Logs: []model.RawLog{{}}})

	_, err := client.FinalizedActionFor(context.Background(), txHash, 0)
	expectKind(t, err, watcher.KindProviderIntegrity)
}

func TestFinalizedActionForNotActionable(t *testing.T) {
	mock, client := newTestClient(t)
	mock.SetFinalizedBlock(500)

	txHash := common.HexToHash("0x02")
	claim, err := eventstest.ClaimLog(bridgeContract, model.TokensClaimedEvent{
		SourceChainID:      2,
		Nonce:              4,
		DestinationChainID: 12,
		TokenID:            1,
		SenderAddress:      []byte{0x01},
		RecipientAddress:   common.HexToAddress("0x3333333333333333333333333333333333333333"),
	})
	if err != nil {
		t.Fatalf("encode claim: %v", err)
	}
	mock.SetReceipt(txHash, &model.Receipt{BlockNumber: model.Uint64Ptr(499), Logs: []model.RawLog{claim}})

	_, err = client.FinalizedActionFor(context.Background(), txHash, 0)
	expectKind(t, err, watcher.KindNotActionable)
	if !errors.Is(err, watcher.ErrBridgeEventNotActionable) {
		t.Fatalf("expected ErrBridgeEventNotActionable, got %v", err)
	}
}

func TestFinalizedActionForFinalityUnavailable(t *testing.T) {
	mock, client := newTestClient(t)
	txHash := common.HexToHash("0x03")
	mock.SetReceipt(txHash, &model.Receipt{BlockNumber: model.Uint64Ptr(10), Logs: []model.RawLog{{}}})
	mock.SetFinalizedBlockRef(nil)

	_, err := client.FinalizedActionFor(context.Background(), txHash, 0)
	expectKind(t, err, watcher.KindTransientUnavailable)
}

func TestDescribe(t *testing.T) {
	mock, client := newTestClient(t)
	ctx := context.Background()
	mock.SetChainID(11155111)
	mock.SetBlockNumber(4_200_000)

	if err := client.Describe(ctx, 0); err != nil {
		t.Fatalf("describe: %v", err)
	}
	if err := client.Describe(ctx, 11155111); err != nil {
		t.Fatalf("describe with matching chain id: %v", err)
	}
	if err := client.Describe(ctx, 1); err == nil {
		t.Fatalf("expected chain id mismatch error")
	}
}
