package postgres

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"bridgeWatch/internal/model"
	"bridgeWatch/internal/storage"
)

var _ storage.Storage = (*Store)(nil)

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("BRIDGEWATCH_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("BRIDGEWATCH_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestStoreActionsAndState(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	rec := model.ActionRecord{
		ChainID:     11155111,
		BlockNumber: 778,
		TxHash:      "0x" + time.Now().Format("20060102150405.000000000"),
		EventIndex:  1,
		EventName:   model.EventTokensDeposited,
		ActionType:  model.ActionEthToSuiBridge,
		Action:      json.RawMessage(`{"eth_event_index":1}`),
		IngestedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	// Upserting the same key twice must not fail.
	if err := store.PutActionBatch(ctx, []model.ActionRecord{rec, rec}); err != nil {
		t.Fatalf("put actions: %v", err)
	}

	name := "test:" + rec.TxHash
	if _, ok, err := store.LoadState(ctx, name); err != nil || ok {
		t.Fatalf("expected no state, got ok=%v err=%v", ok, err)
	}
	if err := store.SaveState(ctx, name, 778); err != nil {
		t.Fatalf("save state: %v", err)
	}
	got, ok, err := store.LoadState(ctx, name)
	if err != nil || !ok || got != 778 {
		t.Fatalf("expected state 778, got %d ok=%v err=%v", got, ok, err)
	}
}

func TestPutActionBatchRejectsBadTimestamp(t *testing.T) {
	store := &Store{}
	err := store.PutActionBatch(context.Background(), []model.ActionRecord{{IngestedAt: "yesterday"}})
	if err == nil {
		t.Fatalf("expected timestamp parse error")
	}
}

func TestNewStoreRequiresDSN(t *testing.T) {
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestOpenFailsWhenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := Open(ctx, "postgres://bridgewatch@127.0.0.1:1/bridgewatch?connect_timeout=1")
	if err == nil {
		store.Close()
		t.Fatalf("expected ping error for unreachable server")
	}
	if !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping failure, got %v", err)
	}
}
