package indexer

import (
	"encoding/json"
	"fmt"
	"time"

	"bridgeWatch/internal/model"
)

func buildActionRecord(chainID uint64, log model.VerifiedLog, event model.BridgeEvent, action model.BridgeAction, ingestedAt time.Time) (model.ActionRecord, error) {
	payload, err := json.Marshal(action)
	if err != nil {
		return model.ActionRecord{}, fmt.Errorf("marshal action: %w", err)
	}
	return model.ActionRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		EventIndex:  log.LogIndexInTx,
		EventName:   event.EventName(),
		ActionType:  action.ActionType(),
		Action:      payload,
		IngestedAt:  ingestedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}
