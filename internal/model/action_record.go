package model

import "encoding/json"

// ActionRecord is the stored form of an extracted bridge action.
type ActionRecord struct {
	ChainID     uint64          `json:"chain_id"`
	BlockNumber uint64          `json:"block_number"`
	TxHash      string          `json:"tx_hash"`
	EventIndex  uint16          `json:"event_index"`
	EventName   string          `json:"event_name"`
	ActionType  string          `json:"action_type"`
	Action      json.RawMessage `json:"action"`
	IngestedAt  string          `json:"ingested_at"`
}
