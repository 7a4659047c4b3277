package events

import (
	"github.com/ethereum/go-ethereum/common"

	"bridgeWatch/internal/model"
)

// Extractor turns bridge events into bridge actions.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the action for event. Only deposits are actionable; claims
// are informational.
func (e *Extractor) Extract(event model.BridgeEvent, txHash common.Hash, eventIndex uint16) (model.BridgeAction, bool) {
	switch ev := event.(type) {
	case model.TokensDepositedEvent:
		return model.EthToSuiBridgeAction{
			EthTxHash:     txHash,
			EthEventIndex: eventIndex,
			Event:         ev,
		}, true
	case model.TokensClaimedEvent:
		return nil, false
	default:
		return nil, false
	}
}
