package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	EventTokensDeposited = "TokensDeposited"
	EventTokensClaimed   = "TokensClaimed"

	ActionEthToSuiBridge = "eth_to_sui_bridge"
)

// BridgeEvent is a decoded bridge contract event. The set of implementations is
// closed; switch on the concrete type.
type BridgeEvent interface {
	EventName() string
	bridgeEvent()
}

// TokensDepositedEvent is emitted when tokens are locked on the EVM side for
// delivery to Sui.
type TokensDepositedEvent struct {
	SourceChainID      uint8          `json:"source_chain_id"`
	Nonce              uint64         `json:"nonce"`
	DestinationChainID uint8          `json:"destination_chain_id"`
	TokenID            uint8          `json:"token_id"`
	SuiAdjustedAmount  uint64         `json:"sui_adjusted_amount"`
	SenderAddress      common.Address `json:"sender_address"`
	RecipientAddress   []byte         `json:"recipient_address"`
}

func (TokensDepositedEvent) EventName() string { return EventTokensDeposited }
func (TokensDepositedEvent) bridgeEvent()       {}

// TokensClaimedEvent is emitted when tokens bridged from Sui are claimed.
type TokensClaimedEvent struct {
	SourceChainID       uint8          `json:"source_chain_id"`
	Nonce               uint64         `json:"nonce"`
	DestinationChainID  uint8          `json:"destination_chain_id"`
	TokenID             uint8          `json:"token_id"`
	ERC20AdjustedAmount *big.Int       `json:"erc20_adjusted_amount"`
	SenderAddress       []byte         `json:"sender_address"`
	RecipientAddress    common.Address `json:"recipient_address"`
}

func (TokensClaimedEvent) EventName() string { return EventTokensClaimed }
func (TokensClaimedEvent) bridgeEvent()       {}

// BridgeAction is an action the bridge authority can sign or relay. The set of
// implementations is closed.
type BridgeAction interface {
	ActionType() string
	// Origin returns the transaction hash and event index the action came from.
	Origin() (common.Hash, uint16)
	bridgeAction()
}

// EthToSuiBridgeAction transfers a deposit observed on the EVM chain to Sui.
type EthToSuiBridgeAction struct {
	EthTxHash     common.Hash          `json:"eth_tx_hash"`
	EthEventIndex uint16               `json:"eth_event_index"`
	Event         TokensDepositedEvent `json:"event"`
}

func (EthToSuiBridgeAction) ActionType() string { return ActionEthToSuiBridge }

func (a EthToSuiBridgeAction) Origin() (common.Hash, uint16) {
	return a.EthTxHash, a.EthEventIndex
}

func (EthToSuiBridgeAction) bridgeAction() {}
