// Package eventstest builds bridge contract logs for tests.
package eventstest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"bridgeWatch/internal/events"
	"bridgeWatch/internal/model"
)

// DepositLog encodes ev as a TokensDeposited log emitted by contract.
func DepositLog(contract common.Address, ev model.TokensDepositedEvent) (model.RawLog, error) {
	bridgeABI, err := events.BridgeABI()
	if err != nil {
		return model.RawLog{}, err
	}
	abiEvent := bridgeABI.Events[model.EventTokensDeposited]
	data, err := abiEvent.Inputs.NonIndexed().Pack(ev.TokenID, ev.SuiAdjustedAmount, ev.SenderAddress, ev.RecipientAddress)
	if err != nil {
		return model.RawLog{}, err
	}
	return model.RawLog{
		Address: contract,
		Topics: []common.Hash{
			abiEvent.ID,
			uintTopic(uint64(ev.SourceChainID)),
			uintTopic(ev.Nonce),
			uintTopic(uint64(ev.DestinationChainID)),
		},
		Data: data,
	}, nil
}

// ClaimLog encodes ev as a TokensClaimed log emitted by contract.
func ClaimLog(contract common.Address, ev model.TokensClaimedEvent) (model.RawLog, error) {
	bridgeABI, err := events.BridgeABI()
	if err != nil {
		return model.RawLog{}, err
	}
	abiEvent := bridgeABI.Events[model.EventTokensClaimed]
	amount := ev.ERC20AdjustedAmount
	if amount == nil {
		amount = new(big.Int)
	}
	data, err := abiEvent.Inputs.NonIndexed().Pack(ev.TokenID, amount, ev.SenderAddress, ev.RecipientAddress)
	if err != nil {
		return model.RawLog{}, err
	}
	return model.RawLog{
		Address: contract,
		Topics: []common.Hash{
			abiEvent.ID,
			uintTopic(uint64(ev.SourceChainID)),
			uintTopic(ev.Nonce),
			uintTopic(uint64(ev.DestinationChainID)),
		},
		Data: data,
	}, nil
}

// Deposit returns a sample deposit event.
func Deposit(nonce uint64) model.TokensDepositedEvent {
	return model.TokensDepositedEvent{
		SourceChainID:      12,
		Nonce:              nonce,
		DestinationChainID: 2,
		TokenID:            3,
		SuiAdjustedAmount:  1_000_000,
		SenderAddress:      common.HexToAddress("0x2222222222222222222222222222222222222222"),
		RecipientAddress:   common.FromHex("0x80ab1ee086210a3a37355300ca24672e81062fcdb5ced6618dab203f6a3b291c"),
	}
}

func uintTopic(v uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(v))
}
