package events

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const bridgeABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint8", "name": "sourceChainID", "type": "uint8"},
      {"indexed": true, "internalType": "uint64", "name": "nonce", "type": "uint64"},
      {"indexed": true, "internalType": "uint8", "name": "destinationChainID", "type": "uint8"},
      {"indexed": false, "internalType": "uint8", "name": "tokenID", "type": "uint8"},
      {"indexed": false, "internalType": "uint64", "name": "suiAdjustedAmount", "type": "uint64"},
      {"indexed": false, "internalType": "address", "name": "senderAddress", "type": "address"},
      {"indexed": false, "internalType": "bytes", "name": "recipientAddress", "type": "bytes"}
    ],
    "name": "TokensDeposited",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint8", "name": "sourceChainID", "type": "uint8"},
      {"indexed": true, "internalType": "uint64", "name": "nonce", "type": "uint64"},
      {"indexed": true, "internalType": "uint8", "name": "destinationChainID", "type": "uint8"},
      {"indexed": false, "internalType": "uint8", "name": "tokenID", "type": "uint8"},
      {"indexed": false, "internalType": "uint256", "name": "erc20AdjustedAmount", "type": "uint256"},
      {"indexed": false, "internalType": "bytes", "name": "senderAddress", "type": "bytes"},
      {"indexed": false, "internalType": "address", "name": "recipientAddress", "type": "address"}
    ],
    "name": "TokensClaimed",
    "type": "event"
  }
]`

var (
	bridgeABI     abi.ABI
	bridgeABIOnce sync.Once
	bridgeABIErr  error
)

// BridgeABI returns the parsed bridge contract event ABI.
func BridgeABI() (abi.ABI, error) {
	bridgeABIOnce.Do(func() {
		bridgeABI, bridgeABIErr = abi.JSON(strings.NewReader(bridgeABIJSON))
	})
	return bridgeABI, bridgeABIErr
}
