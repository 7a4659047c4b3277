package events

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"bridgeWatch/internal/model"
)

// DecoderConfig configures decoder behavior.
type DecoderConfig struct {
	// Topic0Map adds topic0 -> event name aliases, e.g. for a redeployed contract.
	Topic0Map map[string]string
	Logger    *zap.Logger
}

// Decoder decodes bridge contract logs into bridge events.
type Decoder struct {
	bridgeABI   abi.ABI
	topicToName map[common.Hash]string
	logger      *zap.Logger
}

// NewDecoder builds a bridge event decoder.
func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	bridgeABI, err := BridgeABI()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	topicToName := map[common.Hash]string{
		bridgeABI.Events[model.EventTokensDeposited].ID: model.EventTokensDeposited,
		bridgeABI.Events[model.EventTokensClaimed].ID:   model.EventTokensClaimed,
	}
	for topic0, name := range cfg.Topic0Map {
		original := name
		name = normalizeEventName(name)
		if name == "" {
			return nil, fmt.Errorf("unsupported event name in topic0 map: %s", original)
		}
		if topic0 == "" {
			continue
		}
		topicToName[common.HexToHash(topic0)] = name
	}

	return &Decoder{
		bridgeABI:   bridgeABI,
		topicToName: topicToName,
		logger:      logger,
	}, nil
}

// CanDecode checks if topic0 belongs to a known bridge event.
func (d *Decoder) CanDecode(topic0 common.Hash) bool {
	_, ok := d.topicToName[topic0]
	return ok
}

// Decode returns the bridge event carried by log. A known topic whose payload
// does not unpack is logged and treated as not a bridge event.
func (d *Decoder) Decode(log model.VerifiedLog) (model.BridgeEvent, bool) {
	if len(log.Log.Topics) == 0 {
		return nil, false
	}
	name, ok := d.topicToName[log.Log.Topics[0]]
	if !ok {
		return nil, false
	}

	event, err := d.decode(name, log.Log)
	if err != nil {
		d.logger.Warn("malformed bridge event",
			zap.String("event", name),
			zap.String("tx_hash", log.TxHash.Hex()),
			zap.Uint16("log_index_in_tx", log.LogIndexInTx),
			zap.Uint64("block_number", log.BlockNumber),
			zap.Error(err),
		)
		return nil, false
	}
	return event, true
}

func (d *Decoder) decode(name string, log model.RawLog) (model.BridgeEvent, error) {
	args, err := d.unpack(name, log)
	if err != nil {
		return nil, err
	}

	var (
		sourceChainID, destinationChainID, tokenID uint8
		nonce                                      uint64
	)
	if err := firstErr(
		field(args, "sourceChainID", &sourceChainID),
		field(args, "nonce", &nonce),
		field(args, "destinationChainID", &destinationChainID),
		field(args, "tokenID", &tokenID),
	); err != nil {
		return nil, err
	}

	switch name {
	case model.EventTokensDeposited:
		ev := model.TokensDepositedEvent{
			SourceChainID:      sourceChainID,
			Nonce:              nonce,
			DestinationChainID: destinationChainID,
			TokenID:            tokenID,
		}
		if err := firstErr(
			field(args, "suiAdjustedAmount", &ev.SuiAdjustedAmount),
			field(args, "senderAddress", &ev.SenderAddress),
			field(args, "recipientAddress", &ev.RecipientAddress),
		); err != nil {
			return nil, err
		}
		return ev, nil
	case model.EventTokensClaimed:
		ev := model.TokensClaimedEvent{
			SourceChainID:      sourceChainID,
			Nonce:              nonce,
			DestinationChainID: destinationChainID,
			TokenID:            tokenID,
		}
		var amount *big.Int
		if err := firstErr(
			field(args, "erc20AdjustedAmount", &amount),
			field(args, "senderAddress", &ev.SenderAddress),
			field(args, "recipientAddress", &ev.RecipientAddress),
		); err != nil {
			return nil, err
		}
		ev.ERC20AdjustedAmount = amount
		return ev, nil
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
}

func (d *Decoder) unpack(name string, log model.RawLog) (map[string]interface{}, error) {
	event, ok := d.bridgeABI.Events[name]
	if !ok {
		return nil, fmt.Errorf("event %s missing from abi", name)
	}

	indexed := indexedArgs(event.Inputs)
	if len(log.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("expected %d indexed topics, got %d", len(indexed), len(log.Topics)-1)
	}

	args := map[string]interface{}{}
	if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(args, log.Data); err != nil {
		return nil, fmt.Errorf("unpack data: %w", err)
	}
	return args, nil
}

func indexedArgs(args abi.Arguments) abi.Arguments {
	var out abi.Arguments
	for _, a := range args {
		if a.Indexed {
			out = append(out, a)
		}
	}
	return out
}

func field[T any](args map[string]interface{}, name string, dst *T) error {
	raw, ok := args[name]
	if !ok {
		return fmt.Errorf("missing field %s", name)
	}
	v, ok := raw.(T)
	if !ok {
		return fmt.Errorf("field %s has type %T", name, raw)
	}
	*dst = v
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func normalizeEventName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tokensdeposited":
		return model.EventTokensDeposited
	case "tokensclaimed":
		return model.EventTokensClaimed
	default:
		return ""
	}
}
