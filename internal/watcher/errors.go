package watcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Kind classifies a watcher error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound: the caller-supplied transaction hash has no receipt.
	KindNotFound
	// KindTransientUnavailable: the provider cannot answer right now.
	KindTransientUnavailable
	// KindNotYetFinalized: the transaction's block is above the finalized height.
	KindNotYetFinalized
	// KindProviderIntegrity: the provider returned malformed or inconsistent data.
	KindProviderIntegrity
	// KindNoEventAtPosition: no bridge event at the requested (tx, index).
	KindNoEventAtPosition
	// KindNotActionable: the bridge event is not one the bridge acts upon.
	KindNotActionable
)

var (
	ErrTxNotFound                = errors.New("transaction not found")
	ErrTransientUnavailable      = errors.New("provider temporarily unavailable")
	ErrTxNotFinalized            = errors.New("transaction not finalized")
	ErrProviderIntegrity         = errors.New("provider returned inconsistent data")
	ErrNoBridgeEventInTxPosition = errors.New("no bridge event at transaction position")
	ErrBridgeEventNotActionable  = errors.New("bridge event not actionable")
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindTransientUnavailable:
		return "transient_unavailable"
	case KindNotYetFinalized:
		return "not_yet_finalized"
	case KindProviderIntegrity:
		return "provider_integrity"
	case KindNoEventAtPosition:
		return "no_event_at_position"
	case KindNotActionable:
		return "not_actionable"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrTxNotFound
	case KindTransientUnavailable:
		return ErrTransientUnavailable
	case KindNotYetFinalized:
		return ErrTxNotFinalized
	case KindProviderIntegrity:
		return ErrProviderIntegrity
	case KindNoEventAtPosition:
		return ErrNoBridgeEventInTxPosition
	case KindNotActionable:
		return ErrBridgeEventNotActionable
	default:
		return nil
	}
}

// Error carries the kind of failure and enough context to log it without
// querying the provider again.
type Error struct {
	Kind        Kind
	TxHash      *common.Hash
	BlockNumber *uint64
	EventIndex  *uint16
	Expected    string
	Actual      string
	Detail      string
	Err         error
}

func (e *Error) Error() string {
	var b strings.Builder
	if s := e.Kind.sentinel(); s != nil {
		b.WriteString(s.Error())
	} else {
		b.WriteString("watcher error")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.TxHash != nil {
		fmt.Fprintf(&b, " tx=%s", e.TxHash.Hex())
	}
	if e.BlockNumber != nil {
		fmt.Fprintf(&b, " block=%d", *e.BlockNumber)
	}
	if e.EventIndex != nil {
		fmt.Fprintf(&b, " event_index=%d", *e.EventIndex)
	}
	if e.Expected != "" {
		fmt.Fprintf(&b, " expected=%s", e.Expected)
	}
	if e.Actual != "" {
		fmt.Fprintf(&b, " actual=%s", e.Actual)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the same request may succeed later.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransientUnavailable, KindNotYetFinalized:
		return true
	default:
		return false
	}
}

func integrityError(detail string, txHash *common.Hash) *Error {
	return &Error{Kind: KindProviderIntegrity, Detail: detail, TxHash: txHash}
}

func transientError(detail string, err error) *Error {
	return &Error{Kind: KindTransientUnavailable, Detail: detail, Err: err}
}
