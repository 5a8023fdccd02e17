// Package interaction renders heterogeneous settlement actions into flat
// on-chain calls. Every variant encodes to one or more call descriptors
// (target, native value, call data); encoding is a pure function of the
// interaction's own fields and never fails. Preconditions are checked when an
// interaction is constructed, not when it is encoded, because callers
// serialize the result directly into the settlement transaction.
package interaction

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EncodedCall is one flat on-chain call descriptor.
type EncodedCall struct {
	Target   common.Address
	Value    *big.Int
	CallData []byte
}

// Interaction is any settlement action that can render itself as one or more
// on-chain calls.
type Interaction interface {
	Encode() []EncodedCall
}

// CallData is a pre-encoded call; it encodes to itself. Used for liquidity
// legs whose call data is supplied by an external source.
type CallData struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

func (c CallData) Encode() []EncodedCall {
	value := c.Value
	if value == nil {
		value = new(big.Int)
	}
	return []EncodedCall{{Target: c.Target, Value: value, CallData: c.Data}}
}

// Composite renders a fixed sequence of interactions adjacently, in order.
// An approval followed by the call consuming it is the typical shape.
type Composite []Interaction

func (c Composite) Encode() []EncodedCall {
	var calls []EncodedCall
	for _, in := range c {
		calls = append(calls, in.Encode()...)
	}
	return calls
}
