// Package domain defines the auction snapshot and settlement models shared by
// the solver pipeline, together with their wire formats: 256-bit amounts as
// decimal strings, byte blobs as 0x-prefixed hex, addresses as 20-byte hex.
package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// defaultDecimals is assumed for tokens that do not announce a precision.
const defaultDecimals uint8 = 18

// BatchAuction is the immutable snapshot of tokens and orders submitted for
// one auction round. Orders are read-only during solving.
type BatchAuction struct {
	Tokens          map[common.Address]TokenInfo `json:"tokens"`
	Orders          map[int]Order                `json:"orders"`
	Metadata        *Metadata                    `json:"metadata,omitempty"`
	InstanceName    string                       `json:"instanceName,omitempty"`
	TimeLimit       uint64                       `json:"timeLimit,omitempty"`
	MaxNrExecOrders uint64                       `json:"maxNrExecOrders,omitempty"`
	AuctionID       *uint64                      `json:"auctionId,omitempty"`
}

// Metadata carries optional auction environment information.
type Metadata struct {
	Environment string `json:"environment,omitempty"`
}

// TokenInfo describes one tradable token. All fields are optional in the
// snapshot; Decimals defaults to 18 when absent.
type TokenInfo struct {
	Decimals          *uint8   `json:"decimals,omitempty"`
	ExternalPrice     *float64 `json:"externalPrice,omitempty"`
	NormalizePriority *uint64  `json:"normalizePriority,omitempty"`
	InternalBuffer    *U256    `json:"internalBuffer,omitempty"`
}

// DecimalsOrDefault returns the token's decimal precision, falling back to 18.
func (t TokenInfo) DecimalsOrDefault() uint8 {
	if t.Decimals != nil {
		return *t.Decimals
	}
	return defaultDecimals
}

// Priority returns the normalization priority, 0 when unset.
func (t TokenInfo) Priority() uint64 {
	if t.NormalizePriority != nil {
		return *t.NormalizePriority
	}
	return 0
}

// Order is a user's trading intent within one auction round.
type Order struct {
	SellToken        common.Address `json:"sellToken"`
	BuyToken         common.Address `json:"buyToken"`
	SellAmount       U256           `json:"sellAmount"`
	BuyAmount        U256           `json:"buyAmount"`
	AllowPartialFill bool           `json:"allowPartialFill"`
	IsSellOrder      bool           `json:"isSellOrder"`
	Fee              TokenAmount    `json:"fee"`
	Cost             TokenAmount    `json:"cost"`
	IsLiquidityOrder bool           `json:"isLiquidityOrder"`
}

// TokenAmount is an amount of a specific token.
type TokenAmount struct {
	Amount U256           `json:"amount"`
	Token  common.Address `json:"token"`
}

// Validate checks the structural invariants of the snapshot: orders must
// trade two distinct tokens and both must be present in the token map. It
// does not inspect amounts; the 256-bit range is enforced during decoding.
func (a *BatchAuction) Validate() error {
	for id, order := range a.Orders {
		if order.SellToken == order.BuyToken {
			return fmt.Errorf("domain: order %d sells and buys the same token %s", id, order.SellToken)
		}
		if _, ok := a.Tokens[order.SellToken]; !ok {
			return fmt.Errorf("domain: order %d references unknown sell token %s", id, order.SellToken)
		}
		if _, ok := a.Tokens[order.BuyToken]; !ok {
			return fmt.Errorf("domain: order %d references unknown buy token %s", id, order.BuyToken)
		}
	}
	return nil
}

// RoundKey identifies the logical auction round for idempotency purposes.
// Prefers the auction id, then the instance name, then a process-wide key.
func (a *BatchAuction) RoundKey() string {
	if a.AuctionID != nil {
		return fmt.Sprintf("auction-%d", *a.AuctionID)
	}
	if a.InstanceName != "" {
		return a.InstanceName
	}
	return "default"
}
