// Package pricing derives the clearing-price vector of a batch auction from
// its executed trade legs. Prices propagate outward from a reference token
// through the token graph the legs span, using the same truncating integer
// arithmetic as the on-chain settlement.
package pricing

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/MooMaker/moo-solver/internal/domain"
)

var (
	// ErrDisconnected means a trade leg's tokens cannot reach the reference
	// token through any chain of priced legs.
	ErrDisconnected = errors.New("pricing: token graph disconnected from reference token")

	// ErrAmbiguous means a leg closed a cycle whose implied price disagrees
	// with the already-derived prices. The engine refuses to pick a side.
	ErrAmbiguous = errors.New("pricing: inconsistent price cycle")
)

// Leg is one executed trade between two tokens. Both amounts are strictly
// positive.
type Leg struct {
	SellToken  common.Address
	SellAmount *big.Int
	BuyToken   common.Address
	BuyAmount  *big.Int
}

// Propagate computes a price for every token reachable from refToken via the
// given legs. The reference price is fixed at 10^refDecimals; every other
// price follows from price[known] * amount[known side] / amount[unknown side]
// with truncating division. Legs whose tokens are both already priced must
// agree with the derived prices within truncation, otherwise ErrAmbiguous is
// returned. Legs that never connect to the reference token yield
// ErrDisconnected.
//
// The result is deterministic for a given input and the input is never
// mutated.
func Propagate(refToken common.Address, refDecimals uint8, legs []Leg) (map[common.Address]*big.Int, error) {
	for i, leg := range legs {
		if err := validateLeg(leg); err != nil {
			return nil, fmt.Errorf("pricing: leg %d: %w", i, err)
		}
	}

	prices := map[common.Address]*big.Int{
		refToken: new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(refDecimals)), nil),
	}

	pending := make([]Leg, len(legs))
	copy(pending, legs)

	for progress := true; progress && len(pending) > 0; {
		progress = false
		next := pending[:0]

		for _, leg := range pending {
			sellPrice, haveSell := prices[leg.SellToken]
			buyPrice, haveBuy := prices[leg.BuyToken]

			switch {
			case haveSell && haveBuy:
				// Redundant constraint closing a cycle: accept only if it
				// agrees with what is already derived.
				if !consistent(sellPrice, buyPrice, leg) {
					return nil, fmt.Errorf("%w: leg %s -> %s", ErrAmbiguous, leg.SellToken, leg.BuyToken)
				}
				progress = true
			case haveSell:
				derived, err := derive(sellPrice, leg.SellAmount, leg.BuyAmount)
				if err != nil {
					return nil, fmt.Errorf("pricing: price of %s: %w", leg.BuyToken, err)
				}
				prices[leg.BuyToken] = derived
				progress = true
			case haveBuy:
				derived, err := derive(buyPrice, leg.BuyAmount, leg.SellAmount)
				if err != nil {
					return nil, fmt.Errorf("pricing: price of %s: %w", leg.SellToken, err)
				}
				prices[leg.SellToken] = derived
				progress = true
			default:
				next = append(next, leg)
			}
		}

		pending = next
	}

	if len(pending) > 0 {
		leg := pending[0]
		return nil, fmt.Errorf("%w: leg %s -> %s", ErrDisconnected, leg.SellToken, leg.BuyToken)
	}

	return prices, nil
}

func validateLeg(leg Leg) error {
	if leg.SellToken == leg.BuyToken {
		return fmt.Errorf("sell and buy token are both %s", leg.SellToken)
	}
	for _, amount := range []*big.Int{leg.SellAmount, leg.BuyAmount} {
		if amount == nil || amount.Sign() <= 0 {
			return fmt.Errorf("amounts must be strictly positive")
		}
		if amount.BitLen() > 256 {
			return fmt.Errorf("amount %s overflows 256 bits", amount)
		}
	}
	return nil
}

// derive computes price[known] * knownAmount / unknownAmount with truncating
// division, and rejects results the settlement contract cannot represent.
func derive(knownPrice, knownAmount, unknownAmount *big.Int) (*big.Int, error) {
	price := new(big.Int).Mul(knownPrice, knownAmount)
	price.Quo(price, unknownAmount)
	if price.Sign() == 0 {
		return nil, fmt.Errorf("derived price truncates to zero")
	}
	if price.BitLen() > 256 {
		return nil, fmt.Errorf("derived price %s overflows 256 bits", price)
	}
	return price, nil
}

// consistent reports whether a fully priced leg agrees with the stored
// prices, in either derivation direction. The derived value may sit one unit
// off the stored one: a cycle whose prices were derived along more than one
// truncated path loses up to a unit per path, and that loss must not condemn
// a cycle that is exact in rational arithmetic.
func consistent(sellPrice, buyPrice *big.Int, leg Leg) bool {
	fromSell := new(big.Int).Mul(sellPrice, leg.SellAmount)
	fromSell.Quo(fromSell, leg.BuyAmount)
	if withinOne(fromSell, buyPrice) {
		return true
	}
	fromBuy := new(big.Int).Mul(buyPrice, leg.BuyAmount)
	fromBuy.Quo(fromBuy, leg.SellAmount)
	return withinOne(fromBuy, sellPrice)
}

func withinOne(a, b *big.Int) bool {
	diff := new(big.Int).Sub(a, b)
	return diff.CmpAbs(big.NewInt(1)) <= 0
}

// ReferenceToken picks the price anchor for an auction: the token with the
// highest normalization priority, ties broken by lowest address so the choice
// is deterministic. Returns false when the auction has no tokens.
func ReferenceToken(tokens map[common.Address]domain.TokenInfo) (common.Address, bool) {
	var (
		best     common.Address
		bestInfo domain.TokenInfo
		found    bool
	)
	for addr, info := range tokens {
		if !found {
			best, bestInfo, found = addr, info, true
			continue
		}
		switch {
		case info.Priority() > bestInfo.Priority():
			best, bestInfo = addr, info
		case info.Priority() == bestInfo.Priority() && bytes.Compare(addr[:], best[:]) < 0:
			best, bestInfo = addr, info
		}
	}
	return best, found
}
