package solver

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/MooMaker/moo-solver/internal/domain"
)

// Fill is the realized execution of one user order, decided by a Strategy.
// Maker, ValidTo, UID and Signature are the maker-side data the settlement
// contract needs to verify the fill; the solver treats the signature as
// opaque bytes.
type Fill struct {
	OrderID        int
	ExecSellAmount *big.Int
	ExecBuyAmount  *big.Int
	ExecFeeAmount  *big.Int // optional
	Maker          common.Address
	ValidTo        uint64
	UID            []byte
	Signature      []byte
}

// AmmFill is one liquidity-pool leg with its pre-encoded call. When
// ApproveSpending is set the sell-token allowance is encoded on-chain
// directly before the call instead of being delegated to the caller via the
// approvals list.
type AmmFill struct {
	AmmID           int
	SellToken       common.Address
	BuyToken        common.Address
	ExecSellAmount  *big.Int
	ExecBuyAmount   *big.Int
	Target          common.Address
	CallData        []byte
	Coordinates     *domain.PlanCoordinates // record-level ordering, reported in the AMM update
	Plan            *domain.ExecutionPlan   // optional explicit slot for the encoded call
	ApproveSpending bool
}

// Decision is the externally supplied matching outcome for one auction:
// which orders and AMM legs are filled and by how much. An empty decision is
// not an error; the round simply has no viable trade.
type Decision struct {
	Fills    []Fill
	AmmFills []AmmFill
}

// Empty reports whether the decision executes nothing.
func (d Decision) Empty() bool {
	return len(d.Fills) == 0 && len(d.AmmFills) == 0
}

// Strategy decides which orders to fill. The solver validates and encodes
// whatever the strategy returns; the matching heuristic itself is pluggable
// and lives outside the settlement pipeline.
type Strategy interface {
	Match(ctx context.Context, auction *domain.BatchAuction) (Decision, error)
}

// PairStrategy fills the first order selling TokenIn for TokenOut, using a
// statically configured maker counterparty. It exists as the reference
// strategy for single-pair deployments; real matching engines replace it
// behind the Strategy interface.
type PairStrategy struct {
	TokenIn   common.Address
	TokenOut  common.Address
	AmountIn  *big.Int
	AmountOut *big.Int
	FeeAmount *big.Int // reported for partially fillable orders
	Maker     common.Address
	ValidTo   uint64
	UID       []byte
	Signature []byte
}

// Match scans orders in ascending id order for determinism and fills the
// first one trading the configured pair. Orders that forbid partial fills
// are always filled in full; otherwise the configured amounts are used,
// capped at the order size.
func (s *PairStrategy) Match(ctx context.Context, auction *domain.BatchAuction) (Decision, error) {
	ids := make([]int, 0, len(auction.Orders))
	for id := range auction.Orders {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		order := auction.Orders[id]
		if order.SellToken != s.TokenIn || order.BuyToken != s.TokenOut {
			continue
		}

		sellAmount, buyAmount := s.AmountIn, s.AmountOut
		if !order.AllowPartialFill || sellAmount.Cmp(order.SellAmount.Big()) > 0 {
			sellAmount = order.SellAmount.Big()
			buyAmount = order.BuyAmount.Big()
		}

		fill := Fill{
			OrderID:        id,
			ExecSellAmount: sellAmount,
			ExecBuyAmount:  buyAmount,
			Maker:          s.Maker,
			ValidTo:        s.ValidTo,
			UID:            s.UID,
			Signature:      s.Signature,
		}
		if order.AllowPartialFill && s.FeeAmount != nil {
			fill.ExecFeeAmount = new(big.Int).Set(s.FeeAmount)
		}
		return Decision{Fills: []Fill{fill}}, nil
	}

	return Decision{}, nil
}

var _ Strategy = (*PairStrategy)(nil)
