package solver

import (
	"math/big"

	"github.com/MooMaker/moo-solver/internal/domain"
)

// validateDecision checks every fill against its order's constraints before
// anything is priced or encoded. Amount range checks happen here, at the
// boundary, so the pricing and encoding math never has to defend against
// overflow.
func validateDecision(auction *domain.BatchAuction, decision Decision) error {
	seen := make(map[int]bool, len(decision.Fills))

	for _, fill := range decision.Fills {
		order, ok := auction.Orders[fill.OrderID]
		if !ok {
			return domain.NewSolveError(domain.ErrKindOrderConstraint,
				"fill references unknown order %d", fill.OrderID)
		}
		if seen[fill.OrderID] {
			return domain.NewSolveError(domain.ErrKindOrderConstraint,
				"order %d filled more than once", fill.OrderID)
		}
		seen[fill.OrderID] = true

		if err := checkAmount(fill.ExecSellAmount, "sell", fill.OrderID); err != nil {
			return err
		}
		if err := checkAmount(fill.ExecBuyAmount, "buy", fill.OrderID); err != nil {
			return err
		}
		if fill.ExecFeeAmount != nil &&
			(fill.ExecFeeAmount.Sign() < 0 || fill.ExecFeeAmount.BitLen() > 256) {
			return domain.NewSolveError(domain.ErrKindOrderConstraint,
				"order %d fee amount out of range", fill.OrderID)
		}

		sellLimit := order.SellAmount.Big()
		if fill.ExecSellAmount.Cmp(sellLimit) > 0 {
			return domain.NewSolveError(domain.ErrKindOrderConstraint,
				"order %d filled %s exceeds sell amount %s",
				fill.OrderID, fill.ExecSellAmount, order.SellAmount)
		}
		if !order.AllowPartialFill && fill.ExecSellAmount.Cmp(sellLimit) != 0 {
			return domain.NewSolveError(domain.ErrKindOrderConstraint,
				"order %d forbids partial fills: filled %s of %s",
				fill.OrderID, fill.ExecSellAmount, order.SellAmount)
		}

		// Limit price: execBuy/execSell must be at least buyAmount/sellAmount.
		lhs := new(big.Int).Mul(fill.ExecBuyAmount, sellLimit)
		rhs := new(big.Int).Mul(order.BuyAmount.Big(), fill.ExecSellAmount)
		if lhs.Cmp(rhs) < 0 {
			return domain.NewSolveError(domain.ErrKindOrderConstraint,
				"order %d filled below limit price", fill.OrderID)
		}
	}

	for _, fill := range decision.AmmFills {
		if fill.SellToken == fill.BuyToken {
			return domain.NewSolveError(domain.ErrKindOrderConstraint,
				"amm %d sells and buys the same token", fill.AmmID)
		}
		if err := checkAmount(fill.ExecSellAmount, "sell", fill.AmmID); err != nil {
			return err
		}
		if err := checkAmount(fill.ExecBuyAmount, "buy", fill.AmmID); err != nil {
			return err
		}
		if len(fill.CallData) == 0 {
			return domain.NewSolveError(domain.ErrKindOrderConstraint,
				"amm %d fill is missing call data", fill.AmmID)
		}
		// An on-chain approval occupies the slot directly before the pinned
		// call, so a pin at position zero leaves it nowhere to go.
		if fill.ApproveSpending && fill.Plan != nil && fill.Plan.Position == 0 {
			return domain.NewSolveError(domain.ErrKindOrderConstraint,
				"amm %d pins its call at position 0, leaving no slot for its approval", fill.AmmID)
		}
	}

	return nil
}

func checkAmount(amount *big.Int, side string, id int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.NewSolveError(domain.ErrKindOrderConstraint,
			"fill %d %s amount must be strictly positive", id, side)
	}
	if amount.BitLen() > 256 {
		return domain.NewSolveError(domain.ErrKindOrderConstraint,
			"fill %d %s amount overflows 256 bits", id, side)
	}
	return nil
}
