// Package solver builds settlements for batch auctions. Given a snapshot and
// an injected matching decision it validates fills, derives clearing prices,
// encodes the on-chain interactions with a validated execution plan, and
// guarantees each round is encoded at most once.
package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/MooMaker/moo-solver/internal/domain"
	"github.com/MooMaker/moo-solver/internal/interaction"
	"github.com/MooMaker/moo-solver/internal/plan"
	"github.com/MooMaker/moo-solver/internal/pricing"
)

// Config carries the solver's operating parameters.
type Config struct {
	// Contract is the settlement contract orders are swapped through.
	Contract common.Address

	// GuardTTL bounds how long a round stays marked executed. Zero means
	// for the lifetime of the state store.
	GuardTTL time.Duration
}

// Solver is the settlement pipeline. Everything it builds is exclusively
// owned by the building request; the only shared state is the idempotency
// StateStore.
type Solver struct {
	strategy Strategy
	state    StateStore
	cfg      Config
	logger   *slog.Logger
}

// New creates a Solver.
func New(strategy Strategy, state StateStore, cfg Config, logger *slog.Logger) *Solver {
	return &Solver{
		strategy: strategy,
		state:    state,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "solver")),
	}
}

// Solve runs the pipeline for one auction snapshot. A round with no viable
// trade returns an empty settlement and no error. A round that was already
// executed returns an empty settlement so a settlement that may already be
// on-chain is never encoded twice.
func (s *Solver) Solve(ctx context.Context, auction *domain.BatchAuction) (domain.Settlement, error) {
	decision, err := s.strategy.Match(ctx, auction)
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("solver: match: %w", err)
	}

	if decision.Empty() {
		s.logger.InfoContext(ctx, "no viable trade", slog.String("round", auction.RoundKey()))
		return domain.EmptySettlement(), nil
	}

	if err := validateDecision(auction, decision); err != nil {
		return domain.Settlement{}, err
	}

	round := auction.RoundKey()
	won, err := s.state.Claim(ctx, round, s.cfg.GuardTTL)
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("solver: claim round %s: %w", round, err)
	}
	if !won {
		s.logger.InfoContext(ctx, "round already executed", slog.String("round", round))
		return domain.EmptySettlement(), nil
	}

	settlement, err := s.build(auction, decision)
	if err != nil {
		if relErr := s.state.Release(ctx, round); relErr != nil {
			s.logger.WarnContext(ctx, "failed to release round after build error",
				slog.String("round", round),
				slog.String("error", relErr.Error()),
			)
		}
		return domain.Settlement{}, err
	}

	s.logger.InfoContext(ctx, "settlement built",
		slog.String("round", round),
		slog.Int("orders", len(settlement.Orders)),
		slog.Int("interactions", len(settlement.InteractionData)),
	)
	return settlement, nil
}

// build encodes the validated decision into a settlement.
func (s *Solver) build(auction *domain.BatchAuction, decision Decision) (domain.Settlement, error) {
	refToken, ok := pricing.ReferenceToken(auction.Tokens)
	if !ok {
		return domain.Settlement{}, domain.NewSolveError(domain.ErrKindMalformedInput, "auction has no tokens")
	}
	refDecimals := auction.Tokens[refToken].DecimalsOrDefault()

	legs := make([]pricing.Leg, 0, len(decision.Fills)+len(decision.AmmFills))
	for _, fill := range decision.Fills {
		order := auction.Orders[fill.OrderID]
		legs = append(legs, pricing.Leg{
			SellToken:  order.SellToken,
			SellAmount: fill.ExecSellAmount,
			BuyToken:   order.BuyToken,
			BuyAmount:  fill.ExecBuyAmount,
		})
	}
	for _, fill := range decision.AmmFills {
		legs = append(legs, pricing.Leg{
			SellToken:  fill.SellToken,
			SellAmount: fill.ExecSellAmount,
			BuyToken:   fill.BuyToken,
			BuyAmount:  fill.ExecBuyAmount,
		})
	}

	rawPrices, err := pricing.Propagate(refToken, refDecimals, legs)
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrDisconnected):
			return domain.Settlement{}, domain.WrapSolveError(domain.ErrKindPriceDisconnected, err)
		case errors.Is(err, pricing.ErrAmbiguous):
			return domain.Settlement{}, domain.WrapSolveError(domain.ErrKindPriceAmbiguous, err)
		default:
			return domain.Settlement{}, fmt.Errorf("solver: pricing: %w", err)
		}
	}

	prices := make(map[common.Address]domain.U256, len(rawPrices))
	for token, price := range rawPrices {
		prices[token] = domain.MustU256(price)
	}

	executedOrders := make(map[int]domain.ExecutedOrder, len(decision.Fills))
	approvals := newApprovalSet()
	var interactions []domain.InteractionData

	fills := make([]Fill, len(decision.Fills))
	copy(fills, decision.Fills)
	sort.Slice(fills, func(i, j int) bool { return fills[i].OrderID < fills[j].OrderID })

	for _, fill := range fills {
		order := auction.Orders[fill.OrderID]

		executed := domain.ExecutedOrder{
			ExecSellAmount: domain.MustU256(fill.ExecSellAmount),
			ExecBuyAmount:  domain.MustU256(fill.ExecBuyAmount),
		}
		if fill.ExecFeeAmount != nil {
			fee := domain.MustU256(fill.ExecFeeAmount)
			executed.ExecFeeAmount = &fee
		}
		executedOrders[fill.OrderID] = executed

		swap, err := interaction.NewSettlementSwap(s.cfg.Contract, interaction.SwapOrder{
			TokenIn:   order.SellToken,
			AmountIn:  fill.ExecSellAmount,
			TokenOut:  order.BuyToken,
			AmountOut: fill.ExecBuyAmount,
			ValidTo:   new(big.Int).SetUint64(fill.ValidTo),
			Maker:     fill.Maker,
			Uid:       fill.UID,
		}, fill.Signature)
		if err != nil {
			return domain.Settlement{}, fmt.Errorf("solver: order %d: %w", fill.OrderID, err)
		}

		interactions = append(interactions, renderInteraction(swap,
			[]domain.TokenAmount{{Amount: executed.ExecSellAmount, Token: order.SellToken}},
			[]domain.TokenAmount{{Amount: executed.ExecBuyAmount, Token: order.BuyToken}},
			nil,
		)...)
		approvals.add(order.SellToken, s.cfg.Contract, fill.ExecSellAmount)
	}

	amms := make(map[int]domain.AmmUpdate)
	for _, fill := range decision.AmmFills {
		executed := domain.ExecutedAmm{
			SellToken:      fill.SellToken,
			BuyToken:       fill.BuyToken,
			ExecSellAmount: domain.MustU256(fill.ExecSellAmount),
			ExecBuyAmount:  domain.MustU256(fill.ExecBuyAmount),
			ExecPlan:       fill.Coordinates,
		}
		update := amms[fill.AmmID]
		update.Execution = append(update.Execution, executed)
		amms[fill.AmmID] = update

		var in interaction.Interaction = interaction.CallData{
			Target: fill.Target,
			Data:   fill.CallData,
		}
		if fill.ApproveSpending {
			approve, err := interaction.NewApprove(fill.SellToken, fill.Target, fill.ExecSellAmount)
			if err != nil {
				return domain.Settlement{}, fmt.Errorf("solver: amm %d: %w", fill.AmmID, err)
			}
			in = interaction.Composite{approve, in}
		} else {
			approvals.add(fill.SellToken, fill.Target, fill.ExecSellAmount)
		}

		interactions = append(interactions, renderInteraction(in,
			[]domain.TokenAmount{{Amount: executed.ExecSellAmount, Token: fill.SellToken}},
			[]domain.TokenAmount{{Amount: executed.ExecBuyAmount, Token: fill.BuyToken}},
			fill.Plan,
		)...)
	}

	ordered, err := plan.Assign(interactions)
	if err != nil {
		return domain.Settlement{}, domain.WrapSolveError(domain.ErrKindDuplicatePlan, err)
	}

	approvalList, err := approvals.list()
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("solver: approvals: %w", err)
	}

	return domain.Settlement{
		Orders:          executedOrders,
		Amms:            amms,
		RefToken:        &refToken,
		Prices:          prices,
		Approvals:       approvalList,
		InteractionData: ordered,
	}, nil
}

// renderInteraction flattens one logical interaction into wire-level entries.
// The realized token flows are attached to the final call, which is the one
// that actually moves funds; preceding calls (approvals) move nothing out of
// custody. An explicit execution plan pins every call of the render: the final
// call takes the given coordinate and each preceding call the position
// directly before it, so an approval can never be scheduled after the call
// that consumes its allowance. validateDecision guarantees the pinned position
// leaves enough room in front.
func renderInteraction(in interaction.Interaction, inputs, outputs []domain.TokenAmount, explicit *domain.ExecutionPlan) []domain.InteractionData {
	calls := in.Encode()
	rendered := make([]domain.InteractionData, len(calls))
	for i, call := range calls {
		rendered[i] = domain.InteractionData{
			Target:   call.Target,
			Value:    domain.MustU256(call.Value),
			CallData: call.CallData,
			Inputs:   []domain.TokenAmount{},
			Outputs:  []domain.TokenAmount{},
		}
	}
	last := len(rendered) - 1
	rendered[last].Inputs = inputs
	rendered[last].Outputs = outputs
	if explicit != nil {
		for i := range rendered {
			c := explicit.PlanCoordinates
			c.Position -= uint32(last - i)
			rendered[i].ExecPlan = &domain.ExecutionPlan{
				PlanCoordinates: c,
				Internal:        explicit.Internal,
			}
		}
	}
	return rendered
}

// approvalSet aggregates required allowances per (token, spender) pair so
// the caller sees exactly one approval per pair, sized to the true amount
// moved.
type approvalSet struct {
	amounts map[approvalKey]*big.Int
	order   []approvalKey
}

type approvalKey struct {
	token   common.Address
	spender common.Address
}

func newApprovalSet() *approvalSet {
	return &approvalSet{amounts: make(map[approvalKey]*big.Int)}
}

func (a *approvalSet) add(token, spender common.Address, amount *big.Int) {
	key := approvalKey{token: token, spender: spender}
	if existing, ok := a.amounts[key]; ok {
		existing.Add(existing, amount)
		return
	}
	a.amounts[key] = new(big.Int).Set(amount)
	a.order = append(a.order, key)
}

func (a *approvalSet) list() ([]domain.Approval, error) {
	approvals := make([]domain.Approval, 0, len(a.order))
	for _, key := range a.order {
		amount, err := domain.NewU256(a.amounts[key])
		if err != nil {
			return nil, fmt.Errorf("token %s spender %s: %w", key.token, key.spender, err)
		}
		approvals = append(approvals, domain.Approval{
			Token:   key.token,
			Spender: key.spender,
			Amount:  amount,
		})
	}
	return approvals, nil
}
