package domain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PlanCoordinates order an interaction within the settlement transaction:
// sequence ascending, then position ascending.
type PlanCoordinates struct {
	Sequence uint32 `json:"sequence"`
	Position uint32 `json:"position"`
}

// Less reports whether c executes before o.
func (c PlanCoordinates) Less(o PlanCoordinates) bool {
	if c.Sequence != o.Sequence {
		return c.Sequence < o.Sequence
	}
	return c.Position < o.Position
}

// ExecutionPlan is the ordering metadata attached to an encoded interaction.
// Internal marks interactions elided when simulating with internalized
// interactions.
type ExecutionPlan struct {
	PlanCoordinates
	Internal bool `json:"internal"`
}

// InteractionData is one flat on-chain call of the settlement transaction.
// Inputs are the token amounts expected to flow from the settlement contract
// into the call target; Outputs flow back. Both are informational, for
// auditability of the encoded call data.
type InteractionData struct {
	Target   common.Address `json:"target"`
	Value    U256           `json:"value"`
	CallData hexutil.Bytes  `json:"callData"`
	ExecPlan *ExecutionPlan `json:"execPlan,omitempty"`
	Inputs   []TokenAmount  `json:"inputs"`
	Outputs  []TokenAmount  `json:"outputs"`
}

// ExecutedOrder binds an order id to its realized amounts.
type ExecutedOrder struct {
	ExecSellAmount U256  `json:"execSellAmount"`
	ExecBuyAmount  U256  `json:"execBuyAmount"`
	ExecFeeAmount  *U256 `json:"execFeeAmount,omitempty"`
}

// ExecutedAmm is one realized liquidity-pool leg. Its coordinates are
// distinct from interaction-level execution plans.
type ExecutedAmm struct {
	SellToken      common.Address   `json:"sellToken"`
	BuyToken       common.Address   `json:"buyToken"`
	ExecSellAmount U256             `json:"execSellAmount"`
	ExecBuyAmount  U256             `json:"execBuyAmount"`
	ExecPlan       *PlanCoordinates `json:"execPlan,omitempty"`
}

// AmmUpdate groups the executed legs of one AMM.
type AmmUpdate struct {
	Execution []ExecutedAmm `json:"execution"`
}

// Approval instructs the caller to ensure an ERC20 allowance of at least
// Amount from the settlement contract to Spender before submission.
type Approval struct {
	Token   common.Address `json:"token"`
	Spender common.Address `json:"spender"`
	Amount  U256           `json:"amount"`
}

// Settlement is the solved batch auction: executed orders and AMM legs, the
// derived clearing prices anchored on RefToken, required approvals, and the
// ordered encoded interactions. Built once per round, immutable thereafter.
type Settlement struct {
	Orders          map[int]ExecutedOrder  `json:"orders"`
	Amms            map[int]AmmUpdate      `json:"amms"`
	RefToken        *common.Address        `json:"refToken"`
	Prices          map[common.Address]U256 `json:"prices"`
	Approvals       []Approval             `json:"approvals"`
	InteractionData []InteractionData      `json:"interactionData"`
}

// EmptySettlement is the no-op result: a round with no viable trade, or an
// idempotency short-circuit. Collections are non-nil so the wire form is
// stable.
func EmptySettlement() Settlement {
	return Settlement{
		Orders:          map[int]ExecutedOrder{},
		Amms:            map[int]AmmUpdate{},
		Prices:          map[common.Address]U256{},
		Approvals:       []Approval{},
		InteractionData: []InteractionData{},
	}
}

// IsEmpty reports whether the settlement executes nothing.
func (s Settlement) IsEmpty() bool {
	return len(s.Orders) == 0 && len(s.Amms) == 0 && len(s.InteractionData) == 0
}

// SettlementRecord is one audit row for a solved auction round.
type SettlementRecord struct {
	ID               string
	Round            string
	RefToken         string
	Settlement       []byte // canonical JSON of the Settlement
	OrderCount       int
	InteractionCount int
	SolvedAt         time.Time
}

// SettlementStore persists solved settlements for audit.
type SettlementStore interface {
	Record(ctx context.Context, rec SettlementRecord) error
	GetByRound(ctx context.Context, round string) (SettlementRecord, error)
	ListRecent(ctx context.Context, limit int) ([]SettlementRecord, error)
}

// AuctionArchiver stores auction inputs and outputs in blob storage.
type AuctionArchiver interface {
	ArchiveInstance(ctx context.Context, round string, auction *BatchAuction) error
	ArchiveSettlement(ctx context.Context, round string, settlement Settlement) error
}
