package domain

import (
	"encoding/json"
	"fmt"
)

// AuctionResult is the competition outcome reported back for a submitted
// settlement: either a rank (1 means the solver won) or a tagged rejection.
// The solver only logs and forwards it; it never feeds back into solving.
type AuctionResult struct {
	Ranked   *int             `json:"ranked,omitempty"`
	Rejected *RejectionReason `json:"rejected,omitempty"`
}

// Won reports whether the settlement won the auction.
func (r AuctionResult) Won() bool {
	return r.Ranked != nil && *r.Ranked == 1
}

func (r AuctionResult) String() string {
	switch {
	case r.Ranked != nil:
		return fmt.Sprintf("ranked #%d", *r.Ranked)
	case r.Rejected != nil:
		return fmt.Sprintf("rejected: %s", r.Rejected)
	default:
		return "unknown result"
	}
}

// Rejection reason kinds reported by the auctioneer.
const (
	RejectionRunError            = "runError"
	RejectionNoUserOrders        = "noUserOrders"
	RejectionPriceViolation      = "priceViolation"
	RejectionNonBufferableTokens = "nonBufferableTokensUsed"
	RejectionInvalidPlans        = "invalidExecutionPlans"
	RejectionSimulationFailure   = "simulationFailure"
	RejectionNonPositiveScore    = "nonPositiveScore"
	RejectionTooHighScore        = "tooHighScore"
)

// RejectionReason is an externally tagged union: unit variants arrive as a
// bare string ("noUserOrders"), variants with payload as a single-key object
// ({"ranked..." : {...}}). The payload is kept raw; the solver only reports it.
type RejectionReason struct {
	Kind   string
	Detail json.RawMessage
}

func (r *RejectionReason) UnmarshalJSON(data []byte) error {
	// Unit variant.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Kind = s
		r.Detail = nil
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("domain: rejection reason must be a string or object: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("domain: rejection reason must have exactly one tag, got %d", len(obj))
	}
	for kind, detail := range obj {
		r.Kind = kind
		r.Detail = detail
	}
	return nil
}

func (r RejectionReason) MarshalJSON() ([]byte, error) {
	if r.Detail == nil {
		return json.Marshal(r.Kind)
	}
	return json.Marshal(map[string]json.RawMessage{r.Kind: r.Detail})
}

func (r RejectionReason) String() string {
	if r.Detail == nil {
		return r.Kind
	}
	return fmt.Sprintf("%s %s", r.Kind, string(r.Detail))
}
