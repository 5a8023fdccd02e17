// Package plan assigns and validates execution-plan coordinates across the
// interactions of one settlement. Ordering is safety-critical: an approval
// must precede the call that consumes it, so coordinate collisions are
// rejected rather than silently reordered.
package plan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/MooMaker/moo-solver/internal/domain"
)

// ErrDuplicate means two interactions claim the same (sequence, position).
var ErrDuplicate = errors.New("plan: duplicate execution plan coordinates")

// Assign keeps explicit execution plans and gives every interaction without
// one the next free (sequence 0, position) slot in build order. It then
// verifies that no two interactions share a coordinate and returns the
// interactions ordered by sequence ascending, position ascending.
//
// The input slice is not modified.
func Assign(interactions []domain.InteractionData) ([]domain.InteractionData, error) {
	out := make([]domain.InteractionData, len(interactions))
	copy(out, interactions)

	used := make(map[domain.PlanCoordinates]bool, len(out))
	for _, in := range out {
		if in.ExecPlan == nil {
			continue
		}
		c := in.ExecPlan.PlanCoordinates
		if used[c] {
			return nil, fmt.Errorf("%w: sequence %d position %d", ErrDuplicate, c.Sequence, c.Position)
		}
		used[c] = true
	}

	var position uint32
	for i := range out {
		if out[i].ExecPlan != nil {
			continue
		}
		for used[domain.PlanCoordinates{Sequence: 0, Position: position}] {
			position++
		}
		c := domain.PlanCoordinates{Sequence: 0, Position: position}
		out[i].ExecPlan = &domain.ExecutionPlan{PlanCoordinates: c}
		used[c] = true
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExecPlan.Less(out[j].ExecPlan.PlanCoordinates)
	})

	return out, nil
}
