package plan

import (
	"errors"
	"testing"

	"github.com/MooMaker/moo-solver/internal/domain"
)

func coords(seq, pos uint32) domain.PlanCoordinates {
	return domain.PlanCoordinates{Sequence: seq, Position: pos}
}

func withPlan(seq, pos uint32) domain.InteractionData {
	return domain.InteractionData{
		ExecPlan: &domain.ExecutionPlan{PlanCoordinates: coords(seq, pos)},
	}
}

func TestAssignFillsMissingPlans(t *testing.T) {
	out, err := Assign([]domain.InteractionData{{}, {}, {}})
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	for i, in := range out {
		if in.ExecPlan == nil {
			t.Fatalf("interaction %d has no plan", i)
		}
		if got, want := in.ExecPlan.PlanCoordinates, coords(0, uint32(i)); got != want {
			t.Errorf("interaction %d plan = %+v, want %+v", i, got, want)
		}
	}
}

func TestAssignSkipsTakenSlots(t *testing.T) {
	out, err := Assign([]domain.InteractionData{
		withPlan(0, 0),
		{},
		withPlan(0, 1),
	})
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	// The implicit interaction must land on the first free slot (0, 2) and
	// sort behind the explicit ones.
	want := []domain.PlanCoordinates{coords(0, 0), coords(0, 1), coords(0, 2)}
	for i, in := range out {
		if got := in.ExecPlan.PlanCoordinates; got != want[i] {
			t.Errorf("position %d plan = %+v, want %+v", i, got, want[i])
		}
	}
}

func TestAssignOrdersBySequenceThenPosition(t *testing.T) {
	out, err := Assign([]domain.InteractionData{
		withPlan(1, 0),
		withPlan(0, 1),
		withPlan(0, 0),
	})
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	want := []domain.PlanCoordinates{coords(0, 0), coords(0, 1), coords(1, 0)}
	for i, in := range out {
		if got := in.ExecPlan.PlanCoordinates; got != want[i] {
			t.Errorf("position %d plan = %+v, want %+v", i, got, want[i])
		}
	}
}

func TestAssignRejectsDuplicates(t *testing.T) {
	_, err := Assign([]domain.InteractionData{
		withPlan(0, 3),
		withPlan(0, 3),
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Assign error = %v, want ErrDuplicate", err)
	}
}

func TestAssignDoesNotMutateInput(t *testing.T) {
	in := []domain.InteractionData{{}}
	if _, err := Assign(in); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if in[0].ExecPlan != nil {
		t.Error("Assign mutated the input slice")
	}
}
