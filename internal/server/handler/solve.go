package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MooMaker/moo-solver/internal/domain"
	"github.com/MooMaker/moo-solver/internal/solver"
)

// SolveHandler serves the solve endpoint: it decodes an auction snapshot,
// runs the settlement pipeline, and records the outcome with the optional
// audit collaborators. Store and archiver failures are logged but never fail
// the response; the settlement is already built and the caller needs it.
type SolveHandler struct {
	solver   *solver.Solver
	store    domain.SettlementStore  // may be nil
	archiver domain.AuctionArchiver  // may be nil
	logger   *slog.Logger
	maxBody  int64
}

// NewSolveHandler creates a SolveHandler. store and archiver are optional.
func NewSolveHandler(s *solver.Solver, store domain.SettlementStore, archiver domain.AuctionArchiver, maxBody int64, logger *slog.Logger) *SolveHandler {
	return &SolveHandler{
		solver:   s,
		store:    store,
		archiver: archiver,
		logger:   logger.With(slog.String("handler", "solve")),
		maxBody:  maxBody,
	}
}

// Solve handles POST /solve.
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var auction domain.BatchAuction
	if err := json.NewDecoder(r.Body).Decode(&auction); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, domain.ErrKindMalformedInput, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, domain.ErrKindMalformedInput, err.Error())
		return
	}
	if err := auction.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrKindMalformedInput, err.Error())
		return
	}

	round := auction.RoundKey()
	if h.archiver != nil {
		if err := h.archiver.ArchiveInstance(ctx, round, &auction); err != nil {
			h.logger.WarnContext(ctx, "failed to archive instance",
				slog.String("round", round),
				slog.String("error", err.Error()),
			)
		}
	}

	settlement, err := h.solver.Solve(ctx, &auction)
	if err != nil {
		h.logger.ErrorContext(ctx, "solve failed",
			slog.String("round", round),
			slog.String("error", err.Error()),
		)
		writeSolveError(w, err)
		return
	}

	if !settlement.IsEmpty() {
		h.recordSettlement(r, round, settlement)
	}

	writeJSON(w, http.StatusOK, settlement)
}

// writeSolveError maps tagged pipeline failures to status codes. Input and
// constraint violations are the caller's fault; pricing and plan failures
// mean the injected decision could not be settled.
func writeSolveError(w http.ResponseWriter, err error) {
	se, ok := domain.AsSolveError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, domain.ErrKindInternal, err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch se.Kind {
	case domain.ErrKindMalformedInput, domain.ErrKindOrderConstraint:
		status = http.StatusBadRequest
	}
	writeError(w, status, se.Kind, se.Description)
}

func (h *SolveHandler) recordSettlement(r *http.Request, round string, settlement domain.Settlement) {
	ctx := r.Context()

	if h.store != nil {
		raw, err := json.Marshal(settlement)
		if err == nil {
			refToken := ""
			if settlement.RefToken != nil {
				refToken = settlement.RefToken.Hex()
			}
			err = h.store.Record(ctx, domain.SettlementRecord{
				Round:            round,
				RefToken:         refToken,
				Settlement:       raw,
				OrderCount:       len(settlement.Orders),
				InteractionCount: len(settlement.InteractionData),
			})
		}
		if err != nil {
			h.logger.WarnContext(ctx, "failed to record settlement",
				slog.String("round", round),
				slog.String("error", err.Error()),
			)
		}
	}

	if h.archiver != nil {
		if err := h.archiver.ArchiveSettlement(ctx, round, settlement); err != nil {
			h.logger.WarnContext(ctx, "failed to archive settlement",
				slog.String("round", round),
				slog.String("error", err.Error()),
			)
		}
	}
}
