package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MooMaker/moo-solver/internal/domain"
)

// ErrNotFound is returned when no settlement exists for the requested round.
var ErrNotFound = errors.New("postgres: settlement not found")

// SettlementStore implements domain.SettlementStore using PostgreSQL.
type SettlementStore struct {
	pool *pgxpool.Pool
}

// NewSettlementStore creates a new SettlementStore backed by the given
// connection pool.
func NewSettlementStore(pool *pgxpool.Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

const settlementSelectCols = `id, round, ref_token, settlement, order_count,
	interaction_count, solved_at`

func scanSettlementRows(rows pgx.Rows) ([]domain.SettlementRecord, error) {
	var recs []domain.SettlementRecord
	for rows.Next() {
		var rec domain.SettlementRecord
		if err := rows.Scan(
			&rec.ID, &rec.Round, &rec.RefToken, &rec.Settlement,
			&rec.OrderCount, &rec.InteractionCount, &rec.SolvedAt,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Record inserts one audit row for a solved round. A round solved again after
// a claim expiry overwrites the previous row; the latest settlement wins.
func (s *SettlementStore) Record(ctx context.Context, rec domain.SettlementRecord) error {
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	solvedAt := rec.SolvedAt
	if solvedAt.IsZero() {
		solvedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO settlements (
			id, round, ref_token, settlement,
			order_count, interaction_count, solved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (round) DO UPDATE SET
			id = EXCLUDED.id,
			ref_token = EXCLUDED.ref_token,
			settlement = EXCLUDED.settlement,
			order_count = EXCLUDED.order_count,
			interaction_count = EXCLUDED.interaction_count,
			solved_at = EXCLUDED.solved_at`

	if _, err := s.pool.Exec(ctx, query,
		id, rec.Round, rec.RefToken, rec.Settlement,
		rec.OrderCount, rec.InteractionCount, solvedAt,
	); err != nil {
		return fmt.Errorf("postgres: record settlement for round %s: %w", rec.Round, err)
	}
	return nil
}

// GetByRound returns the settlement recorded for a round, or ErrNotFound.
func (s *SettlementStore) GetByRound(ctx context.Context, round string) (domain.SettlementRecord, error) {
	query := `SELECT ` + settlementSelectCols + ` FROM settlements WHERE round = $1`

	rows, err := s.pool.Query(ctx, query, round)
	if err != nil {
		return domain.SettlementRecord{}, fmt.Errorf("postgres: get settlement for round %s: %w", round, err)
	}
	defer rows.Close()

	recs, err := scanSettlementRows(rows)
	if err != nil {
		return domain.SettlementRecord{}, fmt.Errorf("postgres: scan settlement for round %s: %w", round, err)
	}
	if len(recs) == 0 {
		return domain.SettlementRecord{}, ErrNotFound
	}
	return recs[0], nil
}

// ListRecent returns the most recently solved settlements, newest first.
func (s *SettlementStore) ListRecent(ctx context.Context, limit int) ([]domain.SettlementRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + settlementSelectCols + ` FROM settlements
		ORDER BY solved_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent settlements: %w", err)
	}
	defer rows.Close()

	recs, err := scanSettlementRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan recent settlements: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.SettlementStore = (*SettlementStore)(nil)
