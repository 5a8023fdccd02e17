package solver

import (
	"context"
	"sync"
	"time"
)

// StateStore tracks per-round execution state for the idempotency guard.
// Claim is the single serialization point of the pipeline: of all concurrent
// solve requests for one round, exactly one observes the pending-to-executed
// transition and receives the real settlement.
type StateStore interface {
	// Claim atomically transitions the round from pending to executed and
	// reports whether the caller won the transition. A zero ttl means the
	// executed state never expires.
	Claim(ctx context.Context, round string, ttl time.Duration) (bool, error)

	// Release returns a claimed round to pending. Called when a build fails
	// after claiming, so a later request can retry the round.
	Release(ctx context.Context, round string) error
}

// Guard is the in-process StateStore: a mutex-protected map from round key
// to expiry. Rounds are independent, so unrelated auctions never block each
// other, and expired entries are reclaimed by Cleanup.
type Guard struct {
	mu       sync.Mutex
	executed map[string]time.Time // round -> expiry; zero time means never
	now      func() time.Time
}

// NewGuard creates an empty Guard.
func NewGuard() *Guard {
	return &Guard{
		executed: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Claim implements StateStore. The read-modify-write runs under the mutex so
// concurrent claims for one round are strictly serialized.
func (g *Guard) Claim(ctx context.Context, round string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expiry, ok := g.executed[round]; ok {
		if expiry.IsZero() || now.Before(expiry) {
			return false, nil
		}
	}

	if ttl > 0 {
		g.executed[round] = now.Add(ttl)
	} else {
		g.executed[round] = time.Time{}
	}
	return true, nil
}

// Release implements StateStore.
func (g *Guard) Release(ctx context.Context, round string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.executed, round)
	return nil
}

// Cleanup drops expired entries. Call periodically to bound memory.
func (g *Guard) Cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for round, expiry := range g.executed {
		if !expiry.IsZero() && !now.Before(expiry) {
			delete(g.executed, round)
		}
	}
}

var _ StateStore = (*Guard)(nil)
