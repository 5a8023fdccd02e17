package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MooMaker/moo-solver/internal/solver"
)

// releaseLua deletes a claim key only if its value matches the token this
// process wrote. Another replica's claim is never released by mistake.
const releaseLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// ExecutionStateStore persists the per-round execution claim in Redis so that
// multiple solver replicas settle each auction round at most once. A claim is
// a SETNX with a TTL; the TTL bounds how long a crashed replica can block the
// round.
type ExecutionStateStore struct {
	rdb       *redis.Client
	releaseSc *redis.Script

	mu     sync.Mutex
	tokens map[string]string
}

// NewExecutionStateStore creates an ExecutionStateStore backed by the given
// Client.
func NewExecutionStateStore(c *Client) *ExecutionStateStore {
	return &ExecutionStateStore{
		rdb:       c.Underlying(),
		releaseSc: redis.NewScript(releaseLua),
		tokens:    make(map[string]string),
	}
}

func claimKey(round string) string {
	return "exec:" + round
}

// Claim attempts to mark the round as executed. It returns true if this caller
// won the claim, false if the round was already claimed. A non-positive ttl
// makes the claim permanent.
func (s *ExecutionStateStore) Claim(ctx context.Context, round string, ttl time.Duration) (bool, error) {
	token := uuid.New().String()

	if ttl < 0 {
		ttl = 0
	}
	ok, err := s.rdb.SetNX(ctx, claimKey(round), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: claim round %s: %w", round, err)
	}
	if ok {
		s.mu.Lock()
		s.tokens[round] = token
		s.mu.Unlock()
	}
	return ok, nil
}

// Release revokes a claim previously won by this store. Claims held by other
// replicas are left untouched.
func (s *ExecutionStateStore) Release(ctx context.Context, round string) error {
	s.mu.Lock()
	token, ok := s.tokens[round]
	delete(s.tokens, round)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	if err := s.releaseSc.Run(ctx, s.rdb, []string{claimKey(round)}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis: release round %s: %w", round, err)
	}
	return nil
}

// Compile-time interface check.
var _ solver.StateStore = (*ExecutionStateStore)(nil)
