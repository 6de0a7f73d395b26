package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	appplan "github.com/realtyerp/backend/internal/application/plan"
)

// InMemoryDraftGuard is a process-local draft generation guard for
// single-instance deployments and tests. Reservations expire after the
// TTL so a crashed generation cannot block a milestone forever.
type InMemoryDraftGuard struct {
	mu       sync.Mutex
	reserved map[string]time.Time
	ttl      time.Duration
}

// NewInMemoryDraftGuard creates an in-memory draft generation guard
func NewInMemoryDraftGuard(ttl time.Duration) *InMemoryDraftGuard {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &InMemoryDraftGuard{
		reserved: make(map[string]time.Time),
		ttl:      ttl,
	}
}

func guardKey(flatID uuid.UUID, sequence int) string {
	return fmt.Sprintf("%s:%d", flatID, sequence)
}

// Reserve claims the (flat, milestone sequence) slot.
// Returns false when an unexpired reservation already holds it.
func (g *InMemoryDraftGuard) Reserve(_ context.Context, flatID uuid.UUID, sequence int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := guardKey(flatID, sequence)
	now := time.Now()
	if expiry, ok := g.reserved[key]; ok && now.Before(expiry) {
		return false, nil
	}
	g.reserved[key] = now.Add(g.ttl)
	return true, nil
}

// Release frees the slot
func (g *InMemoryDraftGuard) Release(_ context.Context, flatID uuid.UUID, sequence int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.reserved, guardKey(flatID, sequence))
	return nil
}

// Len returns the number of live reservations (for tests)
func (g *InMemoryDraftGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	n := 0
	for _, expiry := range g.reserved {
		if now.Before(expiry) {
			n++
		}
	}
	return n
}

// Ensure InMemoryDraftGuard implements the guard interface
var _ appplan.GenerationGuard = (*InMemoryDraftGuard)(nil)
