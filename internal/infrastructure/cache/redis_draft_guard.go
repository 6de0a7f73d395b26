package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	appplan "github.com/realtyerp/backend/internal/application/plan"
	"github.com/redis/go-redis/v9"
)

// RedisDraftGuard is a Redis-backed reservation for draft generation,
// suitable for deployments running more than one instance. It is an
// advisory fast path in front of the storage-level conditional insert:
// losing a reservation means another caller is already generating the
// same draft, so the loser can back off without touching the database.
type RedisDraftGuard struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisDraftGuard creates a Redis-backed draft generation guard
func NewRedisDraftGuard(cfg RedisConfig, ttl time.Duration) (*RedisDraftGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDraftGuardWithClient(client, "", ttl), nil
}

// NewRedisDraftGuardWithClient creates a guard with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisDraftGuardWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisDraftGuard {
	if keyPrefix == "" {
		keyPrefix = "draft:guard:"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisDraftGuard{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (g *RedisDraftGuard) key(flatID uuid.UUID, sequence int) string {
	return fmt.Sprintf("%s%s:%d", g.keyPrefix, flatID, sequence)
}

// Reserve claims the (flat, milestone sequence) slot with a TTL.
// Returns false when another caller already holds it.
// SETNX makes the check and the claim a single atomic operation.
func (g *RedisDraftGuard) Reserve(ctx context.Context, flatID uuid.UUID, sequence int) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(flatID, sequence), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve draft slot: %w", err)
	}
	return ok, nil
}

// Release frees the slot after a failed generation so a later attempt
// does not have to wait for the TTL.
func (g *RedisDraftGuard) Release(ctx context.Context, flatID uuid.UUID, sequence int) error {
	return g.client.Del(ctx, g.key(flatID, sequence)).Err()
}

// Close closes the Redis client
func (g *RedisDraftGuard) Close() error {
	return g.client.Close()
}

// Ensure RedisDraftGuard implements the guard interface
var _ appplan.GenerationGuard = (*RedisDraftGuard)(nil)
