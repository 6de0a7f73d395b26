package cache

import (
	"time"

	appplan "github.com/realtyerp/backend/internal/application/plan"
	"github.com/realtyerp/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewDraftGuard returns the appropriate draft generation guard for the
// deployment: Redis when configured, otherwise in-memory. A Redis
// connection failure degrades to the in-memory guard instead of failing
// startup; the storage-level conditional insert still holds either way.
func NewDraftGuard(cfg *config.Config, logger *zap.Logger) appplan.GenerationGuard {
	ttl := cfg.Draft.GuardTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	if cfg.Redis.Enabled {
		guard, err := NewRedisDraftGuard(RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, ttl)
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory draft guard",
				zap.String("addr", cfg.Redis.Addr()),
				zap.Error(err),
			)
			return NewInMemoryDraftGuard(ttl)
		}
		logger.Info("using redis draft generation guard",
			zap.String("addr", cfg.Redis.Addr()),
		)
		return guard
	}

	return NewInMemoryDraftGuard(ttl)
}
