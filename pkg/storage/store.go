package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/folio-blog/folio/pkg/config"
	"github.com/folio-blog/folio/pkg/utils"
)

// PreferenceStore persists small visitor preferences (currently the theme mode).
// A missing key is reported through found=false, not an error.
type PreferenceStore interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases the backend.
	Close() error
}

// Open creates the preference store selected by cfg.PreferenceStore.
// cfg must already be validated. The badger backend also starts its GC loop, bound to ctx.
func Open(ctx context.Context, cfg *config.AppConfig, logger *logrus.Entry) (PreferenceStore, error) {
	switch cfg.PreferenceStore {
	case config.StoreMemory:
		logger.Info("Using in-memory preference store; preferences are lost on exit")
		return NewMemoryStore(), nil
	case config.StoreRedis:
		logger.Infof("Connecting to Redis preference store")
		return NewRedisStore(ctx, cfg.RedisURL)
	case config.StoreBadger, "":
		store, err := NewBadgerStore(cfg.StateDir, logger)
		if err != nil {
			return nil, err
		}
		go store.RunGC(ctx, cfg.StoreGCInterval)
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown preference store %q", utils.ErrConfigValidation, cfg.PreferenceStore)
	}
}
