package database

import (
	"fmt"

	"rentalhub/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// OpenBackend builds the backend selected by cfg.Driver. rdb is only used by
// the redis driver.
func OpenBackend(cfg config.StorageConfig, rdb *redis.Client, redisCfg config.RedisConfig, logger *zerolog.Logger) (Backend, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryBackend(), nil
	case config.DriverFile:
		backend, err = NewFileBackend(cfg.Path)
	case config.DriverSQLite:
		backend, err = NewSQLiteBackend(cfg.Path, cfg.DocumentName)
	case config.DriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis driver selected but redis is not configured")
		}
		backend = NewRedisBackend(rdb, redisCfg.KeyPrefix+cfg.DocumentName)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.FallbackToMemory {
		logger.Info().Str("driver", cfg.Driver).Msg("Memory fallback enabled for storage")
		return NewFailoverBackend(backend, NewMemoryBackend(), logger), nil
	}
	return backend, nil
}
