package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taskboardx/core/internal/infrastructure/config"
	"github.com/taskboardx/core/internal/infrastructure/database"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/ports"
)

// Open connects the backend selected by cfg.Storage.Driver. SQL backends are
// migrated up before use.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.KeyValueStore, error) {
	log = log.WithComponent("storage").WithFields("driver", cfg.Storage.Driver)

	var (
		store ports.KeyValueStore
		err   error
	)

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store = NewMemoryStore()
	case config.DriverFile:
		store, err = NewFileStore(cfg.Storage.Dir)
	case config.DriverPostgres, config.DriverSQLite:
		var db *database.DB
		db, err = database.New(cfg.Storage.Driver, cfg.Database)
		if err != nil {
			break
		}
		if err = db.MigrateUp(); err != nil {
			db.Close()
			break
		}
		store = NewSQLStore(db)
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err = client.Ping(ctx).Err(); err != nil {
			client.Close()
			break
		}
		store = NewRedisStore(client, cfg.Storage.KeyPrefix)
	case config.DriverS3:
		store, err = NewS3Store(ctx, cfg.S3, cfg.Storage.KeyPrefix)
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}

	log.Infow("Storage opened")
	return store, nil
}
