package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Flarenzy/keygate/internal/auth"
	"github.com/Flarenzy/keygate/internal/cache"
	appdb "github.com/Flarenzy/keygate/internal/db"
	sqlcdb "github.com/Flarenzy/keygate/internal/db/sqlc"
	"github.com/Flarenzy/keygate/internal/db/sqlite"
	"github.com/Flarenzy/keygate/internal/domain"
	apihttp "github.com/Flarenzy/keygate/internal/http"
	"github.com/Flarenzy/keygate/internal/keyfile"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// backend is the storage side of the service. keys is nil for read-only
// stores such as the key file.
type backend struct {
	store  auth.KeyStore
	keys   domain.KeyRepository
	health apihttp.HealthChecker
	close  func()
}

func openBackend(ctx context.Context, cfg Config) (backend, error) {
	switch cfg.KeyStore {
	case StorePostgres, "":
		pool, err := appdb.NewPool(ctx, cfg.DSN)
		if err != nil {
			return backend{}, err
		}
		repo := appdb.NewKeyRepository(sqlcdb.New(pool))
		return backend{
			store:  domain.NewKeyStore(repo),
			keys:   repo,
			health: pool,
			close:  pool.Close,
		}, nil

	case StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return backend{}, err
		}
		repo, err := sqlite.NewKeyRepository(db)
		if err != nil {
			return backend{}, err
		}
		return backend{
			store:  domain.NewKeyStore(repo),
			keys:   repo,
			health: gormHealth{db: db},
			close:  func() { closeGorm(db) },
		}, nil

	case StoreFile:
		store, err := keyfile.Load(cfg.KeyFile)
		if err != nil {
			return backend{}, err
		}
		return backend{store: store, close: func() {}}, nil

	default:
		return backend{}, fmt.Errorf("unknown key store %q", cfg.KeyStore)
	}
}

type gormHealth struct {
	db *gorm.DB
}

func (h gormHealth) Ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func closeGorm(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// withCache puts Redis in front of store when an address is configured.
// An unreachable Redis at startup is logged, not fatal: lookups fall
// through to the store until it comes back.
func withCache(ctx context.Context, cfg Config, logger *slog.Logger, store auth.KeyStore) (auth.KeyStore, domain.CacheInvalidator, func(), error) {
	if cfg.RedisAddr == "" {
		return store, nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WarnContext(ctx, "redis unreachable, continuing without warm cache", "addr", cfg.RedisAddr, "err", err.Error())
	}

	cached, err := cache.NewKeyStore(client, store, logger, cache.Options{TTL: cfg.CacheTTL})
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, err
	}
	return cached, cached, func() { _ = client.Close() }, nil
}
