package store

import (
	"context"
	"fmt"

	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/cache"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/database"
)

// Open builds the Store selected by the configuration. The returned close
// function releases any connection the driver holds. Redis and PostgreSQL
// stores implement HealthChecker.
func Open(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return NewMemory(), func() {}, nil

	case config.StoreFirebase:
		return NewFirebase(cfg.Store.FirebaseURL, cfg.Store.FirebaseToken, nil), func() {}, nil

	case config.StoreRedis:
		rdb, err := cache.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		return WithHealth(NewRedis(rdb.Client, cfg.Store.KeyPrefix), rdb.Health), func() { rdb.Close() }, nil

	case config.StorePostgres:
		if err := database.RunMigrations(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
		db, err := database.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return WithHealth(NewPostgres(db.Pool), db.Health), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
