package client

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"walletlock/internal/app/client/config"
	"walletlock/internal/domain/broadcast"
	"walletlock/internal/domain/kv"
	"walletlock/internal/infrastructure/storage/memory"
	"walletlock/internal/infrastructure/storage/postgres"
	"walletlock/internal/infrastructure/storage/redis"
	"walletlock/internal/infrastructure/storage/sqlite"
)

// Backend - общее хранилище вместе с шиной оповещений.
type Backend interface {
	kv.Store
	broadcast.Bus
	Close() error
}

// openBackend выбирает бэкенд по STORE_DRIVER. Локальный SQLite открыт всегда:
// в нём живут счета, и он же служит хранилищем по умолчанию.
func openBackend(ctx context.Context, cfg *config.Config, local *sqlite.Storage, origin string, log *slog.Logger) (Backend, bool, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		return local, false, nil
	case config.DriverMemory:
		return memory.New(origin), true, nil
	case config.DriverRedis:
		s, err := redis.Connect(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, origin, log)
		if err != nil {
			return nil, false, fmt.Errorf("ошибка подключения к redis: %w", err)
		}
		return s, true, nil
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DatabaseURI, origin, log)
		if err != nil {
			return nil, false, fmt.Errorf("ошибка подключения к postgres: %w", err)
		}
		return s, true, nil
	default:
		return nil, false, fmt.Errorf("store_driver %q не поддерживается", cfg.StoreDriver)
	}
}
