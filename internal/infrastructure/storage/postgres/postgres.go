package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"walletlock/internal/infrastructure/migration"
)

const (
	defaultChannel   = "walletlock_events"
	subscriberBuffer = 16
)

type Storage struct {
	pool    *pgxpool.Pool
	origin  string
	channel string
	log     *slog.Logger
}

// New накатывает миграции и открывает пул соединений.
func New(ctx context.Context, databaseURI, origin string, log *slog.Logger) (*Storage, error) {
	mg := migration.NewMigration(migration.SchemaPostgres, databaseURI, migration.DefaultEngine)
	if err := mg.Up(); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURI)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	return &Storage{
		pool:    pool,
		origin:  origin,
		channel: defaultChannel,
		log:     log.With(slog.String("component", "postgres_storage")),
	}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}
