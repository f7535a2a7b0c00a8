package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"walletlock/internal/domain/broadcast"
	"walletlock/internal/domain/kv"
)

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Set пишет значение и уведомление в одной транзакции: NOTIFY доставляется при коммите.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	payload, err := broadcast.Encode(broadcast.StorageChanged(s.origin, key))
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
			key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, s.channel, string(payload)); err != nil {
			return fmt.Errorf("notify %s: %w", key, err)
		}
		return nil
	})
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	payload, err := broadcast.Encode(broadcast.StorageChanged(s.origin, key))
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM kv WHERE key = $1`, key)
		if err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, s.channel, string(payload)); err != nil {
			return fmt.Errorf("notify %s: %w", key, err)
		}
		return nil
	})
}
