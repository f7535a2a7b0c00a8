// Package sqlite - локальное хранилище в файле SQLite. Поверхности в разных
// процессах видят изменения друг друга через таблицу events.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"walletlock/internal/domain/broadcast"
	"walletlock/internal/domain/kv"
	"walletlock/internal/infrastructure/migration"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	eventRetention      = 10 * time.Minute
	subscriberBuffer    = 16
)

type Storage struct {
	db     *sql.DB
	origin string
	poll   time.Duration
	log    *slog.Logger
	now    func() time.Time
}

// New открывает базу по пути path и накатывает встроенные миграции.
func New(path, origin string, poll time.Duration, log *slog.Logger) (*Storage, error) {
	mg := migration.NewMigration(migration.SchemaSQLite, "sqlite3://"+path, migration.DefaultEngine)
	if err := mg.Up(); err != nil {
		return nil, fmt.Errorf("ошибка миграции базы данных: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}

	if poll <= 0 {
		poll = defaultPollInterval
	}

	return &Storage{
		db:     db,
		origin: origin,
		poll:   poll,
		log:    log.With(slog.String("component", "sqlite_storage")),
		now:    time.Now,
	}, nil
}

// DB отдаёт соединение для хранилища ключей, которое живёт в том же файле.
func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключа %s: %w", key, err)
	}
	return value, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value, s.now().UnixMilli())
		if err != nil {
			return fmt.Errorf("ошибка сохранения ключа %s: %w", key, err)
		}
		return s.insertEvent(ctx, tx, broadcast.StorageChanged(s.origin, key))
	})
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
		if err != nil {
			return fmt.Errorf("ошибка удаления ключа %s: %w", key, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return s.insertEvent(ctx, tx, broadcast.StorageChanged(s.origin, key))
	})
}

func (s *Storage) Publish(ctx context.Context, msg broadcast.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.insertEvent(ctx, tx, msg)
	})
}

// Subscribe опрашивает таблицу events и отдаёт сообщения, появившиеся после подписки.
func (s *Storage) Subscribe(ctx context.Context) (<-chan broadcast.Message, error) {
	var last int64
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) FROM events").Scan(&last); err != nil {
		return nil, fmt.Errorf("ошибка чтения событий: %w", err)
	}

	out := make(chan broadcast.Message, subscriberBuffer)
	go func() {
		defer close(out)

		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			msgs, next, err := s.eventsAfter(ctx, last)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn("poll events failed", "error", err)
				}
				continue
			}
			last = next

			for _, msg := range msgs {
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (s *Storage) eventsAfter(ctx context.Context, after int64) ([]broadcast.Message, int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, kind, key, origin FROM events WHERE id > ? ORDER BY id", after)
	if err != nil {
		return nil, after, err
	}
	defer rows.Close()

	var msgs []broadcast.Message
	last := after
	for rows.Next() {
		var (
			id  int64
			msg broadcast.Message
		)
		if err := rows.Scan(&id, &msg.Kind, &msg.Key, &msg.Origin); err != nil {
			return nil, after, err
		}
		last = id
		msgs = append(msgs, msg)
	}
	return msgs, last, rows.Err()
}

func (s *Storage) insertEvent(ctx context.Context, tx *sql.Tx, msg broadcast.Message) error {
	now := s.now()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO events (kind, key, origin, created_at) VALUES (?, ?, ?, ?)",
		string(msg.Kind), msg.Key, msg.Origin, now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("ошибка записи события: %w", err)
	}

	// старые события уже прочитаны всеми живыми подписчиками
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM events WHERE created_at < ?", now.Add(-eventRetention).UnixMilli(),
	); err != nil {
		return fmt.Errorf("ошибка очистки событий: %w", err)
	}
	return nil
}

func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() error {
	return s.db.Close()
}
