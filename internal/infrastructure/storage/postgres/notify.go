package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"walletlock/internal/domain/broadcast"
)

func (s *Storage) Publish(ctx context.Context, msg broadcast.Message) error {
	payload, err := broadcast.Encode(msg)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, s.channel, string(payload)); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Subscribe держит отдельное соединение из пула под LISTEN до отмены ctx.
func (s *Storage) Subscribe(ctx context.Context) (<-chan broadcast.Message, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen conn: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen: %w", err)
	}

	out := make(chan broadcast.Message, subscriberBuffer)
	go func() {
		defer close(out)
		// соединение в состоянии LISTEN не возвращаем в пул
		defer func() { _ = conn.Hijack().Close(context.Background()) }()

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn("wait for notification failed", "error", err)
				}
				return
			}

			msg, err := broadcast.Decode([]byte(n.Payload))
			if err != nil {
				s.log.Warn("dropping malformed notification", "error", err)
				continue
			}

			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
