// Package redis - общее хранилище для поверхностей на разных машинах или в контейнерах.
// Значения лежат под ключами "<prefix>:<key>", сообщения шины идут через PUBLISH.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"

	"walletlock/internal/domain/broadcast"
	"walletlock/internal/domain/kv"
)

const (
	defaultPrefix    = "walletlock"
	subscriberBuffer = 16
)

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Storage struct {
	client *red.Client
	prefix string
	origin string
	log    *slog.Logger
}

// Connect открывает пул соединений и проверяет его ping-ом.
func Connect(ctx context.Context, opts Options, origin string, log *slog.Logger) (*Storage, error) {
	client := red.NewClient(&red.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,

		PoolSize:     10,
		MinIdleConns: 1,
		MaxRetries:   3,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info("redis connection established", "addr", opts.Addr, "db", opts.DB)
	return New(client, opts.Prefix, origin, log), nil
}

func New(client *red.Client, prefix, origin string, log *slog.Logger) *Storage {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Storage{
		client: client,
		prefix: prefix,
		origin: origin,
		log:    log.With(slog.String("component", "redis_storage")),
	}
}

func (s *Storage) key(k string) string {
	return s.prefix + ":" + k
}

func (s *Storage) channel() string {
	return s.prefix + ":events"
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, red.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	payload, err := broadcast.Encode(broadcast.StorageChanged(s.origin, key))
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(p red.Pipeliner) error {
		p.Set(ctx, s.key(key), value, 0)
		p.Publish(ctx, s.channel(), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, s.key(key)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	if n == 0 {
		return nil
	}
	return s.Publish(ctx, broadcast.StorageChanged(s.origin, key))
}

func (s *Storage) Publish(ctx context.Context, msg broadcast.Message) error {
	payload, err := broadcast.Encode(msg)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, s.channel(), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe возвращается только после подтверждения подписки сервером.
func (s *Storage) Subscribe(ctx context.Context) (<-chan broadcast.Message, error) {
	ps := s.client.Subscribe(ctx, s.channel())
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan broadcast.Message, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()

		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}
				msg, err := broadcast.Decode([]byte(raw.Payload))
				if err != nil {
					s.log.Warn("dropping malformed message", "error", err)
					continue
				}
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

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}
