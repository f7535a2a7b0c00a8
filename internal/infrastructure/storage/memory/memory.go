// Package memory - хранилище и шина в памяти процесса. Используется в тестах
// и при STORE_DRIVER=memory, когда все поверхности живут в одном процессе.
package memory

import (
	"context"
	"sync"

	"walletlock/internal/domain/broadcast"
	"walletlock/internal/domain/kv"
)

const subscriberBuffer = 16

type Storage struct {
	origin string

	mu     sync.RWMutex
	values map[string][]byte

	subMu sync.Mutex
	subs  map[chan broadcast.Message]struct{}
}

func New(origin string) *Storage {
	return &Storage{
		origin: origin,
		values: make(map[string][]byte),
		subs:   make(map[chan broadcast.Message]struct{}),
	}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, kv.ErrNotFound
	}

	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v := make([]byte, len(value))
	copy(v, value)

	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()

	return s.Publish(ctx, broadcast.StorageChanged(s.origin, key))
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	_, existed := s.values[key]
	delete(s.values, key)
	s.mu.Unlock()

	if !existed {
		return nil
	}
	return s.Publish(ctx, broadcast.StorageChanged(s.origin, key))
}

// Publish доставляет сообщение всем подписчикам. Медленный подписчик теряет сообщение.
func (s *Storage) Publish(_ context.Context, msg broadcast.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.Origin == "" {
		msg.Origin = s.origin
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func (s *Storage) Subscribe(ctx context.Context) (<-chan broadcast.Message, error) {
	ch := make(chan broadcast.Message, subscriberBuffer)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.subMu.Unlock()
	}()

	return ch, nil
}

func (s *Storage) Close() error {
	return nil
}
