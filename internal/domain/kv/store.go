// Package kv описывает общее для всех поверхностей долговременное хранилище ключ-значение.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Ключи хранилища. Значения не менять: их читают уже установленные клиенты.
const (
	KeyLoginInfo = "loginInfo"
	KeyAutoLock  = "autoLock"
	KeyForgotten = "isForgotten"
)

var ErrNotFound = errors.New("key not found")

// Store - хранилище, разделяемое всеми открытыми поверхностями.
// Реализация обязана оповещать подписчиков шины об изменении ключа.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// GetJSON читает значение и декодирует его в dst. Отсутствие ключа возвращает ErrNotFound.
func GetJSON(ctx context.Context, s Store, key string, dst any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	return nil
}

// SetJSON кодирует значение и сохраняет его под ключом.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	return s.Set(ctx, key, raw)
}

// ErrUnavailable - хранилище не ответило. Поток останавливается в заблокированном состоянии.
var ErrUnavailable = errors.New("storage unavailable")

// Unavailable оборачивает ошибку бэкенда в ErrUnavailable, сохраняя исходную причину.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
