// Package broadcast - типизированная шина сообщений между поверхностями.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
)

type Kind string

const (
	// KindLockedAccountsExpired - сессия заблокирована на другой поверхности.
	KindLockedAccountsExpired Kind = "locked-accounts-expired"
	// KindStorageChanged - ключ хранилища перезаписан.
	KindStorageChanged Kind = "storage-changed"
	// KindForceReload - все поверхности должны перечитать состояние.
	KindForceReload Kind = "force-reload"
)

// Message - одно сообщение шины. Key заполнен только для KindStorageChanged.
type Message struct {
	Kind   Kind   `json:"kind"`
	Key    string `json:"key,omitempty"`
	Origin string `json:"origin,omitempty"`
}

func LockedAccountsExpired(origin string) Message {
	return Message{Kind: KindLockedAccountsExpired, Origin: origin}
}

func StorageChanged(origin, key string) Message {
	return Message{Kind: KindStorageChanged, Key: key, Origin: origin}
}

func ForceReload(origin string) Message {
	return Message{Kind: KindForceReload, Origin: origin}
}

// Validate проверяет, что сообщение относится к известному виду.
func (m Message) Validate() error {
	switch m.Kind {
	case KindLockedAccountsExpired, KindForceReload:
		return nil
	case KindStorageChanged:
		if m.Key == "" {
			return fmt.Errorf("storage-changed without key")
		}
		return nil
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
}

// Encode и Decode используются бэкендами, которые передают сообщения как строки.
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func Decode(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Bus - широковещательный канал "лучшей попытки". Доставка не гарантирована,
// поэтому получатель всегда перечитывает состояние из хранилища.
type Bus interface {
	Publish(ctx context.Context, msg Message) error
	// Subscribe возвращает канал, который закрывается при отмене ctx.
	Subscribe(ctx context.Context) (<-chan Message, error)
}
