// Package forgotten хранит признак незавершённого восстановления пароля.
package forgotten

import (
	"context"
	"errors"
	"fmt"

	"walletlock/internal/domain/kv"
)

// Info - запись isForgotten.
type Info struct {
	Status            *bool    `json:"status,omitempty"`
	AddressesToForget []string `json:"addressesToForget,omitempty"`
}

func (i Info) InProgress() bool {
	return i.Status != nil && *i.Status
}

// Started - восстановление начато.
func Started(addresses []string) Info {
	status := true
	return Info{Status: &status, AddressesToForget: append([]string(nil), addresses...)}
}

type Repository interface {
	Load(ctx context.Context) (Info, error)
	Save(ctx context.Context, info Info) error
	Clear(ctx context.Context) error
}

type Repo struct {
	store kv.Store
}

func NewRepo(store kv.Store) *Repo {
	return &Repo{store: store}
}

// Load возвращает пустую запись, если восстановление не начиналось.
func (r *Repo) Load(ctx context.Context) (Info, error) {
	var info Info
	err := kv.GetJSON(ctx, r.store, kv.KeyForgotten, &info)
	if errors.Is(err, kv.ErrNotFound) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("load forgotten info: %w", err)
	}
	return info, nil
}

func (r *Repo) Save(ctx context.Context, info Info) error {
	if err := kv.SetJSON(ctx, r.store, kv.KeyForgotten, info); err != nil {
		return fmt.Errorf("save forgotten info: %w", err)
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, kv.KeyForgotten); err != nil {
		return fmt.Errorf("clear forgotten info: %w", err)
	}
	return nil
}
