// Package login управляет жизненным циклом записи loginInfo.
package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"walletlock/internal/domain/kv"
)

// Repository - то, что нужно контроллеру и шлюзу разблокировки.
type Repository interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, info Info) error
}

type Manager struct {
	store kv.Store
	now   func() time.Time
	log   *slog.Logger
}

func NewManager(store kv.Store, now func() time.Time, log *slog.Logger) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store: store,
		now:   now,
		log:   log,
	}
}

func (m *Manager) Load(ctx context.Context) (Record, error) {
	var info Info
	err := kv.GetJSON(ctx, m.store, kv.KeyLoginInfo, &info)
	if errors.Is(err, kv.ErrNotFound) {
		return NotInitialized(), nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("load login info: %w", err)
	}
	return Initialized(info), nil
}

func (m *Manager) Save(ctx context.Context, info Info) error {
	if !info.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, info.Status)
	}
	if err := kv.SetJSON(ctx, m.store, kv.KeyLoginInfo, info); err != nil {
		return fmt.Errorf("save login info: %w", err)
	}
	return nil
}

// update читает запись, применяет fn и сохраняет результат.
// Транзакций нет: при гонке поверхностей выигрывает последняя запись.
func (m *Manager) update(ctx context.Context, fn func(info *Info, initialized bool) error) (Info, error) {
	rec, err := m.Load(ctx)
	if err != nil {
		return Info{}, err
	}

	info, initialized := rec.Info()
	if err := fn(&info, initialized); err != nil {
		return Info{}, err
	}

	if err := m.Save(ctx, info); err != nil {
		return Info{}, err
	}
	return info, nil
}

func (m *Manager) setStatus(ctx context.Context, status Status) (Info, error) {
	return m.update(ctx, func(info *Info, _ bool) error {
		info.Status = status
		info.LastLoginTime = FromTime(m.now())
		return nil
	})
}

// InitFirstRun создаёт запись при первом запуске.
func (m *Manager) InitFirstRun(ctx context.Context) (Info, error) {
	info := Info{
		Status:        StatusMaybeLater,
		LastLoginTime: FromTime(m.now()),
	}
	if err := m.Save(ctx, info); err != nil {
		return Info{}, err
	}
	m.log.Info("first run, password decision deferred")
	return info, nil
}

// Defer откладывает решение о пароле.
func (m *Manager) Defer(ctx context.Context) (Info, error) {
	return m.setStatus(ctx, StatusMaybeLater)
}

// Decline - пользователь отказался от пароля, расширение не блокируется.
func (m *Manager) Decline(ctx context.Context) (Info, error) {
	return m.setStatus(ctx, StatusNoLogin)
}

// SetPassword сохраняет общий пароль. Счета получат собственные пароли при миграции.
func (m *Manager) SetPassword(ctx context.Context, password string) (Info, error) {
	if password == "" {
		return Info{}, ErrEmptyPassword
	}

	return m.update(ctx, func(info *Info, _ bool) error {
		now := FromTime(m.now())
		info.Status = StatusJustSet
		info.HashedPassword = HashPassword(password)
		info.LastEdit = now
		info.LastLoginTime = now
		return nil
	})
}

// Touch фиксирует успешную разблокировку.
func (m *Manager) Touch(ctx context.Context) (Info, error) {
	return m.update(ctx, func(info *Info, initialized bool) error {
		if !initialized {
			return ErrNotInitialized
		}
		info.LastLoginTime = FromTime(m.now())
		if info.Status == StatusJustSet || info.Status == StatusForgot {
			info.Status = StatusSet
			info.AddressesToForget = nil
		}
		return nil
	})
}

// Expire сдвигает lastLoginTime так, что период бездействия уже истёк.
func (m *Manager) Expire(ctx context.Context, period time.Duration) (Info, error) {
	return m.update(ctx, func(info *Info, initialized bool) error {
		if !initialized {
			return ErrNotInitialized
		}
		info.LastLoginTime = FromTime(m.now().Add(-period - time.Millisecond))
		return nil
	})
}

// MarkMigrated завершает переход на пароли счетов.
func (m *Manager) MarkMigrated(ctx context.Context) (Info, error) {
	return m.update(ctx, func(info *Info, _ bool) error {
		now := FromTime(m.now())
		info.Status = StatusSet
		info.HashedPassword = ""
		info.AddressesToForget = nil
		info.LastLoginTime = now
		info.LastEdit = now
		return nil
	})
}

// StageForget помечает адреса к удалению.
func (m *Manager) StageForget(ctx context.Context, addresses []string) (Info, error) {
	return m.update(ctx, func(info *Info, _ bool) error {
		info.Status = StatusForgot
		info.AddressesToForget = append([]string(nil), addresses...)
		return nil
	})
}

// MarkReset фиксирует уничтожение счетов: onboarding начнётся заново.
func (m *Manager) MarkReset(ctx context.Context) (Info, error) {
	return m.update(ctx, func(info *Info, _ bool) error {
		info.Status = StatusReset
		info.HashedPassword = ""
		info.AddressesToForget = nil
		info.LastEdit = FromTime(m.now())
		return nil
	})
}

// RestoreAfterCancel возвращает статус set после отмены восстановления.
func (m *Manager) RestoreAfterCancel(ctx context.Context) (Info, error) {
	return m.update(ctx, func(info *Info, initialized bool) error {
		if !initialized {
			return ErrNotInitialized
		}
		if info.Status == StatusForgot {
			info.Status = StatusSet
		}
		info.AddressesToForget = nil
		return nil
	})
}
