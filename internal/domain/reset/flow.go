// Package reset - восстановление после утраты пароля. Уничтожение счетов необратимо.
package reset

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"walletlock/internal/domain/broadcast"
	"walletlock/internal/domain/forgotten"
	"walletlock/internal/domain/kv"
	"walletlock/internal/domain/lock"
	"walletlock/internal/domain/login"
)

// Acknowledgement - явное согласие пользователя с потерей счетов.
type Acknowledgement struct {
	Understood bool
}

type LoginStore interface {
	Load(ctx context.Context) (login.Record, error)
	StageForget(ctx context.Context, addresses []string) (login.Info, error)
	MarkReset(ctx context.Context) (login.Info, error)
	RestoreAfterCancel(ctx context.Context) (login.Info, error)
}

type AccountRemover interface {
	ForgetAccount(ctx context.Context, address string) (bool, error)
	ForgetAllAccounts(ctx context.Context) (bool, error)
}

// Session - та часть контроллера сессии, которой управляет восстановление.
type Session interface {
	OnForgotPassword(ctx context.Context) error
	EnterResetWizard(ctx context.Context)
	Relock()
	Evaluate(ctx context.Context) (lock.Step, error)
}

type Deps struct {
	Logins    LoginStore
	Forgotten forgotten.Repository
	Keyring   AccountRemover
	Session   Session
	Bus       broadcast.Bus
	Origin    string
}

type Flow struct {
	deps Deps
	log  *slog.Logger
}

func NewFlow(deps Deps, log *slog.Logger) *Flow {
	return &Flow{
		deps: deps,
		log:  log.With(slog.String("component", "reset_flow")),
	}
}

// Begin показывает экран подтверждения. Ничего не сохраняет.
func (f *Flow) Begin(ctx context.Context) error {
	return f.deps.Session.OnForgotPassword(ctx)
}

// Confirm уничтожает все локальные счета и открывает мастер восстановления.
func (f *Flow) Confirm(ctx context.Context, ack Acknowledgement) error {
	if !ack.Understood {
		return ErrNotAcknowledged
	}

	if err := f.deps.Forgotten.Save(ctx, forgotten.Started(nil)); err != nil {
		return &ResetError{Err: kv.Unavailable(err)}
	}

	ok, err := f.deps.Keyring.ForgetAllAccounts(ctx)
	if err != nil || !ok {
		if err == nil {
			err = errors.New("keyring refused to forget accounts")
		}
		f.log.Error("forget all accounts failed", "error", err)

		// хранилище ключей откатило удаление, признак восстановления больше не нужен
		if clearErr := f.deps.Forgotten.Clear(ctx); clearErr != nil {
			f.log.Warn("rollback forgotten info failed", "error", clearErr)
		}
		return &ResetError{Err: err}
	}

	if _, err := f.deps.Logins.MarkReset(ctx); err != nil {
		return &ResetError{Err: kv.Unavailable(err)}
	}

	f.log.Info("all local accounts forgotten")
	f.deps.Session.EnterResetWizard(ctx)
	return nil
}

// Stage помечает часть адресов к удалению. Сессия остаётся закрытой:
// вспомнивший пароль пользователь ещё может войти.
func (f *Flow) Stage(ctx context.Context, addresses []string) error {
	if len(addresses) == 0 {
		return ErrNothingStaged
	}

	if err := f.deps.Forgotten.Save(ctx, forgotten.Started(addresses)); err != nil {
		return kv.Unavailable(err)
	}
	if _, err := f.deps.Logins.StageForget(ctx, addresses); err != nil {
		return kv.Unavailable(err)
	}

	f.log.Info("addresses staged to forget", "count", len(addresses))
	return nil
}

// ConfirmStaged удаляет помеченные адреса по одному. Не удалившиеся адреса
// остаются помеченными, повторный вызов продолжит с них.
func (f *Flow) ConfirmStaged(ctx context.Context, ack Acknowledgement) error {
	if !ack.Understood {
		return ErrNotAcknowledged
	}

	rec, err := f.deps.Logins.Load(ctx)
	if err != nil {
		return kv.Unavailable(err)
	}
	info, ok := rec.Info()
	if !ok || info.Status != login.StatusForgot || len(info.AddressesToForget) == 0 {
		return ErrNothingStaged
	}

	var (
		failed []string
		errs   []error
	)
	for _, addr := range info.AddressesToForget {
		removed, err := f.deps.Keyring.ForgetAccount(ctx, addr)
		if err != nil {
			f.log.Error("forget account failed", "address", addr, "error", err)
			failed = append(failed, addr)
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
			continue
		}
		if !removed {
			f.log.Debug("account already absent", "address", addr)
		}
	}

	if len(failed) > 0 {
		if _, err := f.deps.Logins.StageForget(ctx, failed); err != nil {
			errs = append(errs, kv.Unavailable(err))
		}
		if err := f.deps.Forgotten.Save(ctx, forgotten.Started(failed)); err != nil {
			errs = append(errs, kv.Unavailable(err))
		}
		return &ResetError{Failed: failed, Err: errors.Join(errs...)}
	}

	if err := f.deps.Forgotten.Save(ctx, forgotten.Started(nil)); err != nil {
		return &ResetError{Err: kv.Unavailable(err)}
	}
	if _, err := f.deps.Logins.MarkReset(ctx); err != nil {
		return &ResetError{Err: kv.Unavailable(err)}
	}

	f.log.Info("staged accounts forgotten", "count", len(info.AddressesToForget))
	f.deps.Session.EnterResetWizard(ctx)
	return nil
}

// Finish возвращает к обычной работе после мастера восстановления
// и перезагружает все поверхности.
func (f *Flow) Finish(ctx context.Context) error {
	rec, err := f.deps.Logins.Load(ctx)
	if err != nil {
		return kv.Unavailable(err)
	}
	if info, ok := rec.Info(); !ok || info.Status != login.StatusReset {
		return ErrNotConfirmed
	}

	if err := f.deps.Forgotten.Clear(ctx); err != nil {
		return kv.Unavailable(err)
	}

	f.deps.Session.Relock()

	if f.deps.Bus != nil {
		if err := f.deps.Bus.Publish(ctx, broadcast.ForceReload(f.deps.Origin)); err != nil {
			f.log.Warn("force reload broadcast failed", "error", err)
		}
	}

	f.log.Info("reset finished")
	return nil
}

// Cancel отменяет восстановление, пока счета ещё не уничтожены.
func (f *Flow) Cancel(ctx context.Context) error {
	rec, err := f.deps.Logins.Load(ctx)
	if err != nil {
		return kv.Unavailable(err)
	}
	if info, ok := rec.Info(); ok && info.Status == login.StatusReset {
		return ErrAlreadyConfirmed
	}

	if err := f.deps.Forgotten.Clear(ctx); err != nil {
		return kv.Unavailable(err)
	}
	if _, err := f.deps.Logins.RestoreAfterCancel(ctx); err != nil && !errors.Is(err, login.ErrNotInitialized) {
		return kv.Unavailable(err)
	}

	_, err = f.deps.Session.Evaluate(ctx)
	return err
}
