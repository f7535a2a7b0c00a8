// Package lock - контроллер сессии одной поверхности: решает, заблокирован ли
// кошелёк, и сводит все поверхности к одному состоянию через общее хранилище.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slog"

	"walletlock/internal/domain/autolock"
	"walletlock/internal/domain/broadcast"
	"walletlock/internal/domain/forgotten"
	"walletlock/internal/domain/kv"
	"walletlock/internal/domain/login"
	"walletlock/internal/domain/unlock"
)

type LoginStore interface {
	Load(ctx context.Context) (login.Record, error)
	InitFirstRun(ctx context.Context) (login.Info, error)
	Touch(ctx context.Context) (login.Info, error)
	Expire(ctx context.Context, period time.Duration) (login.Info, error)
}

type AutoLockSource interface {
	Load(ctx context.Context) (autolock.Config, error)
}

type ForgottenSource interface {
	Load(ctx context.Context) (forgotten.Info, error)
}

type AccountChecker interface {
	HasAnyLocalAccounts(ctx context.Context) (bool, error)
}

type Unlocker interface {
	Resolve(ctx context.Context, password string) (unlock.Result, error)
	Migrate(ctx context.Context, password string) error
}

type Deps struct {
	Logins    LoginStore
	AutoLock  AutoLockSource
	Forgotten ForgottenSource
	Accounts  AccountChecker
	Gate      Unlocker
	Bus       broadcast.Bus
	// Origin - идентификатор поверхности в сообщениях шины.
	Origin string
	Now    func() time.Time
	// OnChange вызывается после каждого изменения состояния, вне блокировки.
	OnChange func(State)
}

type Controller struct {
	deps Deps
	log  *slog.Logger

	mu       sync.RWMutex
	state    State
	inflight atomic.Bool
}

// NewController создаёт закрытую сессию: до первой оценки содержимое не показывается.
func NewController(deps Deps, log *slog.Logger) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Controller{
		deps:  deps,
		log:   log.With(slog.String("component", "lock_controller"), slog.String("origin", deps.Origin)),
		state: State{Locked: true, Step: StepLoading},
	}
}

func (c *Controller) IsLocked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Locked
}

func (c *Controller) Step() Step {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Step
}

func (c *Controller) PasswordError() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.PasswordError
}

func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) apply(fn func(s *State)) {
	c.mu.Lock()
	before := c.state
	fn(&c.state)
	after := c.state
	c.mu.Unlock()

	if before != after && c.deps.OnChange != nil {
		c.deps.OnChange(after)
	}
}

func (c *Controller) set(locked bool, step Step) {
	c.apply(func(s *State) {
		s.Locked = locked
		s.Step = step
		if !locked {
			s.PasswordError = false
		}
	})
}

// Evaluate перечитывает хранилище и выбирает экран. При любой ошибке сессия остаётся закрытой.
func (c *Controller) Evaluate(ctx context.Context) (Step, error) {
	d, err := c.evaluate(ctx)
	if err != nil {
		c.log.Error("session evaluation failed", "error", err)
		c.set(true, StepError)
		return StepError, err
	}

	c.set(d.locked, d.step)
	c.log.Debug("session evaluated", "locked", d.locked, "step", d.step.String())
	return d.step, nil
}

func (c *Controller) evaluate(ctx context.Context) (decision, error) {
	rec, err := c.deps.Logins.Load(ctx)
	if err != nil {
		return decision{}, kv.Unavailable(err)
	}

	info, ok := rec.Info()
	if !ok {
		// первая установка: решаем по только что записанной записи, как при любой следующей оценке
		if info, err = c.deps.Logins.InitFirstRun(ctx); err != nil {
			return decision{}, kv.Unavailable(err)
		}
	}

	var (
		period   time.Duration
		periodOK bool
		fi       forgotten.Info
	)
	switch info.Status {
	case login.StatusSet:
		cfg, err := c.deps.AutoLock.Load(ctx)
		if err != nil {
			return decision{}, kv.Unavailable(err)
		}
		period, periodOK = autolock.EffectiveLockPeriod(&cfg)
	case login.StatusReset:
		fi, err = c.deps.Forgotten.Load(ctx)
		if err != nil {
			return decision{}, kv.Unavailable(err)
		}
	}

	d := decide(info, fi, period, periodOK, c.deps.Now())
	if !d.locked {
		return d, nil
	}

	has, err := c.deps.Accounts.HasAnyLocalAccounts(ctx)
	if err != nil {
		return decision{}, kv.Unavailable(fmt.Errorf("check local accounts: %w", err))
	}
	if !has {
		return decision{locked: false, step: StepNoAccounts}, nil
	}
	return d, nil
}

// SetExtensionLock - единственный сеттер флага. true блокирует сессию немедленно,
// false открывает её и сохраняет время входа.
func (c *Controller) SetExtensionLock(ctx context.Context, locked bool) error {
	if locked {
		return c.OnLockNow(ctx)
	}

	if _, err := c.deps.Logins.Touch(ctx); err != nil && !errors.Is(err, login.ErrNotInitialized) {
		c.set(true, StepError)
		return kv.Unavailable(err)
	}
	c.set(false, StepNoLoginPeriod)
	return nil
}

// OnLockNow блокирует сессию и оповещает остальные поверхности. Повторный вызов безопасен.
// Без пароля время входа не переписывается: закрытие держится до следующей оценки.
func (c *Controller) OnLockNow(ctx context.Context) error {
	rec, err := c.deps.Logins.Load(ctx)
	if err != nil {
		c.set(true, StepError)
		return kv.Unavailable(err)
	}

	if info, ok := rec.Info(); ok && info.Status == login.StatusSet {
		cfg, err := c.deps.AutoLock.Load(ctx)
		if err != nil {
			c.set(true, StepShowLogin)
			return kv.Unavailable(err)
		}

		period, ok := autolock.EffectiveLockPeriod(&cfg)
		if !ok || period < autolock.DefaultLockPeriod {
			period = autolock.DefaultLockPeriod
		}
		if _, err := c.deps.Logins.Expire(ctx, period); err != nil {
			c.set(true, StepShowLogin)
			return kv.Unavailable(err)
		}
	}

	c.set(true, StepShowLogin)
	c.log.Info("session locked")

	if c.deps.Bus != nil {
		if err := c.deps.Bus.Publish(ctx, broadcast.LockedAccountsExpired(c.deps.Origin)); err != nil {
			c.log.Warn("lock broadcast failed", "error", err)
		}
	}
	return nil
}

// OnPasswordSubmit проверяет пароль. Пока проверка идёт, повторный вызов ничего не делает.
func (c *Controller) OnPasswordSubmit(ctx context.Context, password string) (unlock.Result, error) {
	if !c.inflight.CompareAndSwap(false, true) {
		return unlock.WrongPassword, ErrUnlockInProgress
	}
	defer c.inflight.Store(false)

	res, err := c.deps.Gate.Resolve(ctx, password)
	if err != nil {
		c.log.Error("unlock failed", "error", err)
		c.set(true, StepError)
		return unlock.WrongPassword, err
	}

	switch res {
	case unlock.Unlocked:
		c.set(false, StepNoLoginPeriod)
		c.log.Info("session unlocked")
	case unlock.NeedsMigration:
		c.apply(func(s *State) {
			s.Locked = true
			s.Step = StepMigratePassword
			s.PasswordError = false
		})
	default:
		c.apply(func(s *State) {
			s.Locked = true
			s.PasswordError = true
		})
	}
	return res, nil
}

// OnMigrate выполняет переход на пароли счетов и открывает сессию.
func (c *Controller) OnMigrate(ctx context.Context, password string) error {
	if !c.inflight.CompareAndSwap(false, true) {
		return ErrUnlockInProgress
	}
	defer c.inflight.Store(false)

	err := c.deps.Gate.Migrate(ctx, password)
	switch {
	case err == nil:
		c.set(false, StepNoLoginPeriod)
		c.log.Info("session unlocked after migration")
		return nil
	case errors.Is(err, unlock.ErrWrongPassword):
		c.apply(func(s *State) {
			s.Locked = true
			s.PasswordError = true
		})
	default:
		c.log.Error("migration failed", "error", err)
		c.set(true, StepError)
	}
	return err
}

// OnForgotPassword переводит интерфейс к экрану подтверждения сброса.
func (c *Controller) OnForgotPassword(_ context.Context) error {
	c.apply(func(s *State) {
		s.Step = StepForgotPassword
	})
	return nil
}

// EnterResetWizard открывает сессию для мастера восстановления после уничтожения счетов.
func (c *Controller) EnterResetWizard(_ context.Context) {
	c.set(false, StepResetWizard)
}

// Relock закрывает сессию до следующей оценки.
func (c *Controller) Relock() {
	c.set(true, StepLoading)
}

// Run следует за шиной до отмены ctx. Обрыв подписки раньше отмены - ошибка ErrBusClosed.
func (c *Controller) Run(ctx context.Context) error {
	if c.deps.Bus == nil {
		<-ctx.Done()
		return nil
	}

	ch, err := c.deps.Bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrBusClosed
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Controller) handle(ctx context.Context, msg broadcast.Message) {
	own := msg.Origin != "" && msg.Origin == c.deps.Origin

	switch msg.Kind {
	case broadcast.KindStorageChanged:
		if own || !relevantKey(msg.Key) {
			return
		}
	case broadcast.KindLockedAccountsExpired:
		if own {
			return
		}
		// замок поставлен на другой поверхности: закрываемся сразу, не доверяя памяти
		c.set(true, StepShowLogin)
	case broadcast.KindForceReload:
	default:
		return
	}

	c.log.Debug("reloading session", "kind", string(msg.Kind), "from", msg.Origin)
	_, _ = c.Evaluate(ctx)
}

func relevantKey(key string) bool {
	switch key {
	case kv.KeyLoginInfo, kv.KeyAutoLock, kv.KeyForgotten:
		return true
	}
	return false
}
