package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"walletlock/internal/domain/autolock"
	"walletlock/internal/domain/broadcast"
	"walletlock/internal/domain/forgotten"
	"walletlock/internal/domain/login"
)

// secondSurface - ещё одна поверхность поверх того же хранилища.
func (f *fixture) secondSurface(origin string) *Controller {
	return NewController(Deps{
		Logins:    f.logins,
		AutoLock:  autolock.NewRepo(f.store, slog.Default()),
		Forgotten: forgotten.NewRepo(f.store),
		Accounts:  stubAccounts{has: true},
		Gate:      f.gate,
		Bus:       f.store,
		Origin:    origin,
		Now:       f.clock.Now,
	}, slog.Default())
}

func TestController_Run_LockFromOtherSurface(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t, stubAccounts{has: true})
	f.saveLogin(t, login.Info{Status: login.StatusSet, LastLoginTime: login.FromTime(f.clock.Now())})

	popup := f.ctrl
	tab := f.secondSurface("tab")

	_, err := popup.Evaluate(ctx)
	require.NoError(t, err)
	_, err = tab.Evaluate(ctx)
	require.NoError(t, err)
	require.False(t, popup.IsLocked())

	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = popup.Run(ctx)
	}()
	<-ready
	// подписка оформляется внутри Run
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, tab.OnLockNow(ctx))

	assert.Eventually(t, popup.IsLocked, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return popup.Step() == StepShowLogin }, time.Second, 5*time.Millisecond)
}

func TestController_Run_ForceReload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t, stubAccounts{has: true})
	f.saveLogin(t, login.Info{Status: login.StatusMaybeLater})

	go func() { _ = f.ctrl.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, f.store.Publish(ctx, broadcast.ForceReload("daemon")))

	assert.Eventually(t, func() bool { return f.ctrl.Step() == StepAskToSetPassword }, time.Second, 5*time.Millisecond)
	assert.False(t, f.ctrl.IsLocked())
}

func TestController_Run_IgnoresUnrelatedKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t, stubAccounts{has: true})
	f.saveLogin(t, login.Info{Status: login.StatusMaybeLater})

	go func() { _ = f.ctrl.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, f.store.Publish(ctx, broadcast.StorageChanged("tab", "currency")))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, StepLoading, f.ctrl.Step())
	assert.True(t, f.ctrl.IsLocked())
}

func TestController_Run_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(t, stubAccounts{has: true})

	done := make(chan error, 1)
	go func() { done <- f.ctrl.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

// closedBus отдаёт подписку, которая обрывается сразу.
type closedBus struct{}

func (closedBus) Publish(context.Context, broadcast.Message) error { return nil }

func (closedBus) Subscribe(context.Context) (<-chan broadcast.Message, error) {
	ch := make(chan broadcast.Message)
	close(ch)
	return ch, nil
}

func TestController_Run_BusClosed(t *testing.T) {
	f := newFixture(t, stubAccounts{has: true})
	f.ctrl.deps.Bus = closedBus{}

	done := make(chan error, 1)
	go func() { done <- f.ctrl.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrBusClosed)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}
