// Package client собирает поверхность: хранилище, счета, контроллер сессии
// и восстановление. Каждый процесс CLI и демон - отдельная поверхность.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"walletlock/internal/app/client/config"
	"walletlock/internal/domain/autolock"
	"walletlock/internal/domain/forgotten"
	"walletlock/internal/domain/keyring"
	"walletlock/internal/domain/lock"
	"walletlock/internal/domain/login"
	"walletlock/internal/domain/reset"
	"walletlock/internal/domain/unlock"
	"walletlock/internal/infrastructure/keystore"
	"walletlock/internal/infrastructure/storage/sqlite"
)

type App struct {
	config *config.Config
	log    *slog.Logger
	origin string

	local       *sqlite.Storage
	store       Backend
	closeShared bool

	keystore  *keystore.Keystore
	logins    *login.Manager
	autolock  *autolock.Repo
	forgotten *forgotten.Repo
	gate      *unlock.Gate
	session   *lock.Controller
	reset     *reset.Flow
}

// New открывает хранилища и собирает компоненты. Если хранилище недоступно,
// поверхность не создаётся вовсе: работать без него значило бы открыть кошелёк.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	origin := uuid.NewString()
	log = log.With(slog.String("origin", origin))

	local, err := sqlite.New(cfg.DataPath, origin, cfg.PollInterval, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации локального хранилища: %w", err)
	}

	store, closeShared, err := openBackend(ctx, cfg, local, origin, log)
	if err != nil {
		_ = local.Close()
		return nil, err
	}

	app := &App{
		config:      cfg,
		log:         log,
		origin:      origin,
		local:       local,
		store:       store,
		closeShared: closeShared,
	}
	app.wire()

	log.Debug("surface started", "driver", cfg.StoreDriver, "data", cfg.DataPath)
	return app, nil
}

func (a *App) wire() {
	a.keystore = keystore.New(a.local.DB(), a.log)
	a.logins = login.NewManager(a.store, nil, a.log)
	a.autolock = autolock.NewRepo(a.store, a.log)
	a.forgotten = forgotten.NewRepo(a.store)
	a.gate = unlock.NewGate(a.logins, a.keystore, a.forgotten, a.log)

	a.session = lock.NewController(lock.Deps{
		Logins:    a.logins,
		AutoLock:  a.autolock,
		Forgotten: a.forgotten,
		Accounts:  a.keystore,
		Gate:      a.gate,
		Bus:       a.store,
		Origin:    a.origin,
	}, a.log)

	a.reset = reset.NewFlow(reset.Deps{
		Logins:    a.logins,
		Forgotten: a.forgotten,
		Keyring:   a.keystore,
		Session:   a.session,
		Bus:       a.store,
		Origin:    a.origin,
	}, a.log)
}

func (a *App) Origin() string               { return a.origin }
func (a *App) Config() *config.Config       { return a.config }
func (a *App) Session() *lock.Controller    { return a.session }
func (a *App) Reset() *reset.Flow           { return a.reset }
func (a *App) Logins() *login.Manager       { return a.logins }
func (a *App) AutoLock() *autolock.Repo     { return a.autolock }
func (a *App) Keystore() *keystore.Keystore { return a.keystore }

// Run следует за шиной, пока ctx не отменён.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.session.Evaluate(ctx); err != nil {
		a.log.Warn("initial evaluation failed", "error", err)
	}
	return a.session.Run(ctx)
}

// Status перечитывает хранилище и собирает сводку.
func (a *App) Status(ctx context.Context) (Status, error) {
	if _, err := a.session.Evaluate(ctx); err != nil {
		return Status{Session: a.session.Snapshot()}, err
	}

	st := Status{Session: a.session.Snapshot()}

	rec, err := a.logins.Load(ctx)
	if err != nil {
		return st, err
	}
	if info, ok := rec.Info(); ok {
		st.Initialized = true
		st.LoginStatus = info.Status
		st.LastLoginTime = info.LastLoginTime
		st.Forgetting = info.AddressesToForget
	}

	if st.AutoLock, err = a.autolock.Load(ctx); err != nil {
		return st, err
	}
	if st.HasAccounts, err = a.keystore.HasAnyLocalAccounts(ctx); err != nil {
		return st, err
	}
	pending, err := a.keystore.AccountsPendingMigration(ctx)
	if err != nil {
		return st, err
	}
	st.PendingCount = len(pending)
	return st, nil
}

// SetPassword сохраняет общий пароль. Счета получат его при миграции на следующем входе.
func (a *App) SetPassword(ctx context.Context, password string) error {
	if _, err := a.logins.SetPassword(ctx, password); err != nil {
		return err
	}
	_, err := a.session.Evaluate(ctx)
	return err
}

// AddAccount добавляет счёт. При уже заданном пароле счёт сразу получает его как собственный.
func (a *App) AddAccount(ctx context.Context, address, name, password string) (keyring.Account, error) {
	if address == "" {
		return keyring.Account{}, errors.New("address is required")
	}
	return a.keystore.AddAccount(ctx, address, name, password)
}

func (a *App) Close() error {
	var errs []error
	if a.closeShared {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.local.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Backend отдаёт общее хранилище, например для проверки его доступности.
func (a *App) Backend() Backend { return a.store }
