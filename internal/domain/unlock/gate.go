// Package unlock решает, открывает ли введённый пароль кошелёк напрямую,
// требует ли перехода со старого общего пароля или неверен.
package unlock

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"walletlock/internal/domain/keyring"
	"walletlock/internal/domain/kv"
	"walletlock/internal/domain/login"
)

type Result int

const (
	WrongPassword Result = iota
	Unlocked
	NeedsMigration
)

func (r Result) String() string {
	switch r {
	case Unlocked:
		return "unlocked"
	case NeedsMigration:
		return "needs-migration"
	default:
		return "wrong-password"
	}
}

// MigrationState вычисляется один раз на каждую попытку.
type MigrationState int

const (
	Migrated MigrationState = iota
	PartiallyMigrated
	Unmigrated
)

func (s MigrationState) String() string {
	switch s {
	case Migrated:
		return "migrated"
	case PartiallyMigrated:
		return "partially-migrated"
	default:
		return "unmigrated"
	}
}

type LoginStore interface {
	Load(ctx context.Context) (login.Record, error)
	Touch(ctx context.Context) (login.Info, error)
	MarkMigrated(ctx context.Context) (login.Info, error)
}

type ForgottenStore interface {
	Clear(ctx context.Context) error
}

type Gate struct {
	logins    LoginStore
	keyring   keyring.Keyring
	forgotten ForgottenStore
	log       *slog.Logger
}

func NewGate(logins LoginStore, kr keyring.Keyring, forgotten ForgottenStore, log *slog.Logger) *Gate {
	return &Gate{
		logins:    logins,
		keyring:   kr,
		forgotten: forgotten,
		log:       log.With(slog.String("component", "unlock_gate")),
	}
}

// facts - всё, что известно о пароле и счетах в момент попытки.
type facts struct {
	info          login.Info
	legacyMatches bool
	pending       []string
	migrated      []string
	state         MigrationState
}

// errKeyring отделяет сбой хранилища ключей от сбоя хранилища конфигурации.
var errKeyring = errors.New("keyring failure")

func (g *Gate) collect(ctx context.Context, password string) (facts, error) {
	rec, err := g.logins.Load(ctx)
	if err != nil {
		return facts{}, kv.Unavailable(err)
	}
	info, _ := rec.Info()

	pending, err := g.keyring.AccountsPendingMigration(ctx)
	if err != nil {
		return facts{}, fmt.Errorf("%w: %w", errKeyring, err)
	}
	migrated, err := g.keyring.MigratedAccounts(ctx)
	if err != nil {
		return facts{}, fmt.Errorf("%w: %w", errKeyring, err)
	}

	f := facts{
		info:          info,
		legacyMatches: info.MatchesLegacy(password),
		pending:       pending,
		migrated:      migrated,
	}
	switch {
	case len(pending) == 0:
		f.state = Migrated
	case len(migrated) > 0:
		f.state = PartiallyMigrated
	default:
		f.state = Unmigrated
	}
	return f, nil
}

// verifyAny - пароль подходит хотя бы к одному счёту. Ошибка трактуется как несовпадение.
func (g *Gate) verifyAny(ctx context.Context, addresses []string, password string) bool {
	for _, address := range addresses {
		ok, err := g.keyring.VerifyAccountPassword(ctx, address, password)
		if err != nil {
			g.log.Warn("account password verification failed", "address", address, "error", err)
			return false
		}
		if ok {
			return true
		}
	}
	return false
}

func (g *Gate) decide(ctx context.Context, f facts, password string) Result {
	hasLegacy := f.info.HasLegacyPassword()

	switch f.state {
	case Migrated:
		// сохранённый общий пароль решает, даже если у счетов уже есть собственные
		if hasLegacy {
			if f.legacyMatches {
				return Unlocked
			}
			return WrongPassword
		}
		if len(f.migrated) == 0 {
			return Unlocked
		}
		if g.verifyAny(ctx, f.migrated, password) {
			return Unlocked
		}
		return WrongPassword

	case PartiallyMigrated:
		if hasLegacy {
			if f.legacyMatches {
				return NeedsMigration
			}
			return WrongPassword
		}
		if g.verifyAny(ctx, f.migrated, password) {
			return NeedsMigration
		}
		return WrongPassword

	case Unmigrated:
		if !hasLegacy || f.legacyMatches {
			return NeedsMigration
		}
		return WrongPassword
	}

	return WrongPassword
}

// Resolve проверяет пароль. При Unlocked запись входа обновляется, флаг восстановления снимается.
// Ошибка возвращается только при недоступном хранилище; результат при этом WrongPassword.
func (g *Gate) Resolve(ctx context.Context, password string) (Result, error) {
	if password == "" {
		return WrongPassword, nil
	}

	f, err := g.collect(ctx, password)
	if errors.Is(err, errKeyring) {
		g.log.Warn("keyring unavailable during unlock", "error", err)
		return WrongPassword, nil
	}
	if err != nil {
		return WrongPassword, err
	}

	result := g.decide(ctx, f, password)
	g.log.Debug("unlock resolved", "state", f.state.String(), "result", result.String())

	if result != Unlocked {
		return result, nil
	}

	if err := g.complete(ctx, false); err != nil {
		return WrongPassword, err
	}
	return Unlocked, nil
}

// Migrate переводит ожидающие счета на введённый пароль и открывает сессию.
func (g *Gate) Migrate(ctx context.Context, password string) error {
	if password == "" {
		return ErrWrongPassword
	}

	f, err := g.collect(ctx, password)
	if err != nil {
		if errors.Is(err, errKeyring) {
			return &MigrationError{Err: err}
		}
		return err
	}

	switch g.decide(ctx, f, password) {
	case WrongPassword:
		return ErrWrongPassword
	case Unlocked:
		return g.complete(ctx, false)
	}

	var failed []string
	var lastErr error
	for _, address := range f.pending {
		if err := g.keyring.MigrateAccount(ctx, address, password); err != nil {
			g.log.Error("account migration failed", "address", address, "error", err)
			failed = append(failed, address)
			lastErr = err
		}
	}
	if len(failed) > 0 {
		return &MigrationError{Failed: failed, Err: lastErr}
	}

	g.log.Info("accounts migrated to own passwords", "count", len(f.pending))
	return g.complete(ctx, true)
}

func (g *Gate) complete(ctx context.Context, migrated bool) error {
	if err := g.forgotten.Clear(ctx); err != nil {
		return kv.Unavailable(err)
	}

	var err error
	if migrated {
		_, err = g.logins.MarkMigrated(ctx)
	} else {
		_, err = g.logins.Touch(ctx)
	}
	if err != nil && !errors.Is(err, login.ErrNotInitialized) {
		return kv.Unavailable(err)
	}
	return nil
}
