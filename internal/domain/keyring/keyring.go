// Package keyring описывает возможности хранилища ключей счетов, которые нужны ядру.
// Сама криптография счетов живёт за этим интерфейсом.
package keyring

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrNotMigrated     = errors.New("account has no own password")
)

// Account - публичные сведения о локальном счёте.
type Account struct {
	Address   string    `json:"address"`
	Name      string    `json:"name,omitempty"`
	Migrated  bool      `json:"migrated"`
	CreatedAt time.Time `json:"created_at"`
}

type Keyring interface {
	// VerifyAccountPassword проверяет собственный пароль счёта.
	VerifyAccountPassword(ctx context.Context, address, password string) (bool, error)
	// AccountsPendingMigration - счета, у которых ещё нет собственного пароля.
	AccountsPendingMigration(ctx context.Context) ([]string, error)
	// MigratedAccounts - счета с собственным паролем.
	MigratedAccounts(ctx context.Context) ([]string, error)
	HasAnyLocalAccounts(ctx context.Context) (bool, error)
	// MigrateAccount назначает счёту собственный пароль.
	MigrateAccount(ctx context.Context, address, password string) error
	ForgetAccount(ctx context.Context, address string) (bool, error)
	// ForgetAllAccounts удаляет все счета целиком или не удаляет ни одного.
	ForgetAllAccounts(ctx context.Context) (bool, error)
}
