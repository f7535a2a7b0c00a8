// Package keystore - локальные счета кошелька в SQLite. Для ядра блокировки
// это реализация keyring.Keyring; собственный пароль счёта хранится как
// соль и PBKDF2-верификатор.
package keystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"walletlock/internal/domain/keyring"
)

type Keystore struct {
	db         *sql.DB
	log        *slog.Logger
	now        func() time.Time
	iterations int
}

var _ keyring.Keyring = (*Keystore)(nil)

// New работает поверх уже мигрированной базы (таблица accounts).
func New(db *sql.DB, log *slog.Logger) *Keystore {
	return &Keystore{
		db:         db,
		log:        log.With(slog.String("component", "keystore")),
		now:        time.Now,
		iterations: pbkdf2Iterations,
	}
}

// AddAccount добавляет счёт. Пустой пароль - счёт из эпохи общего пароля, он ждёт миграции.
func (k *Keystore) AddAccount(ctx context.Context, address, name, password string) (keyring.Account, error) {
	var salt, verifier []byte
	if password != "" {
		var err error
		if salt, err = generateSalt(); err != nil {
			return keyring.Account{}, err
		}
		verifier = deriveVerifier(password, salt, k.iterations)
	}

	res, err := k.db.ExecContext(ctx,
		`INSERT INTO accounts (address, name, salt, verifier, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(address) DO NOTHING`,
		address, name, salt, verifier, k.now().UnixMilli())
	if err != nil {
		return keyring.Account{}, fmt.Errorf("ошибка добавления счёта: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return keyring.Account{}, keyring.ErrAccountExists
	}

	acc, err := k.account(ctx, address)
	if err != nil {
		return keyring.Account{}, err
	}

	k.log.Info("account added", "address", address, "migrated", acc.Migrated)
	return acc, nil
}

func (k *Keystore) account(ctx context.Context, address string) (keyring.Account, error) {
	var (
		acc     keyring.Account
		created int64
	)
	err := k.db.QueryRowContext(ctx,
		`SELECT address, name, verifier IS NOT NULL, created_at FROM accounts WHERE address = ?`, address).
		Scan(&acc.Address, &acc.Name, &acc.Migrated, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return keyring.Account{}, keyring.ErrAccountNotFound
	}
	if err != nil {
		return keyring.Account{}, fmt.Errorf("ошибка получения счёта: %w", err)
	}
	acc.CreatedAt = time.UnixMilli(created)
	return acc, nil
}

func (k *Keystore) ListAccounts(ctx context.Context) ([]keyring.Account, error) {
	rows, err := k.db.QueryContext(ctx,
		`SELECT address, name, verifier IS NOT NULL, created_at FROM accounts ORDER BY created_at, address`)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var accounts []keyring.Account
	for rows.Next() {
		var (
			acc     keyring.Account
			created int64
		)
		if err := rows.Scan(&acc.Address, &acc.Name, &acc.Migrated, &created); err != nil {
			return nil, fmt.Errorf("ошибка сканирования счёта: %w", err)
		}
		acc.CreatedAt = time.UnixMilli(created)
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (k *Keystore) VerifyAccountPassword(ctx context.Context, address, password string) (bool, error) {
	var salt, verifier []byte
	err := k.db.QueryRowContext(ctx,
		`SELECT salt, verifier FROM accounts WHERE address = ?`, address).Scan(&salt, &verifier)
	if errors.Is(err, sql.ErrNoRows) {
		return false, keyring.ErrAccountNotFound
	}
	if err != nil {
		return false, fmt.Errorf("ошибка чтения верификатора: %w", err)
	}
	if verifier == nil {
		return false, keyring.ErrNotMigrated
	}
	return verify(password, salt, verifier, k.iterations), nil
}

func (k *Keystore) AccountsPendingMigration(ctx context.Context) ([]string, error) {
	return k.addresses(ctx, `SELECT address FROM accounts WHERE verifier IS NULL ORDER BY created_at, address`)
}

func (k *Keystore) MigratedAccounts(ctx context.Context) ([]string, error) {
	return k.addresses(ctx, `SELECT address FROM accounts WHERE verifier IS NOT NULL ORDER BY created_at, address`)
}

func (k *Keystore) addresses(ctx context.Context, query string) ([]string, error) {
	rows, err := k.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("ошибка сканирования адреса: %w", err)
		}
		out = append(out, addr)
	}
	return out, rows.Err()
}

func (k *Keystore) HasAnyLocalAccounts(ctx context.Context) (bool, error) {
	var exists bool
	if err := k.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки счетов: %w", err)
	}
	return exists, nil
}

func (k *Keystore) MigrateAccount(ctx context.Context, address, password string) error {
	salt, err := generateSalt()
	if err != nil {
		return err
	}
	verifier := deriveVerifier(password, salt, k.iterations)

	res, err := k.db.ExecContext(ctx,
		`UPDATE accounts SET salt = ?, verifier = ? WHERE address = ?`, salt, verifier, address)
	if err != nil {
		return fmt.Errorf("ошибка миграции счёта: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return keyring.ErrAccountNotFound
	}

	k.log.Info("account migrated", "address", address)
	return nil
}

// ForgetAccount возвращает false, если счёта уже нет.
func (k *Keystore) ForgetAccount(ctx context.Context, address string) (bool, error) {
	res, err := k.db.ExecContext(ctx, `DELETE FROM accounts WHERE address = ?`, address)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления счёта: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		k.log.Info("account forgotten", "address", address)
	}
	return n > 0, nil
}

// ForgetAllAccounts удаляет все счета одной транзакцией.
func (k *Keystore) ForgetAllAccounts(ctx context.Context) (bool, error) {
	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM accounts`)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления счетов: %w", err)
	}

	var left int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&left); err != nil {
		return false, fmt.Errorf("ошибка подсчета счетов: %w", err)
	}
	if left != 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	n, _ := res.RowsAffected()
	k.log.Warn("all accounts forgotten", "count", n)
	return true, nil
}
