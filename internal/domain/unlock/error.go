package unlock

import (
	"errors"
	"strings"
)

var (
	ErrWrongPassword   = errors.New("wrong password")
	ErrMigrationFailed = errors.New("migration failed")
)

// MigrationError перечисляет счета, которые не удалось перевести на собственный пароль.
type MigrationError struct {
	Failed []string
	Err    error
}

func (e *MigrationError) Error() string {
	msg := ErrMigrationFailed.Error() + ": " + strings.Join(e.Failed, ", ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MigrationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMigrationFailed}
	}
	return []error{ErrMigrationFailed, e.Err}
}
