package reset

import (
	"errors"
	"strings"
)

var (
	ErrNotAcknowledged        = errors.New("destructive reset not acknowledged")
	ErrDestructiveResetFailed = errors.New("destructive reset failed")
	ErrNothingStaged          = errors.New("no addresses staged to forget")
	ErrAlreadyConfirmed       = errors.New("reset already confirmed, cannot cancel")
	ErrNotConfirmed           = errors.New("reset not confirmed")
)

// ResetError - уничтожение счетов не выполнено целиком.
// Failed содержит адреса, которые остались в хранилище ключей.
type ResetError struct {
	Failed []string
	Err    error
}

func (e *ResetError) Error() string {
	msg := ErrDestructiveResetFailed.Error()
	if len(e.Failed) > 0 {
		msg += ": " + strings.Join(e.Failed, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResetError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDestructiveResetFailed}
	}
	return []error{ErrDestructiveResetFailed, e.Err}
}
