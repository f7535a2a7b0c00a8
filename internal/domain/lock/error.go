package lock

import "errors"

var (
	ErrUnlockInProgress = errors.New("unlock already in progress")
	// ErrBusClosed - подписка на шину оборвалась, поверхность больше не узнаёт о чужих изменениях.
	ErrBusClosed = errors.New("broadcast subscription closed")
)
