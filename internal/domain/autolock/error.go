package autolock

import "errors"

var (
	ErrUnknownUnit  = errors.New("unknown delay unit")
	ErrInvalidValue = errors.New("invalid delay value")
)
