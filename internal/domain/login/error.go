package login

import "errors"

var (
	ErrUnknownStatus  = errors.New("unknown login status")
	ErrNotInitialized = errors.New("login record not initialized")
	ErrEmptyPassword  = errors.New("empty password")
)
