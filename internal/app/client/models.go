package client

import (
	"walletlock/internal/domain/autolock"
	"walletlock/internal/domain/lock"
	"walletlock/internal/domain/login"
)

// Status - сводка для команды status и API демона.
type Status struct {
	Session       lock.State      `json:"session"`
	Initialized   bool            `json:"initialized"`
	LoginStatus   login.Status    `json:"login_status,omitempty"`
	LastLoginTime login.Millis    `json:"last_login_time,omitempty"`
	AutoLock      autolock.Config `json:"auto_lock"`
	HasAccounts   bool            `json:"has_accounts"`
	PendingCount  int             `json:"pending_migration"`
	Forgetting    []string        `json:"addresses_to_forget,omitempty"`
}
