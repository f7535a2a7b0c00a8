// Package types - общие для команд ключи контекста.
package types

import (
	"errors"

	"github.com/spf13/cobra"

	"walletlock/internal/app/client"
)

type contextKey string

const ClientAppKey contextKey = "app"

var ErrNoApp = errors.New("приложение не инициализировано")

// App достаёт поверхность, собранную в PersistentPreRunE.
func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, ErrNoApp
	}
	return app, nil
}
