// cmd/walletlock/cmd/account/add.go
package account

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"walletlock/cmd/walletlock/cmd/prompt"
	"walletlock/cmd/walletlock/cmd/types"
	"walletlock/internal/domain/keyring"
)

var (
	name   string
	legacy bool
)

var AddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "Добавить счёт",
	Long: `Добавляет счёт с собственным паролем.

С --legacy счёт добавляется без собственного пароля, как в старых
установках: он получит пароль при миграции на следующем входе.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		var password string
		if !legacy {
			if password, err = prompt.Password("Пароль счёта: "); err != nil {
				return err
			}
			if password == "" {
				return errors.New("пароль не может быть пустым, для счёта без пароля используйте --legacy")
			}
		}

		acc, err := app.AddAccount(cmd.Context(), args[0], name, password)
		if err != nil {
			if errors.Is(err, keyring.ErrAccountExists) {
				return fmt.Errorf("счёт %s уже есть", args[0])
			}
			return fmt.Errorf("ошибка добавления счёта: %w", err)
		}

		fmt.Printf("✓ Счёт %s добавлен\n", acc.Address)
		return nil
	},
}

func init() {
	AddCmd.Flags().StringVar(&name, "name", "", "название счёта")
	AddCmd.Flags().BoolVar(&legacy, "legacy", false, "без собственного пароля")
}
