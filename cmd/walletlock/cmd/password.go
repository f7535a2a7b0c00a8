package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"walletlock/cmd/walletlock/cmd/prompt"
	"walletlock/cmd/walletlock/cmd/types"
)

// passwordCmd - решение о пароле входа.
var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Пароль входа",
	Long:  `Задать общий пароль входа, отложить решение или отказаться от пароля.`,
}

var passwordSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Задать пароль",
	Long: `Сохраняет общий пароль входа. Хранится только его хеш.

При следующем входе счета получат этот пароль как собственный.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		password, err := prompt.NewPassword()
		if err != nil {
			return err
		}
		if err := app.SetPassword(cmd.Context(), password); err != nil {
			return fmt.Errorf("ошибка сохранения пароля: %w", err)
		}
		fmt.Println("✓ Пароль задан")
		return nil
	},
}

var passwordLaterCmd = &cobra.Command{
	Use:   "later",
	Short: "Отложить решение",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		if _, err := app.Logins().Defer(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка сохранения: %w", err)
		}
		if _, err := app.Session().Evaluate(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Решение отложено. Напоминание появится при следующем запуске.")
		return nil
	},
}

var passwordDeclineCmd = &cobra.Command{
	Use:   "decline",
	Short: "Работать без пароля",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		if _, err := app.Logins().Decline(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка сохранения: %w", err)
		}
		if _, err := app.Session().Evaluate(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Пароль не используется, сессия не блокируется.")
		return nil
	},
}
