package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"walletlock/cmd/walletlock/cmd/types"
)

var autolockCmd = &cobra.Command{
	Use:   "autolock",
	Short: "Автоблокировка по таймауту",
}

var autolockShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Показать настройку",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		cfg, err := app.AutoLock().Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка чтения настройки: %w", err)
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(cfg)
		}
		fmt.Println(describeAutoLock(cfg))
		return nil
	},
}

var autolockSetCmd = &cobra.Command{
	Use:   "set <value> <minute|hour|day>",
	Short: "Включить автоблокировку",
	Long: `Включает автоблокировку: сессия закрывается, если с последнего входа
прошло больше заданного времени. Значения меньше 1 округляются до 1.`,
	Example: "  walletlock autolock set 15 minute\n  walletlock autolock set 1.5 hour",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("неверное значение %q: %w", args[0], err)
		}

		cfg, err := app.AutoLock().Enable(cmd.Context(), value, args[1])
		if err != nil {
			return fmt.Errorf("ошибка сохранения настройки: %w", err)
		}
		fmt.Println("✓ Автоблокировка:", describeAutoLock(cfg))
		return nil
	},
}

var autolockDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Выключить автоблокировку",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		cfg, err := app.AutoLock().Disable(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка сохранения настройки: %w", err)
		}
		fmt.Println("✓ Автоблокировка:", describeAutoLock(cfg))
		return nil
	},
}
